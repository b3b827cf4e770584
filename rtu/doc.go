// Package rtu implements Modbus RTU framing: appending and verifying the
// CRC-16 suffix, and reassembling PDUs out of the arbitrarily-chunked reads
// a serial byte channel delivers.
package rtu
