// Package pdu encodes and decodes Modbus Protocol Data Units: the slave
// id, function code and payload of a Modbus frame, without RTU or TCP
// transport framing. See the rtu and tcp packages for the framers that
// wrap a PDU with a CRC suffix or an MBAP header respectively.
package pdu
