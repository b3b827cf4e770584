// Package tcp implements Modbus TCP: the MBAP header framer and the
// client/server transport built on top of it.
package tcp
