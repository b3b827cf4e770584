package tcp

import (
	"errors"
	"io"
	"net"
	"os"
	"time"

	modbus "github.com/halvardkvam/modbuscore"
)

// DefaultPollTimeout is the hardcoded "connection has died" threshold: a
// read that produces nothing for this long is treated as a dead
// connection rather than a slow one. It bounds AwaitRequest, where there
// is no outstanding request to time out - only the connection itself.
const DefaultPollTimeout = 60 * time.Second

// DefaultResponseTimeout bounds AwaitResponse: how long to wait for the
// reply to an already-sent request before giving up on it.
const DefaultResponseTimeout = 500 * time.Millisecond

// maxReadLen is the largest chunk ReadFrame pulls off the socket in one
// call. Typical Modbus/TCP traffic fits one logical message into a
// single recv, so one read is enough to gather a full header+body.
const maxReadLen = 1024

// ReadFrame reads one chunk of up to maxReadLen bytes from conn, guarded
// by a read deadline of pollTimeout (DefaultPollTimeout if zero). A
// deadline exceeded before any byte arrives yields ErrTimeout; the peer
// closing the connection yields ErrConnectionClosed; any other I/O
// failure yields ErrProtocolError.
func ReadFrame(conn net.Conn, pollTimeout time.Duration) ([]byte, error) {
	if pollTimeout <= 0 {
		pollTimeout = DefaultPollTimeout
	}
	if err := conn.SetReadDeadline(time.Now().Add(pollTimeout)); err != nil {
		return nil, modbus.NewErrorNoSlave(modbus.ErrProtocolError)
	}
	buf := make([]byte, maxReadLen)
	n, err := conn.Read(buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, modbus.NewErrorNoSlave(modbus.ErrTimeout)
		}
		if errors.Is(err, io.EOF) {
			return nil, modbus.NewErrorNoSlave(modbus.ErrConnectionClosed)
		}
		return nil, modbus.NewErrorNoSlave(modbus.ErrProtocolError)
	}
	if n == 0 {
		return nil, modbus.NewErrorNoSlave(modbus.ErrConnectionClosed)
	}
	return buf[:n], nil
}
