package tcp

import (
	"context"
	"net"
	"sync"
	"time"

	modbus "github.com/halvardkvam/modbuscore"
	"github.com/halvardkvam/modbuscore/pdu"
)

const defaultConnectTimeout = 1 * time.Second

// Connection is a Modbus TCP connection: an MBAP-framed stream over a
// single net.Conn. It owns that socket - a Connection must not be
// copied or shared concurrently from multiple goroutines; pass it by
// pointer, never duplicate it.
type Connection struct {
	mu sync.Mutex

	conn          net.Conn
	transactionID uint16
	unitID        uint8

	// PollTimeout bounds AwaitRequest: how long to wait for the next
	// incoming request before treating the connection as dead. Defaults
	// to DefaultPollTimeout (60s).
	PollTimeout time.Duration

	// ResponseTimeout bounds AwaitResponse: how long to wait for the
	// reply to an already-sent request. Defaults to
	// DefaultResponseTimeout (500ms) - a live connection that is going
	// to answer at all normally answers fast, so a much shorter ceiling
	// than PollTimeout is appropriate here.
	ResponseTimeout time.Duration
}

// Dial connects to a Modbus TCP server at address ("host:port") and
// returns a ready client-side Connection. The application is
// responsible for assigning transaction ids via SetTransactionID before
// sending requests.
func Dial(ctx context.Context, address string) (*Connection, error) {
	dialer := &net.Dialer{Timeout: defaultConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return NewConnection(conn), nil
}

// NewConnection wraps an already-connected socket as a Connection.
func NewConnection(conn net.Conn) *Connection {
	return &Connection{conn: conn, PollTimeout: DefaultPollTimeout, ResponseTimeout: DefaultResponseTimeout}
}

// TransactionID returns the transaction id that the next SendRequest
// will stamp onto the MBAP header.
func (c *Connection) TransactionID() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transactionID
}

// SetTransactionID sets the transaction id used by the next
// SendRequest, and the id AwaitResponse will match incoming responses
// against.
func (c *Connection) SetTransactionID(id uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transactionID = id
}

// UnitID returns the unit id used by the next Send* call.
func (c *Connection) UnitID() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unitID
}

// SetUnitID sets the unit id used by the next Send* call.
func (c *Connection) SetUnitID(id uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unitID = id
}

// SendRequest encodes req behind an MBAP header stamped with the
// connection's current transaction and unit id, writes it, and returns
// the exact bytes written.
func (c *Connection) SendRequest(req pdu.Request) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame, err := EncodeRequestFrame(c.transactionID, c.unitID, req)
	if err != nil {
		return nil, err
	}
	if _, err := c.conn.Write(frame); err != nil {
		return nil, modbus.NewErrorNoSlave(modbus.ErrProtocolError)
	}
	return frame, nil
}

// SendResponse encodes resp behind an MBAP header and writes it,
// echoing the connection's current transaction and unit id (as adopted
// from the request by AwaitRequest).
func (c *Connection) SendResponse(resp pdu.Response) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame, err := EncodeResponseFrame(c.transactionID, c.unitID, resp)
	if err != nil {
		return nil, err
	}
	if _, err := c.conn.Write(frame); err != nil {
		return nil, modbus.NewErrorNoSlave(modbus.ErrProtocolError)
	}
	return frame, nil
}

// SendException encodes ex behind an MBAP header and writes it.
func (c *Connection) SendException(ex pdu.Exception) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame := EncodeExceptionFrame(c.transactionID, c.unitID, ex)
	if _, err := c.conn.Write(frame); err != nil {
		return nil, modbus.NewErrorNoSlave(modbus.ErrProtocolError)
	}
	return frame, nil
}

// AwaitRequest reads and decodes one request frame. It adopts the
// incoming transaction and unit id so a subsequent SendResponse or
// SendException echoes them automatically.
func (c *Connection) AwaitRequest(ctx context.Context) (pdu.Request, []byte, error) {
	c.mu.Lock()
	conn, timeout := c.conn, c.PollTimeout
	c.mu.Unlock()

	data, err := ReadFrame(conn, timeout)
	if err != nil {
		return pdu.Request{}, nil, err
	}
	h, req, err := DecodeRequestFrame(data)
	if err != nil {
		return pdu.Request{}, data, err
	}

	c.mu.Lock()
	c.transactionID = h.TransactionID
	c.unitID = h.UnitID
	c.mu.Unlock()

	return req, data, nil
}

// AwaitResponse reads one frame and decodes it as a response (or
// exception), enforcing transaction-id matching against the id
// SendRequest last used.
func (c *Connection) AwaitResponse(ctx context.Context) (pdu.Response, *pdu.Exception, []byte, error) {
	c.mu.Lock()
	conn, timeout, expected := c.conn, c.ResponseTimeout, c.transactionID
	c.mu.Unlock()
	if timeout <= 0 {
		timeout = DefaultResponseTimeout
	}

	data, err := ReadFrame(conn, timeout)
	if err != nil {
		return pdu.Response{}, nil, nil, err
	}
	_, resp, ex, err := DecodeResponseFrame(data, expected)
	return resp, ex, data, err
}

// AwaitBytes returns whatever one timed read produces, with no MBAP or
// PDU interpretation applied.
func (c *Connection) AwaitBytes(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	conn, timeout := c.conn, c.PollTimeout
	c.mu.Unlock()
	return ReadFrame(conn, timeout)
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}
