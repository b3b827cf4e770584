package rtu

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/tarm/serial"

	modbus "github.com/halvardkvam/modbuscore"
	"github.com/halvardkvam/modbuscore/pdu"
)

// Parity selects the serial parity bit mode.
type Parity byte

// Supported parity modes.
const (
	ParityNone Parity = Parity(serial.ParityNone)
	ParityEven Parity = Parity(serial.ParityEven)
	ParityOdd  Parity = Parity(serial.ParityOdd)
)

// Config describes how to open a serial device for Modbus RTU.
type Config struct {
	// Name is the device path, e.g. "/dev/ttyUSB0" or "COM3".
	Name string
	// Baud is the symbol rate. Standard values are 0 (unset, driver
	// default) through 230400.
	Baud int
	// DataBits is the number of data bits per character, usually 8.
	DataBits byte
	Parity   Parity
	// StopBits is 1 or 2.
	StopBits byte
	// ReadTimeout bounds a single low-level read call; it is not the
	// whole-frame reassembly budget (see Connection.ReadTimeout).
	ReadTimeout time.Duration
}

// Flusher discards unread/unwritten bytes buffered by the serial driver.
type Flusher interface {
	Flush() error
}

// Connection is a Modbus RTU connection over a serial byte channel. It
// owns the underlying port: a Connection must not be copied or shared
// concurrently from multiple goroutines. Treat the value as if it had
// move-only ownership of the port handle - pass it by pointer, never
// duplicate it.
type Connection struct {
	mu sync.Mutex

	port      io.ReadWriteCloser
	isFlusher bool

	// ReadTimeout is the wall-clock budget for reassembling one frame
	// out of fragmented reads. Defaults to DefaultReadTimeout.
	ReadTimeout time.Duration
}

// Open opens the serial device described by cfg in raw mode (no
// canonical processing, no echo) and returns a ready Connection.
func Open(cfg Config) (*Connection, error) {
	dataBits := cfg.DataBits
	if dataBits == 0 {
		dataBits = 8
	}
	stopBits := serial.Stop1
	if cfg.StopBits == 2 {
		stopBits = serial.Stop2
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Name,
		Baud:        cfg.Baud,
		Size:        dataBits,
		Parity:      serial.Parity(cfg.Parity),
		StopBits:    stopBits,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, err
	}
	return NewConnection(port), nil
}

// NewConnection wraps an already-open byte channel (a serial port or
// anything that behaves like one, e.g. in tests) as a Connection.
func NewConnection(port io.ReadWriteCloser) *Connection {
	_, isFlusher := port.(Flusher)
	return &Connection{
		port:        port,
		isFlusher:   isFlusher,
		ReadTimeout: DefaultReadTimeout,
	}
}

// Close closes the underlying port.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port.Close()
}

// SendRequest flushes any pending input/output, encodes req, writes it to
// the port and returns the exact bytes written.
func (c *Connection) SendRequest(req pdu.Request) ([]byte, error) {
	frame, err := EncodeRequestFrame(req)
	if err != nil {
		return nil, err
	}
	return frame, c.send(frame)
}

// SendResponse flushes, encodes resp and writes it to the port.
func (c *Connection) SendResponse(resp pdu.Response) ([]byte, error) {
	frame, err := EncodeResponseFrame(resp)
	if err != nil {
		return nil, err
	}
	return frame, c.send(frame)
}

// SendException flushes, encodes ex and writes it to the port.
func (c *Connection) SendException(ex pdu.Exception) ([]byte, error) {
	frame := EncodeExceptionFrame(ex)
	return frame, c.send(frame)
}

func (c *Connection) send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isFlusher {
		if err := c.port.(Flusher).Flush(); err != nil {
			return modbus.NewErrorNoSlave(modbus.ErrSlaveDeviceFailure)
		}
	}
	if _, err := c.port.Write(frame); err != nil {
		return modbus.NewErrorNoSlave(modbus.ErrSlaveDeviceFailure)
	}
	return nil
}

// AwaitRequest blocks until a full Request frame has been reassembled
// and CRC-verified, or c.ReadTimeout elapses. It returns the decoded
// request together with the raw bytes that produced it.
func (c *Connection) AwaitRequest(ctx context.Context) (pdu.Request, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return AwaitRequest(ctx, c.port, c.ReadTimeout)
}

// AwaitResponse blocks until a full Response or Exception frame has
// been reassembled and CRC-verified, or c.ReadTimeout elapses.
func (c *Connection) AwaitResponse(ctx context.Context) (pdu.Response, *pdu.Exception, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return AwaitResponse(ctx, c.port, c.ReadTimeout)
}

// AwaitBytes returns whatever bytes arrive from one timed read, with no
// framing interpretation applied.
func (c *Connection) AwaitBytes(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return AwaitBytes(ctx, c.port, c.ReadTimeout)
}
