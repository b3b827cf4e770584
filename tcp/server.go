package tcp

import (
	"context"
	"net"
)

// Server listens for incoming Modbus TCP connections. It owns the
// listening socket - a Server must not be copied; pass it by pointer.
// Go's net package already sets SO_REUSEADDR on the listening socket it
// creates, so Listen needs no extra syscall plumbing to get that
// behavior.
type Server struct {
	listener net.Listener

	// OnAcceptFunc, when set, is called for every accepted connection
	// before Serve starts handling it. Returning an error rejects and
	// closes the connection. connectionCount is the count including
	// this one.
	OnAcceptFunc func(ctx context.Context, conn *Connection, connectionCount int64) error

	// OnErrorFunc receives connection-level errors encountered by
	// Serve. Defaults to logging via the standard log package.
	OnErrorFunc func(err error)
}

// Listen binds a listening socket to address ("host:port", or ":port"
// for all interfaces).
func Listen(address string) (*Server, error) {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	return &Server{listener: l}, nil
}

// Addr returns the address the server is listening on. Useful when
// Listen was called with a ":0" port and the caller needs to know which
// port the OS actually picked.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Accept blocks until a client connects and returns a fresh Connection
// wrapping it. Each call yields ownership of a distinct socket handle;
// the returned Connection must not be duplicated.
func (s *Server) Accept() (*Connection, error) {
	conn, err := s.listener.Accept()
	if err != nil {
		return nil, err
	}
	return NewConnection(conn), nil
}

// Close stops accepting connections and releases the listening socket.
func (s *Server) Close() error {
	return s.listener.Close()
}
