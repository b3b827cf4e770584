package tcp

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/halvardkvam/modbuscore/pdu"
)

// Handler answers a decoded request with the response (or exception) to
// send back.
type Handler interface {
	Handle(ctx context.Context, req pdu.Request) (pdu.Response, *pdu.Exception, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, req pdu.Request) (pdu.Response, *pdu.Exception, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, req pdu.Request) (pdu.Response, *pdu.Exception, error) {
	return f(ctx, req)
}

// Serve accepts connections from s and dispatches each decoded request
// to handler, one goroutine per connection, until ctx is cancelled or
// Close is called. Panics inside handler are recovered and logged; they
// close only the offending connection, never the whole server.
//
// OnErrorFunc, when set, receives connection-level errors instead of
// the default log.Printf.
func (s *Server) Serve(ctx context.Context, handler Handler) error {
	onError := s.OnErrorFunc
	if onError == nil {
		onError = func(err error) { log.Printf("modbus tcp server connection error: %v", err) }
	}

	var active sync.WaitGroup
	var activeCount atomic.Int64
	defer active.Wait()

	for {
		conn, err := s.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return err
		}

		if s.OnAcceptFunc != nil {
			if err := s.OnAcceptFunc(ctx, conn, activeCount.Load()+1); err != nil {
				onError(fmt.Errorf("rejecting connection: %w", err))
				_ = conn.Close()
				continue
			}
		}

		active.Add(1)
		activeCount.Add(1)
		go func(conn *Connection) {
			defer func() {
				if rec := recover(); rec != nil {
					onError(fmt.Errorf("recovered panic in handler: %v", rec))
				}
				_ = conn.Close()
				activeCount.Add(-1)
				active.Done()
			}()
			serveConn(ctx, conn, handler, onError)
		}(conn)
	}
}

func serveConn(ctx context.Context, conn *Connection, handler Handler, onError func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		req, _, err := conn.AwaitRequest(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			onError(err)
			return
		}

		resp, ex, err := handler.Handle(ctx, req)
		if err != nil {
			onError(err)
			return
		}
		if ex != nil {
			if _, err := conn.SendException(*ex); err != nil {
				onError(err)
				return
			}
			continue
		}
		if _, err := conn.SendResponse(resp); err != nil {
			onError(err)
			return
		}
	}
}
