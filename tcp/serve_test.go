package tcp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	modbus "github.com/halvardkvam/modbuscore"
	"github.com/halvardkvam/modbuscore/pdu"
	"github.com/halvardkvam/modbuscore/tcp"
)

// mockHandler lets a test assert on exactly which requests the server
// loop dispatched, and script canned responses for each.
type mockHandler struct {
	mock.Mock
}

func (m *mockHandler) Handle(ctx context.Context, req pdu.Request) (pdu.Response, *pdu.Exception, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(pdu.Response)
	ex, _ := args.Get(1).(*pdu.Exception)
	return resp, ex, args.Error(2)
}

func TestServer_Serve_CallsHandlerWithDecodedRequest(t *testing.T) {
	srv, err := tcp.Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := new(mockHandler)
	wantReq := pdu.Request{SlaveID: 7, Function: modbus.ReadCoils, Address: 0, Quantity: 8}
	wantResp := pdu.Response{Function: modbus.ReadCoils, Values: []modbus.Cell{modbus.NewCoil(true)}}
	handler.On("Handle", mock.Anything, wantReq).Return(wantResp, (*pdu.Exception)(nil), nil).Once()

	serveDone := make(chan error, 1)
	go func() { serveDone <- srv.Serve(ctx, handler) }()

	client, err := tcp.Dial(context.Background(), srv.Addr().String())
	require.NoError(t, err)
	defer client.Close()
	client.PollTimeout = 2 * time.Second
	client.SetTransactionID(1)
	client.SetUnitID(7)

	_, err = client.SendRequest(pdu.Request{Function: modbus.ReadCoils, Address: 0, Quantity: 8})
	require.NoError(t, err)

	resp, ex, _, err := client.AwaitResponse(context.Background())
	require.NoError(t, err)
	assert.Nil(t, ex)
	require.Len(t, resp.Values, 8) // one coil byte on the wire decodes as 8 coils

	cancel()
	srv.Close()
	<-serveDone
	handler.AssertExpectations(t)
}

func TestServer_Serve_DispatchesRequestsToHandler(t *testing.T) {
	srv, err := tcp.Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := tcp.HandlerFunc(func(_ context.Context, req pdu.Request) (pdu.Response, *pdu.Exception, error) {
		if req.Function != modbus.ReadHoldingRegisters {
			return pdu.Response{}, &pdu.Exception{Function: req.Function, Error: modbus.ErrIllegalFunction}, nil
		}
		resp := pdu.FromRequest(req)
		resp.Values = []modbus.Cell{modbus.NewRegister(42)}
		return resp, nil, nil
	})

	serveDone := make(chan error, 1)
	go func() { serveDone <- srv.Serve(ctx, handler) }()

	client, err := tcp.Dial(context.Background(), srv.Addr().String())
	require.NoError(t, err)
	defer client.Close()
	client.PollTimeout = 2 * time.Second
	client.SetTransactionID(1)

	_, err = client.SendRequest(pdu.Request{Function: modbus.ReadHoldingRegisters, Address: 0, Quantity: 1})
	require.NoError(t, err)

	resp, ex, _, err := client.AwaitResponse(context.Background())
	require.NoError(t, err)
	assert.Nil(t, ex)
	require.Len(t, resp.Values, 1)
	v, _ := resp.Values[0].RegisterValue()
	assert.Equal(t, uint16(42), v)

	cancel()
	srv.Close()
	<-serveDone
}
