package tcp_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	modbus "github.com/halvardkvam/modbuscore"
	"github.com/halvardkvam/modbuscore/pdu"
	"github.com/halvardkvam/modbuscore/tcp"
)

func pipeConnections() (*tcp.Connection, *tcp.Connection) {
	client, server := net.Pipe()
	return tcp.NewConnection(client), tcp.NewConnection(server)
}

func TestConnection_RequestResponseRoundTrip(t *testing.T) {
	client, server := pipeConnections()
	client.PollTimeout = time.Second
	server.PollTimeout = time.Second
	defer client.Close()
	defer server.Close()

	client.SetTransactionID(99)
	client.SetUnitID(0x11)

	req := pdu.Request{Function: modbus.ReadHoldingRegisters, Address: 0x6B, Quantity: 0x03}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := client.SendRequest(req)
		assert.NoError(t, err)
	}()

	gotReq, _, err := server.AwaitRequest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, modbus.ReadHoldingRegisters, gotReq.Function)
	assert.Equal(t, uint8(0x11), gotReq.SlaveID)
	assert.Equal(t, uint16(99), server.TransactionID()) // adopted from request
	<-done

	resp := pdu.Response{
		Function: modbus.ReadHoldingRegisters,
		Values:   []modbus.Cell{modbus.NewRegister(0xAE41), modbus.NewRegister(0x5652), modbus.NewRegister(0x4340)},
	}
	go func() {
		_, err := server.SendResponse(resp)
		assert.NoError(t, err)
	}()

	gotResp, ex, _, err := client.AwaitResponse(context.Background())
	require.NoError(t, err)
	assert.Nil(t, ex)
	require.Len(t, gotResp.Values, 3)
}

func TestConnection_AwaitResponse_RejectsMismatchedTransactionID(t *testing.T) {
	client, server := pipeConnections()
	client.PollTimeout = time.Second
	server.PollTimeout = time.Second
	defer client.Close()
	defer server.Close()

	client.SetTransactionID(5)

	go func() {
		resp := pdu.Response{Function: modbus.ReadCoils, Values: []modbus.Cell{modbus.NewCoil(true)}}
		_, _ = server.SendResponse(resp) // server's own transactionID defaults to 0, client expects 5
	}()

	_, _, _, err := client.AwaitResponse(context.Background())
	assert.ErrorIs(t, err, modbus.ErrInvalidMessageIDErr)
}

func TestConnection_AwaitRequest_TimesOutWithNoData(t *testing.T) {
	_, server := pipeConnections()
	server.PollTimeout = 20 * time.Millisecond
	defer server.Close()

	_, _, err := server.AwaitRequest(context.Background())
	assert.ErrorIs(t, err, modbus.ErrTimeoutErr)
}
