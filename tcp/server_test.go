package tcp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	modbus "github.com/halvardkvam/modbuscore"
	"github.com/halvardkvam/modbuscore/pdu"
	"github.com/halvardkvam/modbuscore/tcp"
)

func TestServer_AcceptYieldsFreshConnectionPerClient(t *testing.T) {
	srv, err := tcp.Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer srv.Close()

	accepted := make(chan *tcp.Connection, 1)
	go func() {
		conn, err := srv.Accept()
		assert.NoError(t, err)
		accepted <- conn
	}()

	client, err := tcp.Dial(context.Background(), srv.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	serverConn := <-accepted
	defer serverConn.Close()

	client.SetTransactionID(1)
	client.SetUnitID(3)
	req := pdu.Request{Function: modbus.ReadCoils, Address: 0, Quantity: 8}

	serverConn.PollTimeout = time.Second
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := client.SendRequest(req)
		assert.NoError(t, err)
	}()

	gotReq, _, err := serverConn.AwaitRequest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(3), gotReq.SlaveID)
	<-done
}
