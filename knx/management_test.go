package knx

import (
	"testing"
	"time"

	"github.com/knxbus/knx-go/knx/cemi"
	"github.com/knxbus/knx-go/knx/knxnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connectedTunnelFixture opens a Tunnel backed by peer, consuming the
// CONNECT_REQUEST/RESPONSE exchange so later test code can script
// tunnel-level traffic without re-deriving the handshake each time.
func connectedTunnelFixture(t *testing.T, peer *fakePeer) *Tunnel {
	t.Helper()

	connected := make(chan struct{})
	go func() {
		req := peer.recv(t)
		connReq := req.(*knxnet.ConnReq)
		peer.reply(t, &knxnet.ConnRes{
			Channel: 9,
			Status:  knxnet.ConnResOk,
			Control: connReq.Control,
			CRD:     knxnet.CRD{ConnType: knxnet.TunnelConnection, TunnelAddress: 0x1102},
		})
		close(connected)
	}()

	tunnel, err := NewTunnel(peer.addr(), knxnet.TunnelLayerData, TunnelConfig{
		ConnectionTimeout: time.Second,
		ResponseTimeout:   time.Second,
		HeartbeatInterval: time.Hour,
	})
	require.NoError(t, err)

	<-connected
	return tunnel
}

func TestNewP2PConnection_ConnectSendDisconnect(t *testing.T) {
	peer := newFakePeer(t)
	tunnel := connectedTunnelFixture(t, peer)
	defer tunnel.Close()

	target := cemi.NewIndividualAddr3(1, 1, 5)

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)

		// T_CONNECT request.
		req := peer.recv(t)
		tunnelReq := req.(*knxnet.TunnelReq)
		peer.reply(t, &knxnet.TunnelRes{
			ConnHeader: knxnet.ConnHeader{Channel: 9, SeqNumber: tunnelReq.SeqNumber},
			Status:     knxnet.ErrCodeNoError,
		})

		// Device confirms the connection with an L_Data.con wrapping T_CONNECT.
		con := &cemi.LDataCon{LData: cemi.LData{
			Control1:    cemi.Control1StdFrame,
			Control2:    cemi.Control2Hops(6),
			Source:      target,
			Destination: uint16(tunnel.SourceAddr()),
			Data:        cemi.TConnect(),
		}}
		body := make([]byte, con.Size())
		con.Pack(body)
		peer.reply(t, &knxnet.TunnelReq{
			ConnHeader: knxnet.ConnHeader{Channel: 9, SeqNumber: 0},
			Payload:    body,
		})

		// The client acknowledges the L_Data.con with a TUNNELLING_ACK.
		ack := recvTunnelRes(t, peer)
		assert.Equal(t, knxnet.ErrCodeNoError, ack.Status)

		// T_DISCONNECT request.
		req = peer.recv(t)
		tunnelReq = req.(*knxnet.TunnelReq)
		peer.reply(t, &knxnet.TunnelRes{
			ConnHeader: knxnet.ConnHeader{Channel: 9, SeqNumber: tunnelReq.SeqNumber},
			Status:     knxnet.ErrCodeNoError,
		})
	}()

	conn, err := NewP2PConnection(tunnel, target)
	require.NoError(t, err)

	require.NoError(t, conn.Disconnect())

	select {
	case <-serverDone:
	case <-time.After(2 * time.Second):
		t.Fatal("peer goroutine did not observe the full connect/disconnect exchange")
	}
}

func TestNewP2PConnection_TimesOutWithoutConfirmation(t *testing.T) {
	peer := newFakePeer(t)
	tunnel := connectedTunnelFixture(t, peer)
	defer tunnel.Close()

	go func() {
		req := peer.recv(t)
		tunnelReq := req.(*knxnet.TunnelReq)
		peer.reply(t, &knxnet.TunnelRes{
			ConnHeader: knxnet.ConnHeader{Channel: 9, SeqNumber: tunnelReq.SeqNumber},
			Status:     knxnet.ErrCodeNoError,
		})
		// Never sends the L_Data.con confirmation.
	}()

	tunnel.config.ResponseTimeout = 200 * time.Millisecond

	_, err := NewP2PConnection(tunnel, cemi.NewIndividualAddr3(1, 1, 9))
	assert.Error(t, err)
}
