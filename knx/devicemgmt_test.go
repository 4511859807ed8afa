package knx

import (
	"testing"
	"time"

	"github.com/knxbus/knx-go/knx/cemi"
	"github.com/knxbus/knx-go/knx/knxnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeviceManagement_ConnectReadPropertyClose(t *testing.T) {
	peer := newFakePeer(t)

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)

		req := peer.recv(t)
		connReq, ok := req.(*knxnet.ConnReq)
		require.True(t, ok)
		assert.Equal(t, knxnet.DeviceMgmtConnection, connReq.CRI.ConnType)

		peer.reply(t, &knxnet.ConnRes{
			Channel: 3,
			Status:  knxnet.ConnResOk,
			Control: connReq.Control,
			CRD:     knxnet.CRD{ConnType: knxnet.DeviceMgmtConnection},
		})

		req = peer.recv(t)
		cfgReq, ok := req.(*knxnet.DeviceConfigReq)
		require.True(t, ok)

		peer.reply(t, &knxnet.DeviceConfigRes{
			ConnHeader: knxnet.ConnHeader{Channel: 3, SeqNumber: cfgReq.SeqNumber},
			Status:     knxnet.ErrCodeNoError,
		})

		readReq := &cemi.PropReadReq{}
		_, err := readReq.Unpack(cfgReq.Payload)
		require.NoError(t, err)

		con := &cemi.PropReadCon{Data: []byte{0x01, 0x02}}
		con.InterfaceObject = readReq.InterfaceObject
		con.ObjectInstance = readReq.ObjectInstance
		con.PropertyID = readReq.PropertyID
		con.NumElements = 1
		con.StartIndex = readReq.StartIndex

		body := make([]byte, con.Size())
		con.Pack(body)

		peer.reply(t, &knxnet.DeviceConfigReq{
			ConnHeader: knxnet.ConnHeader{Channel: 3, SeqNumber: 0},
			Payload:    body,
		})

		ack := recvDeviceConfigRes(t, peer)
		assert.Equal(t, knxnet.ErrCodeNoError, ack.Status)

		req = peer.recv(t)
		_, ok = req.(*knxnet.DiscReq)
		require.True(t, ok)
	}()

	mgmt, err := NewDeviceManagement(peer.addr(), ManagementConfig{
		ConnectionTimeout: time.Second,
		ResponseTimeout:   time.Second,
		HeartbeatInterval: time.Hour,
	})
	require.NoError(t, err)

	data, err := mgmt.ReadProperty(0x0008, 1, 0x34, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, data)

	require.NoError(t, mgmt.Close())

	select {
	case <-serverDone:
	case <-time.After(2 * time.Second):
		t.Fatal("peer goroutine did not observe the disconnect request")
	}
}

// recvDeviceConfigRes reads the next datagram from the client and decodes
// it as a DEVICE_CONFIGURATION_ACK, for asserting on acks the fakePeer's
// recv dispatch doesn't cover (it only decodes client-initiated requests).
func recvDeviceConfigRes(t *testing.T, peer *fakePeer) *knxnet.DeviceConfigRes {
	t.Helper()

	buffer := make([]byte, 2048)
	peer.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := peer.conn.ReadFromUDP(buffer)
	require.NoError(t, err)

	h, payload, err := knxnet.Unpack(buffer[:n])
	require.NoError(t, err)
	require.Equal(t, knxnet.DeviceConfigResService, h.Service)

	res := &knxnet.DeviceConfigRes{}
	_, err = res.Unpack(payload)
	require.NoError(t, err)

	return res
}

func TestDeviceManagement_DuplicateSeqNumber_AckedButNotRedelivered(t *testing.T) {
	peer := newFakePeer(t)

	const channel = 5

	go func() {
		req := peer.recv(t)
		connReq := req.(*knxnet.ConnReq)
		peer.reply(t, &knxnet.ConnRes{
			Channel: channel,
			Status:  knxnet.ConnResOk,
			Control: connReq.Control,
			CRD:     knxnet.CRD{ConnType: knxnet.DeviceMgmtConnection},
		})
	}()

	mgmt, err := NewDeviceManagement(peer.addr(), ManagementConfig{
		ConnectionTimeout: time.Second,
		ResponseTimeout:   time.Second,
		HeartbeatInterval: time.Hour,
	})
	require.NoError(t, err)
	defer mgmt.Close()

	// No ReadProperty/WriteProperty is in flight, so this PropReadCon
	// doesn't correlate to a waiter and falls through to Inbound().
	con := &cemi.PropReadCon{Data: []byte{0x2a}}
	con.InterfaceObject = 0x0008
	con.ObjectInstance = 1
	con.PropertyID = 0x34
	con.NumElements = 1
	con.StartIndex = 1

	body := make([]byte, con.Size())
	con.Pack(body)

	frame := &knxnet.DeviceConfigReq{
		ConnHeader: knxnet.ConnHeader{Channel: channel, SeqNumber: 0},
		Payload:    body,
	}

	// Send the same DEVICE_CONFIGURATION_REQUEST twice, as a server
	// would on an unacknowledged retransmit. The receive loop hands a
	// delivery to Inbound() before it reads the next datagram, so the first
	// delivery is taken before the retransmit is sent.
	require.NoError(t, peer.conn.SetWriteDeadline(time.Now().Add(time.Second)))
	_, err = peer.conn.WriteToUDP(knxnet.Pack(frame), peer.client)
	require.NoError(t, err)
	ack1 := recvDeviceConfigRes(t, peer)
	assert.Equal(t, knxnet.ErrCodeNoError, ack1.Status)

	select {
	case msg := <-mgmt.Inbound():
		_, ok := msg.(*cemi.PropReadCon)
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("expected the first property confirmation to be delivered")
	}

	_, err = peer.conn.WriteToUDP(knxnet.Pack(frame), peer.client)
	require.NoError(t, err)
	ack2 := recvDeviceConfigRes(t, peer)
	assert.Equal(t, knxnet.ErrCodeNoError, ack2.Status)

	// Exactly one delivery despite two acked requests.
	select {
	case msg := <-mgmt.Inbound():
		t.Fatalf("duplicate request was redelivered: %v", msg)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestDeviceManagement_ReadProperty_ReportsFailure(t *testing.T) {
	peer := newFakePeer(t)

	go func() {
		req := peer.recv(t)
		connReq := req.(*knxnet.ConnReq)
		peer.reply(t, &knxnet.ConnRes{
			Channel: 1,
			Status:  knxnet.ConnResOk,
			Control: connReq.Control,
			CRD:     knxnet.CRD{ConnType: knxnet.DeviceMgmtConnection},
		})

		req = peer.recv(t)
		cfgReq := req.(*knxnet.DeviceConfigReq)
		peer.reply(t, &knxnet.DeviceConfigRes{
			ConnHeader: knxnet.ConnHeader{Channel: 1, SeqNumber: cfgReq.SeqNumber},
			Status:     knxnet.ErrCodeNoError,
		})

		readReq := &cemi.PropReadReq{}
		_, _ = readReq.Unpack(cfgReq.Payload)

		con := &cemi.PropReadCon{}
		con.InterfaceObject = readReq.InterfaceObject
		con.ObjectInstance = readReq.ObjectInstance
		con.PropertyID = readReq.PropertyID
		con.NumElements = 0
		con.StartIndex = readReq.StartIndex

		body := make([]byte, con.Size())
		con.Pack(body)

		peer.reply(t, &knxnet.DeviceConfigReq{
			ConnHeader: knxnet.ConnHeader{Channel: 1, SeqNumber: 0},
			Payload:    body,
		})

		recvDeviceConfigRes(t, peer)
		peer.recv(t)
	}()

	mgmt, err := NewDeviceManagement(peer.addr(), ManagementConfig{
		ConnectionTimeout: time.Second,
		ResponseTimeout:   time.Second,
		HeartbeatInterval: time.Hour,
	})
	require.NoError(t, err)
	defer mgmt.Close()

	_, err = mgmt.ReadProperty(0x0008, 1, 0x34, 1, 1)
	assert.Error(t, err)
}
