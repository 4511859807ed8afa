package knx

import (
	"net"
	"testing"
	"time"

	"github.com/knxbus/knx-go/knx/cemi"
	"github.com/knxbus/knx-go/knx/knxnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freeUDPPort picks an ephemeral UDP port by briefly binding to it.
func freeUDPPort(t *testing.T) int {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{})
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	conn.Close()
	return port
}

func TestRouter_SendAndReceive(t *testing.T) {
	port := freeUDPPort(t)
	group := &net.UDPAddr{IP: net.IPv4(224, 0, 23, 12), Port: port}

	peer, err := net.ListenMulticastUDP("udp4", nil, group)
	require.NoError(t, err)
	defer peer.Close()

	router, err := NewRouter(group.String(), RouterConfig{})
	require.NoError(t, err)
	defer router.Close()

	msg := &cemi.LDataReq{LData: cemi.LData{
		Control1: cemi.Control1StdFrame,
		Control2: cemi.Control2GroupAddr | cemi.Control2Hops(6),
		Data:     &cemi.AppData{Command: cemi.GroupValueWrite, Data: []byte{1}},
	}}
	require.NoError(t, router.Send(msg))

	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	buffer := make([]byte, 2048)
	n, _, err := peer.ReadFromUDP(buffer)
	require.NoError(t, err)

	h, payload, err := knxnet.Unpack(buffer[:n])
	require.NoError(t, err)
	assert.Equal(t, knxnet.RoutingIndService, h.Service)

	var ind knxnet.RoutingInd
	_, err = ind.Unpack(payload)
	require.NoError(t, err)

	got, err := cemi.Unpack(ind.Payload)
	require.NoError(t, err)
	gotReq, ok := got.(*cemi.LDataReq)
	require.True(t, ok)
	assert.Equal(t, msg.Control2, gotReq.Control2)
}

func TestRouter_DropsZeroHopCountFrame(t *testing.T) {
	port := freeUDPPort(t)
	group := &net.UDPAddr{IP: net.IPv4(224, 0, 23, 12), Port: port}

	peer, err := net.ListenMulticastUDP("udp4", nil, group)
	require.NoError(t, err)
	defer peer.Close()

	router, err := NewRouter(group.String(), RouterConfig{})
	require.NoError(t, err)
	defer router.Close()

	msg := &cemi.LDataInd{LData: cemi.LData{
		Control1: cemi.Control1StdFrame,
		Control2: cemi.Control2GroupAddr, // hop count 0
		Data:     &cemi.AppData{Command: cemi.GroupValueWrite, Data: []byte{1}},
	}}
	body := make([]byte, msg.Size())
	msg.Pack(body)

	require.NoError(t, peer.SetWriteDeadline(time.Now().Add(time.Second)))
	_, err = peer.WriteToUDP(knxnet.Pack(&knxnet.RoutingInd{Payload: body}), group)
	require.NoError(t, err)

	select {
	case <-router.Inbound():
		t.Fatal("zero hop-count frame should have been dropped")
	case <-time.After(300 * time.Millisecond):
	}
}
