package usb

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/knxbus/knx-go/knx/cemi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	mu      sync.Mutex
	writes  [][]byte
	in      chan []byte
	closeMu sync.Once
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{in: make(chan []byte, 16)}
}

func (d *fakeDevice) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := make([]byte, len(p))
	copy(cp, p)
	d.writes = append(d.writes, cp)
	return len(p), nil
}

func (d *fakeDevice) Read(p []byte) (int, error) {
	report, ok := <-d.in
	if !ok {
		return 0, io.EOF
	}
	return copy(p, report), nil
}

func (d *fakeDevice) Close() error {
	d.closeMu.Do(func() { close(d.in) })
	return nil
}

func (d *fakeDevice) feed(report []byte) { d.in <- report }

func (d *fakeDevice) writeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.writes)
}

type fakeManager struct {
	infos []HIDInfo
	dev   *fakeDevice
}

func (m *fakeManager) List() ([]HIDInfo, error) { return m.infos, nil }
func (m *fakeManager) Open(path string) (HIDDevice, error) { return m.dev, nil }

func openTestTransport(t *testing.T) (*Transport, *fakeDevice) {
	dev := newFakeDevice()
	manager := &fakeManager{
		infos: []HIDInfo{{Path: "x", Product: "Test KNX Interface"}},
		dev:   dev,
	}

	transport, err := Open(manager, "", DataLinkLayerData, Config{InitFrameSpacing: time.Millisecond})
	require.NoError(t, err)

	t.Cleanup(func() { transport.Close() })

	return transport, dev
}

func TestOpen_SendsInitBatch(t *testing.T) {
	_, dev := openTestTransport(t)

	assert.Equal(t, 3, dev.writeCount())
}

func TestOpen_ProceedsWithoutCommModeConfirmation(t *testing.T) {
	dev := newFakeDevice()
	manager := &fakeManager{
		infos: []HIDInfo{{Path: "x", Product: "Test KNX Interface"}},
		dev:   dev,
	}

	start := time.Now()
	transport, err := Open(manager, "", DataLinkLayerData, Config{InitFrameSpacing: time.Millisecond})
	require.NoError(t, err)
	defer transport.Close()

	assert.GreaterOrEqual(t, time.Since(start), commModeConfirmTimeout)
}

func TestOpen_ReturnsAsSoonAsCommModeConfirmed(t *testing.T) {
	dev := newFakeDevice()
	manager := &fakeManager{
		infos: []HIDInfo{{Path: "x", Product: "Test KNX Interface"}},
		dev:   dev,
	}

	go func() {
		// Give runInitSequence time to register its PID_COMM_MODE waiter
		// (after the Reset/feature-set frames and their InitFrameSpacing
		// delays) before the confirmation arrives.
		time.Sleep(20 * time.Millisecond)

		con := &cemi.PropWriteCon{}
		con.InterfaceObject = commModeInterfaceObject
		con.ObjectInstance = commModeObjectInstance
		con.PropertyID = pidCommMode
		con.NumElements = 1

		body := make([]byte, con.Size())
		con.Pack(body)

		frame := packTransferFrame(transferFrame{ProtocolID: ProtocolKNXTunnel, EMIID: CEMI, Body: body})
		for _, report := range packReports(frame) {
			dev.feed(report)
		}
	}()

	start := time.Now()
	transport, err := Open(manager, "", DataLinkLayerData, Config{InitFrameSpacing: time.Millisecond})
	require.NoError(t, err)
	defer transport.Close()

	assert.Less(t, time.Since(start), commModeConfirmTimeout)
}

func TestTransport_Send_WritesReport(t *testing.T) {
	transport, dev := openTestTransport(t)

	before := dev.writeCount()

	msg := &cemi.LDataReq{LData: cemi.LData{
		Control1: cemi.Control1StdFrame,
		Control2: cemi.Control2GroupAddr | cemi.Control2Hops(6),
		Data:     &cemi.AppData{Command: cemi.GroupValueWrite, Data: []byte{1}},
	}}

	require.NoError(t, transport.Send(msg))
	assert.Equal(t, before+1, dev.writeCount())
}

func TestTransport_Send_RejectedInBusmonitorMode(t *testing.T) {
	dev := newFakeDevice()
	manager := &fakeManager{
		infos: []HIDInfo{{Path: "x", Product: "Test KNX Interface"}},
		dev:   dev,
	}

	transport, err := Open(manager, "", DataLinkLayerBusmonitor, Config{InitFrameSpacing: time.Millisecond})
	require.NoError(t, err)
	defer transport.Close()

	err = transport.Send(&cemi.LDataReq{})
	assert.Error(t, err)
}

func TestTransport_Inbound_DeliversReceivedFrame(t *testing.T) {
	transport, dev := openTestTransport(t)

	ind := &cemi.LDataInd{LData: cemi.LData{
		Control1: cemi.Control1StdFrame,
		Control2: cemi.Control2GroupAddr | cemi.Control2Hops(6),
		Data:     &cemi.AppData{Command: cemi.GroupValueWrite, Data: []byte{1}},
	}}

	body := make([]byte, ind.Size())
	ind.Pack(body)

	frame := packTransferFrame(transferFrame{ProtocolID: ProtocolKNXTunnel, EMIID: CEMI, Body: body})
	reports := packReports(frame)
	require.Len(t, reports, 1)

	dev.feed(reports[0])

	select {
	case msg := <-transport.Inbound():
		got, ok := msg.(*cemi.LDataInd)
		require.True(t, ok)
		assert.Equal(t, ind.Destination, got.Destination)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for inbound frame")
	}
}
