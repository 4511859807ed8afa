package usb

import (
	"fmt"
	"sync"
	"time"

	"github.com/knxbus/knx-go/knx/cemi"
	"github.com/knxbus/knx-go/knx/util"
)

// Config configures the timeouts of a USB transport (C9).
type Config struct {
	// ResponseTimeout bounds how long ReadProperty waits for a correlating
	// M_PropRead.con frame.
	ResponseTimeout time.Duration

	// InitFrameSpacing is the delay between the frames of the open
	// sequence's init batch.
	InitFrameSpacing time.Duration
}

// DefaultConfig returns the configuration used when the zero value is
// passed to Open.
func DefaultConfig() Config {
	return Config{
		ResponseTimeout:  5 * time.Second,
		InitFrameSpacing: 100 * time.Millisecond,
	}
}

func (c Config) checkDefaults() Config {
	d := DefaultConfig()

	if c.ResponseTimeout == 0 {
		c.ResponseTimeout = d.ResponseTimeout
	}
	if c.InitFrameSpacing == 0 {
		c.InitFrameSpacing = d.InitFrameSpacing
	}

	return c
}

// DataLinkLayer selects the EMI data-link layer the interface exposes over
// PID_COMM_MODE.
type DataLinkLayer uint8

const (
	DataLinkLayerData       DataLinkLayer = 0x00
	DataLinkLayerBusmonitor DataLinkLayer = 0x01
)

const (
	commModeInterfaceObject uint16 = 0x0008
	commModeObjectInstance  uint8  = 1
	pidCommMode             uint8  = 0x34

	busAccessServiceSet  uint8 = 0x01
	featureActiveEMIType uint8 = 0x05
)

// propertyKey correlates an M_PropRead.req/M_PropWrite.req with its .con
// response explicitly, mirroring the device-management transport's
// correlation rule.
type propertyKey struct {
	interfaceObject uint16
	objectInstance  uint8
	propertyID      uint8
	startIndex      uint16
}

// Transport is a USB HID KNX interface connection (C9): cEMI frames travel
// wrapped in a USB Transfer frame, fragmented across 64-byte HID reports.
// There is no sequence counter and no acknowledgement; the interface's
// firmware handles bus-level retries on its own.
type Transport struct {
	config Config
	dev    HIDDevice
	layer  DataLinkLayer

	sendMu sync.Mutex

	waitersMu sync.Mutex
	waiters   map[propertyKey]chan cemi.Message

	inbound chan cemi.Message
	reset   chan struct{}

	done   chan struct{}
	closed sync.Once
	wg     sync.WaitGroup
}

// Open selects a USB-HID KNX interface (by path, or by vendor/product ID
// or product-string match if path is empty), opens it, and runs the C9
// open sequence: M_Reset.req, a Bus-Access-Server feature-set frame
// selecting cEMI as the active EMI, and an M_PropWrite.req of
// PID_COMM_MODE selecting layer.
func Open(manager HIDManager, path string, layer DataLinkLayer, config Config) (*Transport, error) {
	config = config.checkDefaults()

	infos, err := manager.List()
	if err != nil {
		return nil, err
	}

	info, err := selectDevice(infos, path)
	if err != nil {
		return nil, err
	}

	dev, err := manager.Open(info.Path)
	if err != nil {
		return nil, err
	}

	transport := &Transport{
		config:  config,
		dev:     dev,
		layer:   layer,
		waiters: make(map[propertyKey]chan cemi.Message),
		inbound: make(chan cemi.Message),
		reset:   make(chan struct{}),
		done:    make(chan struct{}),
	}

	transport.wg.Add(1)
	go transport.serve()

	if err := transport.runInitSequence(); err != nil {
		transport.Close()
		return nil, err
	}

	return transport, nil
}

// commModeConfirmTimeout bounds how long runInitSequence waits for the
// M_PropWrite.con confirming PID_COMM_MODE. A device that never confirms
// it doesn't fail Open; the init sequence proceeds anyway, logging a
// warning, since some interfaces apply the mode without confirming it.
const commModeConfirmTimeout = 500 * time.Millisecond

func (t *Transport) runInitSequence() error {
	spacing := t.config.InitFrameSpacing

	if err := t.sendRaw(ProtocolKNXTunnel, CEMI, packCEMI(&cemi.ResetReq{})); err != nil {
		return fmt.Errorf("usb: sending M_Reset.req: %w", err)
	}
	time.Sleep(spacing)

	featureSet := []byte{busAccessServiceSet, featureActiveEMIType, uint8(CEMI)}
	if err := t.sendRaw(ProtocolBusAccessSrv, 0, featureSet); err != nil {
		return fmt.Errorf("usb: sending feature-set frame: %w", err)
	}
	time.Sleep(spacing)

	commMode := &cemi.PropWriteReq{Data: []byte{uint8(t.layer)}}
	commMode.InterfaceObject = commModeInterfaceObject
	commMode.ObjectInstance = commModeObjectInstance
	commMode.PropertyID = pidCommMode
	commMode.NumElements = 1

	key := propertyKey{commModeInterfaceObject, commModeObjectInstance, pidCommMode, 0}
	wait := t.register(key)
	defer t.unregister(key)

	if err := t.sendRaw(ProtocolKNXTunnel, CEMI, packCEMI(commMode)); err != nil {
		return fmt.Errorf("usb: sending PID_COMM_MODE write: %w", err)
	}

	if _, err := t.awaitCorrelatedTimeout(wait, commModeConfirmTimeout); err != nil {
		util.Log(t, "no M_PropWrite.con for PID_COMM_MODE within %s, proceeding anyway: %v", commModeConfirmTimeout, err)
	}

	return nil
}

func packCEMI(msg cemi.Message) []byte {
	buffer := make([]byte, msg.Size())
	msg.Pack(buffer)
	return buffer
}

func (t *Transport) sendRaw(protocolID ProtocolID, emiID EMIID, body []byte) error {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	frame := packTransferFrame(transferFrame{ProtocolID: protocolID, EMIID: emiID, Body: body})

	for _, report := range packReports(frame) {
		if _, err := t.dev.Write(report); err != nil {
			return err
		}
	}

	return nil
}

// Send transmits a cEMI frame over the interface. Sending is rejected
// when the interface is in busmonitor mode.
func (t *Transport) Send(msg cemi.Message) error {
	if t.layer == DataLinkLayerBusmonitor {
		return fmt.Errorf("usb: cannot send while in busmonitor mode")
	}

	return t.sendRaw(ProtocolKNXTunnel, CEMI, packCEMI(msg))
}

// ReadProperty reads nElements elements of a property on the interface's
// own management object, starting at startIndex.
func (t *Transport) ReadProperty(
	interfaceObject uint16, objectInstance, propertyID, nElements uint8, startIndex uint16,
) ([]byte, error) {
	key := propertyKey{interfaceObject, objectInstance, propertyID, startIndex}

	wait := t.register(key)
	defer t.unregister(key)

	req := &cemi.PropReadReq{}
	req.InterfaceObject = interfaceObject
	req.ObjectInstance = objectInstance
	req.PropertyID = propertyID
	req.NumElements = nElements
	req.StartIndex = startIndex

	if err := t.sendRaw(ProtocolKNXTunnel, CEMI, packCEMI(req)); err != nil {
		return nil, err
	}

	msg, err := t.awaitCorrelated(wait)
	if err != nil {
		return nil, err
	}

	con, ok := msg.(*cemi.PropReadCon)
	if !ok {
		return nil, fmt.Errorf("usb: unexpected response type %T to property read", msg)
	}

	if con.Failed() {
		return nil, fmt.Errorf("usb: property read of 0x%04x/%d prop %d failed",
			interfaceObject, objectInstance, propertyID)
	}

	return con.Data, nil
}

func (t *Transport) register(key propertyKey) chan cemi.Message {
	ch := make(chan cemi.Message, 1)

	t.waitersMu.Lock()
	t.waiters[key] = ch
	t.waitersMu.Unlock()

	return ch
}

func (t *Transport) unregister(key propertyKey) {
	t.waitersMu.Lock()
	delete(t.waiters, key)
	t.waitersMu.Unlock()
}

func (t *Transport) awaitCorrelated(wait chan cemi.Message) (cemi.Message, error) {
	return t.awaitCorrelatedTimeout(wait, t.config.ResponseTimeout)
}

func (t *Transport) awaitCorrelatedTimeout(wait chan cemi.Message, d time.Duration) (cemi.Message, error) {
	timeout := time.After(d)

	select {
	case msg := <-wait:
		return msg, nil
	case <-timeout:
		return nil, fmt.Errorf("usb: timed out waiting for a response")
	case <-t.done:
		return nil, fmt.Errorf("usb: connection was closed")
	}
}

// Inbound returns the channel on which received L_Data.ind and
// L_Busmon.ind frames are delivered.
func (t *Transport) Inbound() <-chan cemi.Message { return t.inbound }

// Reset returns the channel on which the interface's M_Reset.ind
// notifications are delivered.
func (t *Transport) Reset() <-chan struct{} { return t.reset }

// Close stops the receive loop and closes the underlying HID device. It
// is idempotent.
func (t *Transport) Close() error {
	t.closed.Do(func() {
		close(t.done)
		t.dev.Close()
		t.wg.Wait()
	})

	return nil
}

func (t *Transport) serve() {
	defer t.wg.Done()
	defer close(t.inbound)
	defer close(t.reset)

	var rs reassembler
	report := make([]byte, reportSize)

	for {
		select {
		case <-t.done:
			return
		default:
		}

		n, err := t.dev.Read(report)
		if err != nil {
			util.Log(t, "error reading HID report: %v", err)
			return
		}
		if n == 0 {
			continue
		}

		body, complete, err := rs.feed(report[:n])
		if err != nil {
			util.Log(t, "error reassembling HID report: %v", err)
			continue
		}
		if !complete {
			continue
		}

		frame, err := unpackTransferFrame(body)
		if err != nil {
			util.Log(t, "error unpacking USB transfer frame: %v", err)
			continue
		}

		t.handleFrame(frame)
	}
}

func (t *Transport) handleFrame(frame transferFrame) {
	if frame.ProtocolID != ProtocolKNXTunnel || len(frame.Body) == 0 {
		return
	}

	msg, err := cemi.Unpack(frame.Body)
	if err != nil {
		util.Log(t, "error unpacking cEMI payload: %v", err)
		return
	}

	switch m := msg.(type) {
	case *cemi.LDataInd, *cemi.BusmonInd:
		select {
		case t.inbound <- msg:
		case <-t.done:
		}

	case *cemi.ResetInd:
		select {
		case t.reset <- struct{}{}:
		case <-t.done:
		}

	case *cemi.PropReadCon:
		t.correlate(m.InterfaceObject, m.ObjectInstance, m.PropertyID, m.StartIndex, m)

	case *cemi.PropWriteCon:
		t.correlate(m.InterfaceObject, m.ObjectInstance, m.PropertyID, m.StartIndex, m)
	}
}

func (t *Transport) correlate(interfaceObject uint16, objectInstance, propertyID uint8, startIndex uint16, msg cemi.Message) {
	key := propertyKey{interfaceObject, objectInstance, propertyID, startIndex}

	t.waitersMu.Lock()
	ch, ok := t.waiters[key]
	t.waitersMu.Unlock()

	if !ok {
		return
	}

	select {
	case ch <- msg:
	default:
	}
}
