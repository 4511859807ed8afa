// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import (
	"fmt"
	"sync"
	"time"

	"github.com/knxbus/knx-go/knx/cemi"
	"github.com/knxbus/knx-go/knx/knxnet"
	"github.com/knxbus/knx-go/knx/util"
)

// propertyKey correlates an M_PropRead.req/M_PropWrite.req with its
// .con response explicitly, by the property it addresses, rather than by
// "next message to arrive" -- safe when multiple property operations are
// in flight.
type propertyKey struct {
	interfaceObject uint16
	objectInstance  uint8
	propertyID      uint8
	startIndex      uint16
}

// DeviceManagement is a device-configuration connection (C8): the same
// connect/heartbeat/disconnect lifecycle as Tunnel, but the cEMI payload
// travels inside DEVICE_CONFIGURATION_REQUEST/ACK and is always a property
// frame addressed at this interface itself.
type DeviceManagement struct {
	config ManagementConfig
	sock   *knxnet.Socket

	channel uint8

	seqMu     sync.Mutex
	txSeq     uint8
	rxSeq     uint8
	rxSeqSeen bool

	sendMu sync.Mutex

	ack          chan knxnet.DeviceConfigRes
	heartbeatAck chan knxnet.ConnStateRes

	waitersMu sync.Mutex
	waiters   map[propertyKey]chan cemi.Message

	inbound chan cemi.Message
	done    chan struct{}
	closed  sync.Once
	wg      sync.WaitGroup
}

// NewDeviceManagement opens a device-management connection to address,
// which must be of the form "ip:port".
func NewDeviceManagement(address string, config ManagementConfig) (*DeviceManagement, error) {
	config = config.checkDefaults()

	sock, err := knxnet.DialManagementUDP(address)
	if err != nil {
		return nil, fmt.Errorf("knx: dialing %s: %w", address, err)
	}

	mgmt := &DeviceManagement{
		config:       config,
		sock:         sock,
		ack:          make(chan knxnet.DeviceConfigRes, 1),
		heartbeatAck: make(chan knxnet.ConnStateRes, 1),
		waiters:      make(map[propertyKey]chan cemi.Message),
		inbound:      make(chan cemi.Message),
		done:         make(chan struct{}),
	}

	if err := mgmt.connect(); err != nil {
		sock.Close()
		return nil, err
	}

	mgmt.wg.Add(2)
	go mgmt.serve()
	go mgmt.heartbeatLoop()

	return mgmt, nil
}

func (mgmt *DeviceManagement) localHostInfo() (knxnet.HostInfo, error) {
	return knxnet.HostInfoFromAddress(mgmt.sock.LocalAddr())
}

func (mgmt *DeviceManagement) connect() error {
	control, err := mgmt.localHostInfo()
	if err != nil {
		return err
	}

	req := &knxnet.ConnReq{
		Control: control,
		Data:    control,
		CRI:     knxnet.CRI{ConnType: knxnet.DeviceMgmtConnection},
	}

	if err := mgmt.sock.Send(req); err != nil {
		return err
	}

	timeout := time.After(mgmt.config.ConnectionTimeout)

	for {
		select {
		case <-timeout:
			return ErrConnectionTimeout

		case srv := <-mgmt.sock.Inbound():
			res, ok := srv.(*knxnet.ConnRes)
			if !ok {
				continue
			}

			if res.Status != knxnet.ConnResOk {
				return fmt.Errorf("%w: status 0x%02x", ErrConnectionRefused, res.Status)
			}

			mgmt.channel = res.Channel
			return nil
		}
	}
}

// sendFrame wraps msg in a DEVICE_CONFIGURATION_REQUEST and waits for its
// acknowledgement. Sends are serialised; at most one request is
// outstanding at a time.
func (mgmt *DeviceManagement) sendFrame(msg cemi.Message) error {
	mgmt.sendMu.Lock()
	defer mgmt.sendMu.Unlock()

	buffer := make([]byte, msg.Size())
	msg.Pack(buffer)

	mgmt.seqMu.Lock()
	seq := mgmt.txSeq
	mgmt.seqMu.Unlock()

	req := &knxnet.DeviceConfigReq{
		ConnHeader: knxnet.ConnHeader{Channel: mgmt.channel, SeqNumber: seq},
		Payload:    buffer,
	}

	if err := mgmt.sock.Send(req); err != nil {
		return err
	}

	timeout := time.After(mgmt.config.ResponseTimeout)

	for {
		select {
		case <-timeout:
			return ErrConnectionTimeout

		case <-mgmt.done:
			return ErrClosed

		case res := <-mgmt.ack:
			if res.SeqNumber != seq {
				continue
			}

			if res.Status != knxnet.ErrCodeNoError {
				return fmt.Errorf("knx: device configuration request rejected: status 0x%02x", res.Status)
			}

			mgmt.seqMu.Lock()
			mgmt.txSeq++
			mgmt.seqMu.Unlock()

			return nil
		}
	}
}

// ReadProperty reads nElements elements of a property starting at
// startIndex, and returns their raw value.
func (mgmt *DeviceManagement) ReadProperty(
	interfaceObject uint16, objectInstance, propertyID, nElements uint8, startIndex uint16,
) ([]byte, error) {
	key := propertyKey{interfaceObject, objectInstance, propertyID, startIndex}

	wait := mgmt.register(key)
	defer mgmt.unregister(key)

	req := &cemi.PropReadReq{}
	req.InterfaceObject = interfaceObject
	req.ObjectInstance = objectInstance
	req.PropertyID = propertyID
	req.NumElements = nElements
	req.StartIndex = startIndex

	if err := mgmt.sendFrame(req); err != nil {
		return nil, err
	}

	msg, err := mgmt.awaitCorrelated(wait)
	if err != nil {
		return nil, err
	}

	con, ok := msg.(*cemi.PropReadCon)
	if !ok {
		return nil, fmt.Errorf("knx: unexpected response type %T to property read", msg)
	}

	if con.Failed() {
		return nil, fmt.Errorf("knx: property read of 0x%04x/%d prop %d failed",
			interfaceObject, objectInstance, propertyID)
	}

	return con.Data, nil
}

// WriteProperty writes data to nElements elements of a property starting
// at startIndex.
func (mgmt *DeviceManagement) WriteProperty(
	interfaceObject uint16, objectInstance, propertyID, nElements uint8, startIndex uint16, data []byte,
) error {
	key := propertyKey{interfaceObject, objectInstance, propertyID, startIndex}

	wait := mgmt.register(key)
	defer mgmt.unregister(key)

	req := &cemi.PropWriteReq{Data: data}
	req.InterfaceObject = interfaceObject
	req.ObjectInstance = objectInstance
	req.PropertyID = propertyID
	req.NumElements = nElements
	req.StartIndex = startIndex

	if err := mgmt.sendFrame(req); err != nil {
		return err
	}

	msg, err := mgmt.awaitCorrelated(wait)
	if err != nil {
		return err
	}

	con, ok := msg.(*cemi.PropWriteCon)
	if !ok {
		return fmt.Errorf("knx: unexpected response type %T to property write", msg)
	}

	if con.Failed() {
		return fmt.Errorf("knx: property write of 0x%04x/%d prop %d failed",
			interfaceObject, objectInstance, propertyID)
	}

	return nil
}

func (mgmt *DeviceManagement) register(key propertyKey) chan cemi.Message {
	ch := make(chan cemi.Message, 1)

	mgmt.waitersMu.Lock()
	mgmt.waiters[key] = ch
	mgmt.waitersMu.Unlock()

	return ch
}

func (mgmt *DeviceManagement) unregister(key propertyKey) {
	mgmt.waitersMu.Lock()
	delete(mgmt.waiters, key)
	mgmt.waitersMu.Unlock()
}

func (mgmt *DeviceManagement) awaitCorrelated(wait chan cemi.Message) (cemi.Message, error) {
	timeout := time.After(mgmt.config.ResponseTimeout)

	select {
	case msg := <-wait:
		return msg, nil
	case <-timeout:
		return nil, ErrConnectionTimeout
	case <-mgmt.done:
		return nil, ErrClosed
	}
}

// Inbound returns the channel on which property frames that could not be
// correlated to an outstanding ReadProperty/WriteProperty call are
// delivered, e.g. late arrivals after a timeout.
func (mgmt *DeviceManagement) Inbound() <-chan cemi.Message { return mgmt.inbound }

// Close disconnects and releases the underlying socket. It is idempotent.
func (mgmt *DeviceManagement) Close() error {
	mgmt.closed.Do(func() {
		close(mgmt.done)

		if control, err := mgmt.localHostInfo(); err == nil {
			req := &knxnet.DiscReq{Channel: mgmt.channel, Control: control}
			_ = mgmt.sock.Send(req)
		}

		mgmt.wg.Wait()
		mgmt.sock.Close()
	})

	return nil
}

func (mgmt *DeviceManagement) serve() {
	defer mgmt.wg.Done()
	defer close(mgmt.inbound)

	for {
		select {
		case <-mgmt.done:
			return

		case srv, open := <-mgmt.sock.Inbound():
			if !open {
				return
			}

			switch msg := srv.(type) {
			case *knxnet.DeviceConfigReq:
				mgmt.handleRequest(msg)

			case *knxnet.DeviceConfigRes:
				if msg.Channel == mgmt.channel {
					select {
					case mgmt.ack <- *msg:
					default:
					}
				}

			case *knxnet.ConnStateReq:
				mgmt.handleHeartbeatReq(msg)

			case *knxnet.ConnStateRes:
				if msg.Channel == mgmt.channel {
					select {
					case mgmt.heartbeatAck <- *msg:
					default:
					}
				}
			}
		}
	}
}

func (mgmt *DeviceManagement) handleRequest(req *knxnet.DeviceConfigReq) {
	if req.Channel != mgmt.channel {
		return
	}

	ack := &knxnet.DeviceConfigRes{
		ConnHeader: knxnet.ConnHeader{Channel: mgmt.channel, SeqNumber: req.SeqNumber},
		Status:     knxnet.ErrCodeNoError,
	}

	if err := mgmt.sock.Send(ack); err != nil {
		util.Log(mgmt, "error acking device configuration request: %v", err)
	}

	mgmt.seqMu.Lock()
	duplicate := mgmt.rxSeqSeen && req.SeqNumber == mgmt.rxSeq
	mgmt.rxSeq = req.SeqNumber
	mgmt.rxSeqSeen = true
	mgmt.seqMu.Unlock()

	if duplicate {
		return
	}

	msg, err := cemi.Unpack(req.Payload)
	if err != nil {
		util.Log(mgmt, "error unpacking cEMI payload: %v", err)
		return
	}

	if mgmt.correlate(msg) {
		return
	}

	select {
	case mgmt.inbound <- msg:
	case <-mgmt.done:
	}
}

// correlate delivers msg to a waiting ReadProperty/WriteProperty call if
// its property identifiers match one, and reports whether it did.
func (mgmt *DeviceManagement) correlate(msg cemi.Message) bool {
	var key propertyKey

	switch con := msg.(type) {
	case *cemi.PropReadCon:
		key = propertyKey{con.InterfaceObject, con.ObjectInstance, con.PropertyID, con.StartIndex}
	case *cemi.PropWriteCon:
		key = propertyKey{con.InterfaceObject, con.ObjectInstance, con.PropertyID, con.StartIndex}
	default:
		return false
	}

	mgmt.waitersMu.Lock()
	ch, ok := mgmt.waiters[key]
	mgmt.waitersMu.Unlock()

	if !ok {
		return false
	}

	select {
	case ch <- msg:
	default:
	}

	return true
}

func (mgmt *DeviceManagement) handleHeartbeatReq(req *knxnet.ConnStateReq) {
	if req.Channel != mgmt.channel {
		return
	}

	res := &knxnet.ConnStateRes{Channel: mgmt.channel, Status: knxnet.ConnStateNormal}
	if err := mgmt.sock.Send(res); err != nil {
		util.Log(mgmt, "error acking heartbeat request: %v", err)
	}
}

func (mgmt *DeviceManagement) heartbeatLoop() {
	defer mgmt.wg.Done()

	ticker := time.NewTicker(mgmt.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-mgmt.done:
			return

		case <-ticker.C:
			if err := mgmt.sendHeartbeat(); err != nil {
				util.Log(mgmt, "heartbeat failed, closing device management connection: %v", err)
				go mgmt.Close()
				return
			}
		}
	}
}

func (mgmt *DeviceManagement) sendHeartbeat() error {
	control, err := mgmt.localHostInfo()
	if err != nil {
		return err
	}

	req := &knxnet.ConnStateReq{Channel: mgmt.channel, Control: control}
	if err := mgmt.sock.Send(req); err != nil {
		return err
	}

	timeout := time.After(mgmt.config.ResponseTimeout)

	select {
	case <-timeout:
		return ErrConnectionTimeout

	case <-mgmt.done:
		return ErrClosed

	case res := <-mgmt.heartbeatAck:
		if res.Status != knxnet.ConnStateNormal {
			return fmt.Errorf("%w: status 0x%02x", ErrConnectionLost, res.Status)
		}
		return nil
	}
}
