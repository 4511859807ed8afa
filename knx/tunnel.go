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

// Tunnel is a connection-oriented KNXnet/IP tunnelling or busmonitor
// connection (C7): sends are serialised and acknowledged one at a time,
// inbound requests are acknowledged before being delivered, and a
// heartbeat keeps the connection alive.
type Tunnel struct {
	config TunnelConfig
	sock   *knxnet.Socket
	layer  knxnet.TunnelLayer

	channel      uint8
	dataEndpoint knxnet.HostInfo
	source       cemi.IndividualAddr

	seqMu     sync.Mutex
	txSeq     uint8
	rxSeq     uint8
	rxSeqSeen bool

	sendMu sync.Mutex

	ack          chan knxnet.TunnelRes
	heartbeatAck chan knxnet.ConnStateRes

	inbound chan cemi.Message
	done    chan struct{}
	closed  sync.Once
	wg      sync.WaitGroup
}

// NewTunnel opens a tunnelling or busmonitor connection to address, which
// must be of the form "ip:port". layer selects the KNX layer exposed by
// the connection.
func NewTunnel(address string, layer knxnet.TunnelLayer, config TunnelConfig) (*Tunnel, error) {
	config = config.checkDefaults()

	sock, err := knxnet.DialTunnelUDP(address)
	if err != nil {
		return nil, fmt.Errorf("knx: dialing %s: %w", address, err)
	}

	tunnel := &Tunnel{
		config:       config,
		sock:         sock,
		layer:        layer,
		ack:          make(chan knxnet.TunnelRes, 1),
		heartbeatAck: make(chan knxnet.ConnStateRes, 1),
		inbound:      make(chan cemi.Message),
		done:         make(chan struct{}),
	}

	if err := tunnel.connect(); err != nil {
		sock.Close()
		return nil, err
	}

	tunnel.wg.Add(2)
	go tunnel.serve()
	go tunnel.heartbeatLoop()

	return tunnel, nil
}

func (tunnel *Tunnel) localHostInfo() (knxnet.HostInfo, error) {
	return knxnet.HostInfoFromAddress(tunnel.sock.LocalAddr())
}

// connect runs the CONNECT_REQUEST/RESPONSE exchange. It must only be
// called once, before the receive loop and heartbeat goroutines start.
func (tunnel *Tunnel) connect() error {
	control, err := tunnel.localHostInfo()
	if err != nil {
		return err
	}

	req := &knxnet.ConnReq{
		Control: control,
		Data:    control,
		CRI:     knxnet.CRI{ConnType: knxnet.TunnelConnection, Layer: tunnel.layer},
	}

	if err := tunnel.sock.Send(req); err != nil {
		return err
	}

	timeout := time.After(tunnel.config.ConnectionTimeout)

	for {
		select {
		case <-timeout:
			return ErrConnectionTimeout

		case srv := <-tunnel.sock.Inbound():
			res, ok := srv.(*knxnet.ConnRes)
			if !ok {
				continue
			}

			if res.Status != knxnet.ConnResOk {
				return fmt.Errorf("%w: status 0x%02x", ErrConnectionRefused, res.Status)
			}

			tunnel.channel = res.Channel
			tunnel.source = cemi.IndividualAddr(res.CRD.TunnelAddress)
			tunnel.dataEndpoint = res.Control

			if tunnel.dataEndpoint.IsZero() {
				if hi, err := knxnet.HostInfoFromAddress(tunnel.sock.RemoteAddr()); err == nil {
					tunnel.dataEndpoint = hi
				}
			}

			return nil
		}
	}
}

// Send transmits a cEMI frame over the tunnel and waits for it to be
// acknowledged. Sends are serialised; at most one request is outstanding
// at a time.
func (tunnel *Tunnel) Send(msg cemi.Message) error {
	if tunnel.layer == knxnet.TunnelLayerBusmonitor {
		return ErrInvalidMode
	}

	tunnel.sendMu.Lock()
	defer tunnel.sendMu.Unlock()

	buffer := make([]byte, msg.Size())
	msg.Pack(buffer)

	tunnel.seqMu.Lock()
	seq := tunnel.txSeq
	tunnel.seqMu.Unlock()

	req := &knxnet.TunnelReq{
		ConnHeader: knxnet.ConnHeader{Channel: tunnel.channel, SeqNumber: seq},
		Payload:    buffer,
	}

	if err := tunnel.sock.Send(req); err != nil {
		return err
	}

	timeout := time.After(tunnel.config.ResponseTimeout)

	for {
		select {
		case <-timeout:
			return ErrConnectionTimeout

		case <-tunnel.done:
			return ErrClosed

		case res := <-tunnel.ack:
			if res.SeqNumber != seq {
				continue
			}

			if res.Status != knxnet.ErrCodeNoError {
				return fmt.Errorf("knx: tunnelling request rejected: status 0x%02x", res.Status)
			}

			tunnel.seqMu.Lock()
			tunnel.txSeq++
			tunnel.seqMu.Unlock()

			return nil
		}
	}
}

// Inbound returns the channel on which accepted cEMI frames are
// delivered. It is closed once the tunnel's receive loop stops.
func (tunnel *Tunnel) Inbound() <-chan cemi.Message { return tunnel.inbound }

// SourceAddr returns the individual address the server assigned to this
// tunnelling connection.
func (tunnel *Tunnel) SourceAddr() cemi.IndividualAddr { return tunnel.source }

// Close disconnects the tunnel and releases its socket. It is idempotent.
func (tunnel *Tunnel) Close() error {
	tunnel.closed.Do(func() {
		close(tunnel.done)

		if control, err := tunnel.localHostInfo(); err == nil {
			req := &knxnet.DiscReq{Channel: tunnel.channel, Control: control}
			_ = tunnel.sock.Send(req)
		}

		tunnel.wg.Wait()
		tunnel.sock.Close()
	})

	return nil
}

func (tunnel *Tunnel) serve() {
	defer tunnel.wg.Done()
	defer close(tunnel.inbound)

	for {
		select {
		case <-tunnel.done:
			return

		case srv, open := <-tunnel.sock.Inbound():
			if !open {
				return
			}

			switch msg := srv.(type) {
			case *knxnet.TunnelReq:
				tunnel.handleRequest(msg)

			case *knxnet.TunnelRes:
				if msg.Channel == tunnel.channel {
					select {
					case tunnel.ack <- *msg:
					default:
					}
				}

			case *knxnet.ConnStateReq:
				tunnel.handleHeartbeatReq(msg)

			case *knxnet.ConnStateRes:
				if msg.Channel == tunnel.channel {
					select {
					case tunnel.heartbeatAck <- *msg:
					default:
					}
				}
			}
		}
	}
}

// handleRequest acknowledges an inbound TUNNELLING_REQUEST before
// delivering its cEMI payload, and drops it if its sequence number
// duplicates the last one accepted.
func (tunnel *Tunnel) handleRequest(req *knxnet.TunnelReq) {
	if req.Channel != tunnel.channel {
		return
	}

	ack := &knxnet.TunnelRes{
		ConnHeader: knxnet.ConnHeader{Channel: tunnel.channel, SeqNumber: req.SeqNumber},
		Status:     knxnet.ErrCodeNoError,
	}

	if err := tunnel.sock.Send(ack); err != nil {
		util.Log(tunnel, "error acking tunnelling request: %v", err)
	}

	tunnel.seqMu.Lock()
	duplicate := tunnel.rxSeqSeen && req.SeqNumber == tunnel.rxSeq
	tunnel.rxSeq = req.SeqNumber
	tunnel.rxSeqSeen = true
	tunnel.seqMu.Unlock()

	if duplicate {
		return
	}

	msg, err := cemi.Unpack(req.Payload)
	if err != nil {
		util.Log(tunnel, "error unpacking cEMI payload: %v", err)
		return
	}

	select {
	case tunnel.inbound <- msg:
	case <-tunnel.done:
	}
}

func (tunnel *Tunnel) handleHeartbeatReq(req *knxnet.ConnStateReq) {
	if req.Channel != tunnel.channel {
		return
	}

	res := &knxnet.ConnStateRes{Channel: tunnel.channel, Status: knxnet.ConnStateNormal}
	if err := tunnel.sock.Send(res); err != nil {
		util.Log(tunnel, "error acking heartbeat request: %v", err)
	}
}

func (tunnel *Tunnel) heartbeatLoop() {
	defer tunnel.wg.Done()

	ticker := time.NewTicker(tunnel.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-tunnel.done:
			return

		case <-ticker.C:
			if err := tunnel.sendHeartbeat(); err != nil {
				util.Log(tunnel, "heartbeat failed, closing tunnel: %v", err)
				go tunnel.Close()
				return
			}
		}
	}
}

func (tunnel *Tunnel) sendHeartbeat() error {
	control, err := tunnel.localHostInfo()
	if err != nil {
		return err
	}

	req := &knxnet.ConnStateReq{Channel: tunnel.channel, Control: control}
	if err := tunnel.sock.Send(req); err != nil {
		return err
	}

	timeout := time.After(tunnel.config.ResponseTimeout)

	select {
	case <-timeout:
		return ErrConnectionTimeout

	case <-tunnel.done:
		return ErrClosed

	case res := <-tunnel.heartbeatAck:
		if res.Status != knxnet.ConnStateNormal {
			return fmt.Errorf("%w: status 0x%02x", ErrConnectionLost, res.Status)
		}
		return nil
	}
}
