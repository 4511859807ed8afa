// Licensed under the MIT license which can be found in the LICENSE file.

package knx

import (
	"sync"
	"time"

	"github.com/knxbus/knx-go/knx/cemi"
	"github.com/knxbus/knx-go/knx/knxnet"
	"github.com/knxbus/knx-go/knx/util"
)

// RoutingLostMessage is delivered on Router.LostMessages when the peer
// reports that it had to discard frames because its queue overflowed.
type RoutingLostMessage struct {
	DeviceState uint8
	LostCount   uint16
}

// RoutingBusy is delivered on Router.Busy when a peer asks senders to
// slow down.
type RoutingBusy struct {
	DeviceState  uint8
	WaitTime     uint16
	ControlField uint16

	// BusyCounter is the number of ROUTING_BUSY notifications observed
	// since the busy counter last reset.
	BusyCounter uint
}

// Router is a stateless UDP multicast transport (C6): it multicasts
// outbound cEMI frames as ROUTING_INDICATION and delivers inbound ones,
// with no acknowledgement and no retry. Frames whose hop-count is zero
// are dropped rather than delivered, per the "don't route" rule.
type Router struct {
	config RouterConfig
	sock   *knxnet.Socket

	inbound      chan cemi.Message
	lostMessages chan RoutingLostMessage
	busy         chan RoutingBusy

	busyMu      sync.Mutex
	busyCounter uint
	busyTimer   *time.Timer

	done chan struct{}
	closed sync.Once
	wg   sync.WaitGroup
}

// NewRouter opens a routing transport on the given multicast group (e.g.
// "224.0.23.12:3671").
func NewRouter(multicastAddress string, config RouterConfig) (*Router, error) {
	config = config.checkDefaults()

	sock, err := knxnet.DialRouterUDP(multicastAddress, config.MulticastTTL)
	if err != nil {
		return nil, err
	}

	router := &Router{
		config:       config,
		sock:         sock,
		inbound:      make(chan cemi.Message),
		lostMessages: make(chan RoutingLostMessage),
		busy:         make(chan RoutingBusy),
		done:         make(chan struct{}),
	}

	router.wg.Add(1)
	go router.serve()

	return router, nil
}

// Send multicasts msg as a ROUTING_INDICATION. There is no acknowledgement
// and no retry.
func (router *Router) Send(msg cemi.Message) error {
	buffer := make([]byte, msg.Size())
	msg.Pack(buffer)

	return router.sock.Send(&knxnet.RoutingInd{Payload: buffer})
}

// Inbound returns the channel on which accepted cEMI frames (those with a
// non-zero hop-count) are delivered.
func (router *Router) Inbound() <-chan cemi.Message { return router.inbound }

// LostMessages returns the channel on which ROUTING_LOST_MESSAGE
// notifications are delivered.
func (router *Router) LostMessages() <-chan RoutingLostMessage { return router.lostMessages }

// Busy returns the channel on which ROUTING_BUSY notifications are
// delivered.
func (router *Router) Busy() <-chan RoutingBusy { return router.busy }

// Close stops the receive loop and releases the socket.
func (router *Router) Close() error {
	router.closed.Do(func() {
		close(router.done)
		router.wg.Wait()
		router.sock.Close()
	})

	return nil
}

func (router *Router) serve() {
	defer router.wg.Done()
	defer close(router.inbound)
	defer close(router.lostMessages)
	defer close(router.busy)

	for {
		select {
		case <-router.done:
			return

		case srv, open := <-router.sock.Inbound():
			if !open {
				return
			}

			switch msg := srv.(type) {
			case *knxnet.RoutingInd:
				router.handleIndication(msg)

			case *knxnet.RoutingLostMessage:
				router.deliverLostMessage(RoutingLostMessage{
					DeviceState: msg.DeviceState,
					LostCount:   msg.LostCount,
				})

			case *knxnet.RoutingBusy:
				router.handleBusy(msg)
			}
		}
	}
}

// hopCounter is satisfied by every L_Data.* message, whose HopCount method
// is promoted from the embedded cemi.LData.
type hopCounter interface {
	HopCount() uint8
}

func (router *Router) handleIndication(ind *knxnet.RoutingInd) {
	msg, err := cemi.Unpack(ind.Payload)
	if err != nil {
		util.Log(router, "error unpacking routed cEMI frame: %v", err)
		return
	}

	if hc, ok := msg.(hopCounter); ok && hc.HopCount() == 0 {
		return
	}

	select {
	case router.inbound <- msg:
	case <-router.done:
	}
}

func (router *Router) handleBusy(msg *knxnet.RoutingBusy) {
	router.busyMu.Lock()
	router.busyCounter++
	count := router.busyCounter

	if router.busyTimer != nil {
		router.busyTimer.Stop()
	}
	router.busyTimer = time.AfterFunc(router.config.BusyResetWindow, router.resetBusyCounter)
	router.busyMu.Unlock()

	select {
	case router.busy <- RoutingBusy{
		DeviceState:  msg.DeviceState,
		WaitTime:     msg.WaitTime,
		ControlField: msg.ControlField,
		BusyCounter:  count,
	}:
	case <-router.done:
	}
}

func (router *Router) resetBusyCounter() {
	router.busyMu.Lock()
	router.busyCounter = 0
	router.busyMu.Unlock()
}

func (router *Router) deliverLostMessage(msg RoutingLostMessage) {
	select {
	case router.lostMessages <- msg:
	case <-router.done:
	}
}
