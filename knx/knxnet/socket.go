// Licensed under the MIT license which can be found in the LICENSE file.

package knxnet

import (
	"fmt"
	"net"
	"sync"

	"golang.org/x/net/ipv4"

	"github.com/knxbus/knx-go/knx/util"
)

// DefaultPort is the UDP port every KNXnet/IP server listens on.
const DefaultPort = 3671

// MulticastAddress is the multicast group used for discovery and routing.
const MulticastAddress = "224.0.23.12"

// unpackableService is a Service that can also initialize itself from a
// received datagram's payload.
type unpackableService interface {
	Service
	Unpack(data []byte) (n uint, err error)
}

// unpackService parses a full KNXnet/IP datagram (envelope + payload) and
// returns the concrete Service it carries. It returns a nil Service,
// without error, for a service type this library does not implement --
// such datagrams are dropped silently, per the "UnknownServiceType" policy.
func unpackService(data []byte) (Service, error) {
	var h Header

	n, err := h.Unpack(data)
	if err != nil {
		return nil, err
	}

	payload := data[n:h.TotalLength]

	var target unpackableService

	switch h.Service {
	case SearchReqService:
		target = &SearchReq{}
	case SearchResService:
		target = &SearchRes{}
	case SearchReqExtService:
		target = &SearchReqExt{}
	case SearchResExtService:
		target = &SearchResExt{}
	case DescriptionReqService:
		target = &DescriptionReq{}
	case DescriptionResService:
		target = &DescriptionRes{}
	case ConnReqService:
		target = &ConnReq{}
	case ConnResService:
		target = &ConnRes{}
	case ConnStateReqService:
		target = &ConnStateReq{}
	case ConnStateResService:
		target = &ConnStateRes{}
	case DiscReqService:
		target = &DiscReq{}
	case DiscResService:
		target = &DiscRes{}
	case DeviceConfigReqService:
		target = &DeviceConfigReq{}
	case DeviceConfigResService:
		target = &DeviceConfigRes{}
	case TunnelReqService:
		target = &TunnelReq{}
	case TunnelResService:
		target = &TunnelRes{}
	case RoutingIndService:
		target = &RoutingInd{}
	case RoutingLostService:
		target = &RoutingLostMessage{}
	case RoutingBusyService:
		target = &RoutingBusy{}
	default:
		return nil, nil
	}

	if _, err := target.Unpack(payload); err != nil {
		return nil, err
	}

	return target, nil
}

// Socket is a KNXnet/IP UDP endpoint: it owns one UDP connection, decodes
// every inbound datagram into a Service and delivers it on Inbound, and
// packs outbound Services into datagrams sent through sendTo.
type Socket struct {
	conn   *net.UDPConn
	sendTo func([]byte) (int, error)
	pconn  *ipv4.PacketConn

	inbound chan Service
	done    chan struct{}
	closed  sync.Once
	wg      sync.WaitGroup
}

func newSocket(conn *net.UDPConn, sendTo func([]byte) (int, error)) *Socket {
	sock := &Socket{
		conn:    conn,
		sendTo:  sendTo,
		inbound: make(chan Service),
		done:    make(chan struct{}),
	}

	sock.wg.Add(1)
	go sock.serve()

	return sock
}

func (sock *Socket) serve() {
	defer sock.wg.Done()
	defer close(sock.inbound)

	buffer := make([]byte, 2048)

	for {
		n, _, err := sock.conn.ReadFromUDP(buffer)
		if err != nil {
			select {
			case <-sock.done:
			default:
				util.Log(sock, "Error while reading from socket: %v", err)
			}
			return
		}

		srv, err := unpackService(buffer[:n])
		if err != nil {
			util.Log(sock, "Error while unpacking inbound datagram: %v", err)
			continue
		}

		if srv == nil {
			continue
		}

		select {
		case sock.inbound <- srv:
		case <-sock.done:
			return
		}
	}
}

// LocalAddr returns the socket's local UDP address.
func (sock *Socket) LocalAddr() net.Addr { return sock.conn.LocalAddr() }

// RemoteAddr returns the address a connected socket (one opened with
// DialTunnelUDP or DialManagementUDP) sends to. It is nil for sockets
// opened with DialRouterUDP or Listen, which are not connected to a
// single peer.
func (sock *Socket) RemoteAddr() net.Addr { return sock.conn.RemoteAddr() }

// Send packs srv into a datagram and transmits it.
func (sock *Socket) Send(srv Service) error {
	_, err := sock.sendTo(Pack(srv))
	return err
}

// Inbound returns the channel on which decoded Services are delivered.
// It is closed once the receive loop stops, which happens after Close.
func (sock *Socket) Inbound() <-chan Service { return sock.inbound }

// Close stops the receive loop and releases the underlying UDP connection.
func (sock *Socket) Close() error {
	var err error

	sock.closed.Do(func() {
		close(sock.done)
		err = sock.conn.Close()
		sock.wg.Wait()
	})

	return err
}

// DialTunnelUDP opens a UDP socket connected to address, for use by the
// tunnelling transport.
func DialTunnelUDP(address string) (*Socket, error) {
	raddr, err := net.ResolveUDPAddr("udp4", address)
	if err != nil {
		return nil, err
	}

	conn, err := net.DialUDP("udp4", nil, raddr)
	if err != nil {
		return nil, err
	}

	return newSocket(conn, conn.Write), nil
}

// DialManagementUDP opens a UDP socket connected to address, for use by
// the device-management transport. The wire mechanics are identical to
// DialTunnelUDP; the separate name documents which transport owns the
// socket.
func DialManagementUDP(address string) (*Socket, error) {
	return DialTunnelUDP(address)
}

// DialRouterUDP opens a UDP socket bound to the routing port, joins the
// given multicast group, and sets the multicast TTL.
func DialRouterUDP(multicastAddr string, ttl int) (*Socket, error) {
	group, err := net.ResolveUDPAddr("udp4", multicastAddr)
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: group.Port})
	if err != nil {
		return nil, err
	}

	pconn := ipv4.NewPacketConn(conn)

	if err := pconn.JoinGroup(nil, &net.UDPAddr{IP: group.IP}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("knxnet: joining multicast group %s: %w", multicastAddr, err)
	}

	if err := pconn.SetMulticastTTL(ttl); err != nil {
		conn.Close()
		return nil, fmt.Errorf("knxnet: setting multicast TTL: %w", err)
	}

	sock := newSocket(conn, func(b []byte) (int, error) { return conn.WriteToUDP(b, group) })
	sock.pconn = pconn

	return sock, nil
}

// Listen opens a UDP socket bound to localAddress (typically an ephemeral
// port, ":0") whose Send transmits to the discovery multicast group. It is
// used by the discovery component for the duration of a single search.
func Listen(localAddress string) (*Socket, error) {
	laddr, err := net.ResolveUDPAddr("udp4", localAddress)
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return nil, err
	}

	group, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", MulticastAddress, DefaultPort))
	if err != nil {
		conn.Close()
		return nil, err
	}

	return newSocket(conn, func(b []byte) (int, error) { return conn.WriteToUDP(b, group) }), nil
}
