package knx

import "time"

// TunnelConfig configures the timeouts of a tunneling or busmonitor
// connection (C7).
type TunnelConfig struct {
	// ConnectionTimeout bounds how long open waits for CONNECT_RESPONSE.
	ConnectionTimeout time.Duration

	// ResponseTimeout bounds how long send waits for TUNNELLING_ACK, and
	// how long a heartbeat round waits for CONNECTIONSTATE_RESPONSE.
	ResponseTimeout time.Duration

	// HeartbeatInterval is the interval between CONNECTIONSTATE_REQUESTs
	// sent while the connection is open.
	HeartbeatInterval time.Duration
}

// DefaultTunnelConfig returns the configuration used when the zero value
// is passed to NewTunnel.
func DefaultTunnelConfig() TunnelConfig {
	return TunnelConfig{
		ConnectionTimeout: 10 * time.Second,
		ResponseTimeout:   10 * time.Second,
		HeartbeatInterval: 60 * time.Second,
	}
}

func (c TunnelConfig) checkDefaults() TunnelConfig {
	d := DefaultTunnelConfig()

	if c.ConnectionTimeout == 0 {
		c.ConnectionTimeout = d.ConnectionTimeout
	}
	if c.ResponseTimeout == 0 {
		c.ResponseTimeout = d.ResponseTimeout
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}

	return c
}

// ManagementConfig configures a device-management connection (C8). Its
// lifecycle timeouts mirror TunnelConfig; ResponseTimeout additionally
// bounds readProperty/writeProperty.
type ManagementConfig struct {
	ConnectionTimeout time.Duration
	ResponseTimeout   time.Duration
	HeartbeatInterval time.Duration
}

// DefaultManagementConfig returns the configuration used when the zero
// value is passed to NewDeviceManagement.
func DefaultManagementConfig() ManagementConfig {
	return ManagementConfig{
		ConnectionTimeout: 10 * time.Second,
		ResponseTimeout:   5 * time.Second,
		HeartbeatInterval: 60 * time.Second,
	}
}

func (c ManagementConfig) checkDefaults() ManagementConfig {
	d := DefaultManagementConfig()

	if c.ConnectionTimeout == 0 {
		c.ConnectionTimeout = d.ConnectionTimeout
	}
	if c.ResponseTimeout == 0 {
		c.ResponseTimeout = d.ResponseTimeout
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}

	return c
}

// RouterConfig configures a routing transport (C6).
type RouterConfig struct {
	// MulticastTTL is the TTL set on outbound multicast datagrams.
	MulticastTTL int

	// BusyResetWindow is the interval of silence after a ROUTING_BUSY
	// notification that must elapse before the busy counter resets.
	BusyResetWindow time.Duration
}

// DefaultRouterConfig returns the configuration used when the zero value
// is passed to NewRouter.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		MulticastTTL:    16,
		BusyResetWindow: 5 * time.Second,
	}
}

func (c RouterConfig) checkDefaults() RouterConfig {
	d := DefaultRouterConfig()

	if c.MulticastTTL == 0 {
		c.MulticastTTL = d.MulticastTTL
	}
	if c.BusyResetWindow == 0 {
		c.BusyResetWindow = d.BusyResetWindow
	}

	return c
}

// DiscoveryConfig configures a discovery search (C5).
type DiscoveryConfig struct {
	// SearchTimeout bounds how long Discover/DiscoverExt waits for
	// SEARCH_RESPONSE datagrams before returning what it has collected.
	SearchTimeout time.Duration
}

// DefaultDiscoveryConfig returns the configuration used when the zero
// value is passed to Discover/DiscoverExt.
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{SearchTimeout: 5 * time.Second}
}

func (c DiscoveryConfig) checkDefaults() DiscoveryConfig {
	if c.SearchTimeout == 0 {
		c.SearchTimeout = DefaultDiscoveryConfig().SearchTimeout
	}
	return c
}
