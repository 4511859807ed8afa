package knx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTunnelConfig_CheckDefaults_FillsZeroFields(t *testing.T) {
	c := TunnelConfig{ResponseTimeout: 2 * time.Second}
	got := c.checkDefaults()

	assert.Equal(t, 2*time.Second, got.ResponseTimeout)
	assert.Equal(t, DefaultTunnelConfig().ConnectionTimeout, got.ConnectionTimeout)
	assert.Equal(t, DefaultTunnelConfig().HeartbeatInterval, got.HeartbeatInterval)
}

func TestManagementConfig_DefaultResponseTimeout_IsFiveSeconds(t *testing.T) {
	assert.Equal(t, 5*time.Second, DefaultManagementConfig().ResponseTimeout)
}

func TestRouterConfig_CheckDefaults(t *testing.T) {
	c := RouterConfig{}.checkDefaults()
	assert.Equal(t, 16, c.MulticastTTL)
	assert.Equal(t, 5*time.Second, c.BusyResetWindow)
}

func TestDiscoveryConfig_CheckDefaults(t *testing.T) {
	c := DiscoveryConfig{}.checkDefaults()
	assert.Equal(t, 5*time.Second, c.SearchTimeout)
}
