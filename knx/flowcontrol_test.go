package knx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoutingFlowControl_NextDelay_ScalesWithBusyCounter(t *testing.T) {
	fc := NewRoutingFlowControl()

	d1 := fc.NextDelay(RoutingBusy{WaitTime: 100, BusyCounter: 1})
	d5 := fc.NextDelay(RoutingBusy{WaitTime: 100, BusyCounter: 5})

	assert.GreaterOrEqual(t, d1, 100*time.Millisecond)
	assert.GreaterOrEqual(t, d5, 500*time.Millisecond)
}

func TestRoutingFlowControl_Throttle_ReturnsEarlyOnDone(t *testing.T) {
	fc := NewRoutingFlowControl()
	done := make(chan struct{})
	close(done)

	start := time.Now()
	fc.Throttle(RoutingBusy{WaitTime: 10000, BusyCounter: 10}, done)
	assert.Less(t, time.Since(start), time.Second)
}
