package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextFromPending(t *testing.T) {
	next, ok := Next(StatusPending, EventChargeSucceeded)
	assert.True(t, ok)
	assert.Equal(t, StatusCompleted, next)

	next, ok = Next(StatusPending, EventChargeFailed)
	assert.True(t, ok)
	assert.Equal(t, StatusFailed, next)

	next, ok = Next(StatusPending, SettlementEvent("subscription.create"))
	assert.False(t, ok)
	assert.Equal(t, StatusPending, next)
}

func TestNextTerminalStatesAbsorb(t *testing.T) {
	for _, current := range []Status{StatusCompleted, StatusFailed} {
		for _, event := range []SettlementEvent{EventChargeSucceeded, EventChargeFailed} {
			next, ok := Next(current, event)
			assert.False(t, ok, "status %s event %s", current, event)
			assert.Equal(t, current, next)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
}
