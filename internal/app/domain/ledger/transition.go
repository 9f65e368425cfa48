package ledger

// SettlementEvent is the reconciler's view of a provider callback.
type SettlementEvent string

const (
	EventChargeSucceeded SettlementEvent = "charge.success"
	EventChargeFailed    SettlementEvent = "charge.failed"
)

// Next is the pure settlement transition. It returns the status a
// transaction should move to and whether any move is allowed. Terminal
// states absorb every event, so duplicate or out-of-order deliveries
// collapse to no-ops.
func Next(current Status, event SettlementEvent) (Status, bool) {
	if current != StatusPending {
		return current, false
	}
	switch event {
	case EventChargeSucceeded:
		return StatusCompleted, true
	case EventChargeFailed:
		return StatusFailed, true
	default:
		return current, false
	}
}
