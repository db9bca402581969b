package domain

import "fmt"

// Phase is the closed set of lifecycle states a rental request can be in.
type Phase uint8

const (
	PhaseUnknown Phase = iota
	PhasePending
	PhaseApproved
	PhaseAwaitingPayment
	PhasePaid
	PhaseHandedOver
	PhaseCompleted
	PhaseReceiptConfirmed
	PhaseRejected
	PhaseCancelled
)

// Phases lists every known phase in lifecycle order.
var Phases = []Phase{
	PhasePending,
	PhaseApproved,
	PhaseAwaitingPayment,
	PhasePaid,
	PhaseHandedOver,
	PhaseCompleted,
	PhaseReceiptConfirmed,
	PhaseRejected,
	PhaseCancelled,
}

var phaseNames = [...]string{
	PhaseUnknown:          "unknown",
	PhasePending:          "pending",
	PhaseApproved:         "approved",
	PhaseAwaitingPayment:  "awaiting-payment",
	PhasePaid:             "paid",
	PhaseHandedOver:       "handed-over",
	PhaseCompleted:        "completed",
	PhaseReceiptConfirmed: "receipt-confirmed",
	PhaseRejected:         "rejected",
	PhaseCancelled:        "cancelled",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Terminal phases accept no further transitions except rating a completed rental.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseRejected, PhaseCancelled, PhaseCompleted, PhaseReceiptConfirmed:
		return true
	}
	return false
}

// Reserves reports whether a request in this phase blocks its dates for other requesters.
func (p Phase) Reserves() bool {
	switch p {
	case PhaseApproved, PhaseAwaitingPayment, PhasePaid, PhaseHandedOver:
		return true
	}
	return false
}

// Occupying reports whether the item is physically with the requester.
func (p Phase) Occupying() bool {
	return p == PhaseHandedOver
}

// Status is the persisted status for a phase.
func (p Phase) Status() RequestStatus {
	switch p {
	case PhasePending:
		return StatusPending
	case PhaseApproved, PhasePaid, PhaseHandedOver:
		return StatusApproved
	case PhaseAwaitingPayment:
		return StatusAwaitingPayment
	case PhaseCompleted:
		return StatusCompleted
	case PhaseReceiptConfirmed:
		return StatusReceiptConfirmed
	case PhaseRejected:
		return StatusRejected
	case PhaseCancelled:
		return StatusCancelled
	}
	return ""
}
