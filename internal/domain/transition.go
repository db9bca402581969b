package domain

import "errors"

type Action string

const (
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionCancel          Action = "cancel"
	ActionRequirePayment  Action = "require-payment"
	ActionPay             Action = "pay"
	ActionConfirmHandover Action = "confirm-handover"
	ActionConfirmReturn   Action = "confirm-return"
	ActionRate            Action = "rate"
)

// Actor says which party of a request may perform an action.
type Actor uint8

const (
	ActorOwner Actor = iota + 1
	ActorRequester
	ActorEither
)

type rule struct {
	from  []Phase
	to    Phase
	actor Actor
	// repeatable is false when arriving in the target phase again is an error, not a retry.
	repeatable bool
}

var transitions = map[Action]rule{
	ActionApprove:         {from: []Phase{PhasePending}, to: PhaseApproved, actor: ActorOwner, repeatable: true},
	ActionReject:          {from: []Phase{PhasePending}, to: PhaseRejected, actor: ActorOwner, repeatable: true},
	ActionCancel:          {from: []Phase{PhasePending, PhaseApproved, PhasePaid}, to: PhaseCancelled, actor: ActorEither, repeatable: true},
	ActionRequirePayment:  {from: []Phase{PhaseApproved}, to: PhaseAwaitingPayment, actor: ActorOwner, repeatable: true},
	ActionPay:             {from: []Phase{PhaseAwaitingPayment}, to: PhasePaid, actor: ActorRequester, repeatable: true},
	ActionConfirmHandover: {from: []Phase{PhaseApproved, PhasePaid}, to: PhaseHandedOver, actor: ActorRequester, repeatable: true},
	ActionConfirmReturn:   {from: []Phase{PhaseHandedOver}, to: PhaseCompleted, actor: ActorOwner, repeatable: true},
	ActionRate:            {from: []Phase{PhaseCompleted}, to: PhaseReceiptConfirmed, actor: ActorRequester},
}

var errAlreadyRated = errors.New("rating already given")

// Plan resolves action against the current phase. noop is true when the request
// already sits in the action's target phase, which makes a retried call succeed
// without touching the backend. Approve is also a no-op once the request has
// been settled, since the approval has happened.
func Plan(action Action, from Phase) (to Phase, noop bool, err error) {
	r, ok := transitions[action]
	if !ok {
		return from, false, &TransitionError{Action: action, From: from, Err: ErrInvalidTransition}
	}
	for _, p := range r.from {
		if p == from {
			return r.to, false, nil
		}
	}
	if from == r.to || (action == ActionApprove && from == PhasePaid) {
		if r.repeatable {
			return from, true, nil
		}
		return from, false, &TransitionError{Action: action, From: from, Err: errAlreadyRated}
	}
	return from, false, &TransitionError{Action: action, From: from, Err: ErrInvalidTransition}
}

// CanPerform checks that userID is the party allowed to perform action on r.
func CanPerform(action Action, r *RentalRequest, userID int32) error {
	rl, ok := transitions[action]
	if !ok {
		return ErrForbidden
	}
	switch rl.actor {
	case ActorOwner:
		if userID == r.OwnerID {
			return nil
		}
	case ActorRequester:
		if userID == r.RequesterID {
			return nil
		}
	case ActorEither:
		if r.IsParty(userID) {
			return nil
		}
	}
	return ErrForbidden
}

// ActionForStatus maps a status PATCH onto the action it expresses.
// Completion and settlement have dedicated endpoints and are not reachable this way.
func ActionForStatus(to RequestStatus) (Action, bool) {
	switch to {
	case StatusApproved:
		return ActionApprove, true
	case StatusRejected:
		return ActionReject, true
	case StatusCancelled:
		return ActionCancel, true
	case StatusAwaitingPayment:
		return ActionRequirePayment, true
	case StatusReceiptConfirmed:
		return ActionRate, true
	}
	return "", false
}
