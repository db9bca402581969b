package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_Table(t *testing.T) {
	type outcome struct {
		to   Phase
		noop bool
	}
	// Every (action, phase) pair not listed here must be rejected.
	allowed := map[Action]map[Phase]outcome{
		ActionApprove: {
			PhasePending:  {PhaseApproved, false},
			PhaseApproved: {PhaseApproved, true},
			PhasePaid:     {PhasePaid, true},
		},
		ActionReject: {
			PhasePending:  {PhaseRejected, false},
			PhaseRejected: {PhaseRejected, true},
		},
		ActionCancel: {
			PhasePending:   {PhaseCancelled, false},
			PhaseApproved:  {PhaseCancelled, false},
			PhasePaid:      {PhaseCancelled, false},
			PhaseCancelled: {PhaseCancelled, true},
		},
		ActionRequirePayment: {
			PhaseApproved:        {PhaseAwaitingPayment, false},
			PhaseAwaitingPayment: {PhaseAwaitingPayment, true},
		},
		ActionPay: {
			PhaseAwaitingPayment: {PhasePaid, false},
			PhasePaid:            {PhasePaid, true},
		},
		ActionConfirmHandover: {
			PhaseApproved:   {PhaseHandedOver, false},
			PhasePaid:       {PhaseHandedOver, false},
			PhaseHandedOver: {PhaseHandedOver, true},
		},
		ActionConfirmReturn: {
			PhaseHandedOver: {PhaseCompleted, false},
			PhaseCompleted:  {PhaseCompleted, true},
		},
		ActionRate: {
			PhaseCompleted: {PhaseReceiptConfirmed, false},
		},
	}

	for action, phases := range allowed {
		for _, from := range Phases {
			to, noop, err := Plan(action, from)
			want, ok := phases[from]
			if !ok {
				var te *TransitionError
				require.Error(t, err, "%s from %s", action, from)
				require.True(t, errors.As(err, &te))
				assert.Equal(t, action, te.Action)
				assert.Equal(t, from, te.From)
				continue
			}
			require.NoError(t, err, "%s from %s", action, from)
			assert.Equal(t, want.to, to, "%s from %s", action, from)
			assert.Equal(t, want.noop, noop, "%s from %s", action, from)
		}
	}
}

func TestPlan_ReturnBeforeHandover(t *testing.T) {
	for _, from := range []Phase{PhasePending, PhaseApproved, PhaseAwaitingPayment, PhasePaid} {
		_, _, err := Plan(ActionConfirmReturn, from)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
}

func TestPlan_RerateRejected(t *testing.T) {
	_, _, err := Plan(ActionRate, PhaseReceiptConfirmed)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "already")
}

func TestPhase_Properties(t *testing.T) {
	for _, p := range Phases {
		assert.NotEmpty(t, p.Status(), p.String())
		assert.False(t, p.Terminal() && p.Reserves(), p.String())
	}
	assert.True(t, PhaseHandedOver.Occupying())
	assert.False(t, PhaseApproved.Occupying())
	assert.Equal(t, "phase(42)", Phase(42).String())
}

func TestRentalRequest_Phase(t *testing.T) {
	now := time.Now()
	r := &RentalRequest{Status: StatusApproved}
	assert.Equal(t, PhaseApproved, r.Phase())

	r.PaidAt = &now
	assert.Equal(t, PhasePaid, r.Phase())

	r.HandedOverAt = &now
	assert.Equal(t, PhaseHandedOver, r.Phase())

	for _, p := range Phases {
		if p == PhasePaid || p == PhaseHandedOver {
			continue
		}
		assert.Equal(t, p, (&RentalRequest{Status: p.Status()}).Phase())
	}
	assert.Equal(t, PhaseUnknown, (&RentalRequest{Status: "Bogus"}).Phase())
}

func TestCanPerform(t *testing.T) {
	r := &RentalRequest{RequesterID: 1, OwnerID: 2}

	assert.NoError(t, CanPerform(ActionApprove, r, 2))
	assert.ErrorIs(t, CanPerform(ActionApprove, r, 1), ErrForbidden)
	assert.NoError(t, CanPerform(ActionConfirmHandover, r, 1))
	assert.ErrorIs(t, CanPerform(ActionConfirmHandover, r, 2), ErrForbidden)
	assert.NoError(t, CanPerform(ActionCancel, r, 1))
	assert.NoError(t, CanPerform(ActionCancel, r, 2))
	assert.ErrorIs(t, CanPerform(ActionCancel, r, 3), ErrForbidden)
	assert.ErrorIs(t, CanPerform(ActionRate, r, 2), ErrForbidden)
}

func TestActionForStatus(t *testing.T) {
	a, ok := ActionForStatus(StatusApproved)
	assert.True(t, ok)
	assert.Equal(t, ActionApprove, a)

	_, ok = ActionForStatus(StatusCompleted)
	assert.False(t, ok)
	_, ok = ActionForStatus(StatusPending)
	assert.False(t, ok)
}
