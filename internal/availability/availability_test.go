package availability

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentsnap/internal/domain"
)

func fixedCalculator(y int, m time.Month, d int) *Calculator {
	return &Calculator{Now: func() domain.Date { return domain.NewDate(y, m, d) }}
}

func day(d int) domain.Date {
	return domain.NewDate(2024, time.August, d)
}

func TestCalculator_Price(t *testing.T) {
	calc := fixedCalculator(2024, time.July, 1)

	price, err := calc.Price(domain.DateRange{Start: day(1), End: day(5)}, domain.Money(5000))
	require.NoError(t, err)
	assert.Equal(t, domain.Money(25000), price)

	price, err = calc.Price(domain.DateRange{Start: day(3), End: day(3)}, domain.Money(1999))
	require.NoError(t, err)
	assert.Equal(t, domain.Money(1999), price)

	_, err = calc.Price(domain.DateRange{Start: day(3)}, domain.Money(1000))
	assert.ErrorIs(t, err, ErrIncompleteSelection)

	var verr *domain.ValidationError
	_, err = calc.Price(domain.DateRange{Start: day(5), End: day(1)}, domain.Money(1000))
	assert.ErrorAs(t, err, &verr)

	_, err = calc.Price(domain.DateRange{Start: day(1), End: day(3)}, domain.Money(math.MaxInt64/2))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "total_price", verr.Field)
}

func TestCalculator_PriceMatchesInclusiveDays(t *testing.T) {
	calc := fixedCalculator(2024, time.January, 1)
	per := domain.Money(1234)
	start := domain.NewDate(2024, time.February, 20)
	for n := 0; n < 20; n++ {
		r := domain.DateRange{Start: start, End: start.AddDays(n)}
		price, err := calc.Price(r, per)
		require.NoError(t, err)
		assert.Equal(t, per*domain.Money(n+1), price, r.String())
	}
}

func TestCalculator_QuoteOverflowIsNotAdmissible(t *testing.T) {
	calc := fixedCalculator(2024, time.July, 1)
	r := domain.DateRange{Start: day(1), End: day(3)}

	q, err := calc.Quote(r, nil, domain.Money(math.MaxInt64/2), 0)
	require.NoError(t, err)
	assert.False(t, q.Admissible)
	assert.Error(t, q.Reason)

	q, err = calc.Quote(r, nil, domain.Money(math.MaxInt64/3), domain.Money(math.MaxInt64/3))
	require.NoError(t, err)
	assert.False(t, q.Admissible)
	assert.Zero(t, q.Total)
}

func TestCalculator_Check(t *testing.T) {
	calc := fixedCalculator(2024, time.August, 1)
	booked := []domain.DateRange{{Start: day(10), End: day(12)}}

	tests := []struct {
		name      string
		candidate domain.DateRange
		wantErr   error
		ok        bool
	}{
		{"free range", domain.DateRange{Start: day(2), End: day(9)}, nil, true},
		{"starts today", domain.DateRange{Start: day(1), End: day(1)}, nil, true},
		{"after booking", domain.DateRange{Start: day(13), End: day(20)}, nil, true},
		{"touches booking start", domain.DateRange{Start: day(5), End: day(10)}, nil, false},
		{"touches booking end", domain.DateRange{Start: day(12), End: day(14)}, nil, false},
		{"contains booking", domain.DateRange{Start: day(9), End: day(13)}, nil, false},
		{"inside booking", domain.DateRange{Start: day(11), End: day(11)}, nil, false},
		{"retroactive", domain.DateRange{Start: domain.NewDate(2024, time.July, 31), End: day(2)}, nil, false},
		{"inverted", domain.DateRange{Start: day(5), End: day(3)}, nil, false},
		{"missing end", domain.DateRange{Start: day(5)}, ErrIncompleteSelection, false},
		{"missing start", domain.DateRange{End: day(5)}, ErrIncompleteSelection, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := calc.Check(tt.candidate, booked)
			assert.Equal(t, tt.ok, calc.IsAdmissible(tt.candidate, booked))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				var ve *domain.ValidationError
				assert.ErrorAs(t, err, &ve)
			}
		})
	}
}

func TestCalculator_Quote(t *testing.T) {
	calc := fixedCalculator(2024, time.August, 1)
	booked := []domain.DateRange{{Start: day(10), End: day(12)}}

	q, err := calc.Quote(domain.DateRange{Start: day(1), End: day(5)}, booked, domain.Money(5000), domain.Money(10000))
	require.NoError(t, err)
	assert.True(t, q.Admissible)
	assert.Equal(t, 5, q.Days)
	assert.Equal(t, domain.Money(25000), q.Price)
	assert.Equal(t, domain.Money(35000), q.Total)

	q, err = calc.Quote(domain.DateRange{Start: day(8), End: day(10)}, booked, domain.Money(5000), 0)
	require.NoError(t, err)
	assert.False(t, q.Admissible)
	assert.Error(t, q.Reason)
	assert.Equal(t, domain.Money(15000), q.Price)

	_, err = calc.Quote(domain.DateRange{Start: day(8)}, booked, domain.Money(5000), 0)
	assert.ErrorIs(t, err, ErrIncompleteSelection)
}

func TestBooked(t *testing.T) {
	now := time.Now()
	reqs := []*domain.RentalRequest{
		{StartDate: day(1), EndDate: day(2), Status: domain.StatusPending},
		{StartDate: day(3), EndDate: day(4), Status: domain.StatusApproved},
		{StartDate: day(5), EndDate: day(6), Status: domain.StatusApproved, HandedOverAt: &now},
		{StartDate: day(7), EndDate: day(8), Status: domain.StatusCancelled},
		{StartDate: day(9), EndDate: day(10), Status: domain.StatusAwaitingPayment},
		{StartDate: day(11), EndDate: day(12), Status: domain.StatusCompleted},
	}
	got := Booked(reqs)
	assert.Equal(t, []domain.DateRange{
		{Start: day(3), End: day(4)},
		{Start: day(5), End: day(6)},
		{Start: day(9), End: day(10)},
	}, got)
}

func TestConflict(t *testing.T) {
	now := time.Now()
	candidate := &domain.RentalRequest{ID: 1, StartDate: day(10), EndDate: day(15), Status: domain.StatusPending}
	pendingOverlap := &domain.RentalRequest{ID: 2, StartDate: day(12), EndDate: day(18), Status: domain.StatusPending}
	approvedOverlap := &domain.RentalRequest{ID: 3, StartDate: day(15), EndDate: day(16), Status: domain.StatusApproved}
	approvedApart := &domain.RentalRequest{ID: 4, StartDate: day(16), EndDate: day(18), Status: domain.StatusApproved}
	out := &domain.RentalRequest{ID: 5, StartDate: day(1), EndDate: day(5), Status: domain.StatusApproved, HandedOverAt: &now}

	tests := []struct {
		name     string
		action   domain.Action
		siblings []*domain.RentalRequest
		wantErr  bool
	}{
		{"ApproveAlone", domain.ActionApprove, []*domain.RentalRequest{candidate}, false},
		{"ApprovePendingOverlap", domain.ActionApprove, []*domain.RentalRequest{candidate, pendingOverlap}, false},
		{"ApproveSharedEndDay", domain.ActionApprove, []*domain.RentalRequest{candidate, approvedOverlap}, true},
		{"ApproveApart", domain.ActionApprove, []*domain.RentalRequest{candidate, approvedApart}, false},
		{"HandoverWhileOut", domain.ActionConfirmHandover, []*domain.RentalRequest{candidate, out}, true},
		{"HandoverReservedOnly", domain.ActionConfirmHandover, []*domain.RentalRequest{candidate, approvedOverlap}, false},
		{"CancelIgnoresSiblings", domain.ActionCancel, []*domain.RentalRequest{candidate, out, approvedOverlap}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Conflict(tt.action, candidate, tt.siblings)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
