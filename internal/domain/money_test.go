package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    Money
		wantErr bool
	}{
		{"50", 5000, false},
		{"50.5", 5050, false},
		{"0.05", 5, false},
		{".5", 50, false},
		{"-2", -200, false},
		{" 7.25 ", 725, false},
		{"92233720368547758.07", 9223372036854775807, false},
		{"", 0, true},
		{"-", 0, true},
		{".", 0, true},
		{"--2", 0, true},
		{"+3", 0, true},
		{"1.-5", 0, true},
		{"1.+5", 0, true},
		{"1e3", 0, true},
		{"1,50", 0, true},
		{"1.005", 0, true},
		{"92233720368547758.08", 0, true},
		{"92233720368547759.00", 0, true},
		{"99999999999999999999", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMoney(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseMoney("92233720368547758.08")
	assert.ErrorIs(t, err, ErrAmountOverflow)
}

func TestMoney_Times(t *testing.T) {
	got, err := Money(1999).Times(3)
	require.NoError(t, err)
	assert.Equal(t, Money(5997), got)

	got, err = Money(1999).Times(0)
	require.NoError(t, err)
	assert.Zero(t, got)

	got, err = Money(92233720368547758).Times(3)
	require.NoError(t, err)
	assert.Equal(t, "2767011611056432.74", got.String())

	_, err = Money(math.MaxInt64/3 + 1).Times(3)
	assert.ErrorIs(t, err, ErrAmountOverflow)

	_, err = Money(math.MaxInt64).Times(2)
	assert.ErrorIs(t, err, ErrAmountOverflow)

	_, err = Money(-math.MaxInt64).Times(2)
	assert.ErrorIs(t, err, ErrAmountOverflow)

	_, err = Money(100).Times(-1)
	assert.Error(t, err)
}

func TestMoney_UnmarshalRejectsOutOfRange(t *testing.T) {
	var m Money
	assert.Error(t, m.UnmarshalJSON([]byte(`"--2"`)))
	assert.Error(t, m.UnmarshalJSON([]byte(`1e30`)))
	require.NoError(t, m.UnmarshalJSON([]byte(`12.5`)))
	assert.Equal(t, Money(1250), m)
}
