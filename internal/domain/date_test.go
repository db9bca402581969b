package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-08-01")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.August, 1), d)

	d, err = ParseDate("2024-08-01T22:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-08-01", d.String())

	d, err = ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDate("08/01/2024")
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	a := NewDate(2024, time.August, 1)
	assert.Equal(t, 4, DaysBetween(a, NewDate(2024, time.August, 5)))
	assert.Equal(t, 0, DaysBetween(a, a))
	assert.Equal(t, -1, DaysBetween(a, NewDate(2024, time.July, 31)))
	// across a leap day
	assert.Equal(t, 2, DaysBetween(NewDate(2024, time.February, 28), NewDate(2024, time.March, 1)))
}

func TestDateRange(t *testing.T) {
	r := DateRange{Start: NewDate(2024, time.August, 1), End: NewDate(2024, time.August, 5)}
	assert.True(t, r.Complete())
	assert.Equal(t, 5, r.Days())

	touching := DateRange{Start: NewDate(2024, time.August, 5), End: NewDate(2024, time.August, 9)}
	after := DateRange{Start: NewDate(2024, time.August, 6), End: NewDate(2024, time.August, 9)}
	assert.True(t, r.Overlaps(touching))
	assert.True(t, touching.Overlaps(r))
	assert.False(t, r.Overlaps(after))

	assert.False(t, DateRange{Start: r.Start}.Complete())
}

func TestDate_JSON(t *testing.T) {
	type wrapper struct {
		D Date  `json:"d"`
		P *Date `json:"p"`
	}
	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2024-08-01","p":null}`), &w))
	assert.Equal(t, NewDate(2024, time.August, 1), w.D)
	assert.Nil(t, w.P)

	out, err := json.Marshal(wrapper{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":null,"p":null}`, string(out))
}

func TestMoney(t *testing.T) {
	m, err := ParseMoney("50")
	require.NoError(t, err)
	assert.Equal(t, Money(5000), m)
	total, err := m.Times(5)
	require.NoError(t, err)
	assert.Equal(t, "250.00", total.String())

	m, err = ParseMoney("12.5")
	require.NoError(t, err)
	assert.Equal(t, Money(1250), m)

	_, err = ParseMoney("1.005")
	assert.Error(t, err)

	var fromNumber, fromString Money
	require.NoError(t, json.Unmarshal([]byte(`19.99`), &fromNumber))
	require.NoError(t, json.Unmarshal([]byte(`"19.99"`), &fromString))
	assert.Equal(t, fromString, fromNumber)
}
