package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in cents. It travels over the wire as a two-decimal string ("50.00").
type Money int64

// ErrAmountOverflow means an amount does not fit in a Money.
var ErrAmountOverflow = errors.New("amount out of range")

// ParseMoney parses "50", "50.5" or "50.00", with an optional leading "-".
// More than two decimal places is an error.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	raw := s
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	if !digits(whole) || !digits(frac) || whole+frac == "" {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than two decimal places", raw)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", raw, ErrAmountOverflow)
	}
	cents, _ := strconv.ParseInt(frac, 10, 64)
	if units > (math.MaxInt64-cents)/100 {
		return 0, fmt.Errorf("amount %q: %w", raw, ErrAmountOverflow)
	}
	m := Money(units*100 + cents)
	if neg {
		m = -m
	}
	return m, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Times multiplies the amount by a non-negative whole quantity.
func (m Money) Times(n int) (Money, error) {
	if n < 0 {
		return 0, fmt.Errorf("negative quantity %d", n)
	}
	if n > 0 && (int64(m) > math.MaxInt64/int64(n) || int64(m) < math.MinInt64/int64(n)) {
		return 0, fmt.Errorf("%s times %d: %w", m, n, ErrAmountOverflow)
	}
	return m * Money(n), nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both decimal strings and JSON numbers.
func (m *Money) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		raw = n.String()
		if f, err := n.Float64(); err == nil && strings.ContainsAny(raw, "eE") {
			raw = strconv.FormatFloat(f, 'f', 2, 64)
		}
	}
	parsed, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
