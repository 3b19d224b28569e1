package reservation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in minor currency units (cents).
type Money int64

// ParseMoney reads a decimal amount such as "150" or "150.5". Amounts finer than
// a cent are rejected, so a stay's total is always an exact multiple of its rate.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	if (whole == "" && frac == "") || !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}
	var units int64
	if whole != "" {
		u, err := strconv.ParseInt(whole, 10, 64)
		if err != nil || u > math.MaxInt64/100-1 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
		}
		units = u
	}
	if len(frac) > 2 {
		if strings.Trim(frac[2:], "0") != "" {
			return 0, fmt.Errorf("%w: %q has sub-cent precision", ErrInvalidMoney, s)
		}
		frac = frac[:2]
	}
	var cents int64
	for i := 0; i < 2; i++ {
		cents *= 10
		if i < len(frac) {
			cents += int64(frac[i] - '0')
		}
	}
	m := Money(units*100 + cents)
	if neg {
		m = -m
	}
	return m, nil
}

func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Cents() int64 { return int64(m) }

// Times multiplies by a non-negative count, failing instead of wrapping around.
func (m Money) Times(n int) (Money, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative multiplier %d", ErrInvalidMoney, n)
	}
	if n != 0 && (m > math.MaxInt64/Money(n) || m < math.MinInt64/Money(n)) {
		return 0, fmt.Errorf("%w: %s x %d overflows", ErrInvalidMoney, m, n)
	}
	return m * Money(n), nil
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

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

// UnmarshalJSON accepts both "150.00" and 150.00.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := string(b)
	if uq, err := strconv.Unquote(s); err == nil {
		s = uq
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
