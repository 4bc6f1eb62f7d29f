package account

import (
	"database/sql/driver"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

// Amount is an exact non-negative integer balance. It maps to a NUMERIC
// column so balances are never truncated or rounded, no matter how large.
type Amount struct {
	n *big.Int
}

func NewAmount(v int64) Amount {
	return Amount{n: big.NewInt(v)}
}

// ParseAmount accepts plain base-10 digits only; signs, spaces, separators
// and fractions are all rejected.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return Amount{}, ErrInvalidAmount
		}
	}

	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, ErrInvalidAmount
	}

	return Amount{n: n}, nil
}

func (a Amount) Add(b Amount) Amount {
	return Amount{n: new(big.Int).Add(a.value(), b.value())}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{n: new(big.Int).Sub(a.value(), b.value())}
}

func (a Amount) Cmp(b Amount) int {
	return a.value().Cmp(b.value())
}

func (a Amount) IsZero() bool {
	return a.value().Sign() == 0
}

func (a Amount) Negative() bool {
	return a.value().Sign() < 0
}

func (a Amount) String() string {
	return a.value().String()
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	return a.setString(strings.Trim(string(b), `"`))
}

func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

func (a *Amount) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		a.n = new(big.Int)
		return nil
	case int64:
		a.n = big.NewInt(v)
		return nil
	case []byte:
		return a.setString(string(v))
	case string:
		return a.setString(v)
	}

	return errors.Errorf("unsupported balance column type %T", src)
}

func (a *Amount) setString(s string) error {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return errors.Errorf("malformed numeric value %q", s)
	}
	a.n = n
	return nil
}

// value keeps the zero Amount usable as zero.
func (a Amount) value() *big.Int {
	if a.n == nil {
		return new(big.Int)
	}
	return a.n
}
