/*
Package coin defines the amount type of the ledger native currency.

Amounts are unsigned 256 bit integers counted in the smallest currency unit.
They are serialized as minimal big-endian bytes and represented as decimal
strings in JSON.
*/
package coin

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/iov-one/weave-escrow/errors"
)

// maxAmountLen is the number of bytes required to represent the largest
// possible amount.
const maxAmountLen = 32

// Amount is a non negative quantity of the native currency.
type Amount []byte

// NewAmount returns an amount of given value.
func NewAmount(v uint64) Amount {
	return FromInt(uint256.NewInt(v))
}

// FromInt returns the canonical representation of given value.
func FromInt(v *uint256.Int) Amount {
	if v == nil || v.IsZero() {
		return nil
	}
	return Amount(v.Bytes())
}

// ParseAmount parses a decimal representation of an amount.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.Wrap(errors.ErrAmount, "empty")
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Wrapf(errors.ErrAmount, "not a decimal number: %q", s)
	}
	if b.Sign() < 0 {
		return nil, errors.Wrapf(errors.ErrAmount, "negative value: %s", s)
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, errors.Wrapf(errors.ErrOverflow, "%s exceeds 256 bits", s)
	}
	return FromInt(v), nil
}

// Int returns the numeric value of the amount.
func (a Amount) Int() (*uint256.Int, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(a), nil
}

// Validate returns an error if the amount cannot be represented using 256
// bits.
func (a Amount) Validate() error {
	if len(a) > maxAmountLen {
		return errors.Wrapf(errors.ErrAmount, "%d bytes exceed 256 bits", len(a))
	}
	return nil
}

// IsZero returns true if the amount represents no value.
func (a Amount) IsZero() bool {
	for _, b := range a {
		if b != 0 {
			return false
		}
	}
	return true
}

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool {
	return !a.IsZero()
}

// Equals returns true if both amounts represent the same value.
func (a Amount) Equals(b Amount) bool {
	return a.Compare(b) == 0
}

// Compare returns -1, 0 or 1 if a is less than, equal to or greater than b.
// Both amounts must be valid.
func (a Amount) Compare(b Amount) int {
	x := new(uint256.Int).SetBytes(a)
	y := new(uint256.Int).SetBytes(b)
	return x.Cmp(y)
}

// Add returns the sum of two amounts. ErrOverflow is returned if the result
// exceeds 256 bits.
func (a Amount) Add(b Amount) (Amount, error) {
	x, err := a.Int()
	if err != nil {
		return nil, err
	}
	y, err := b.Int()
	if err != nil {
		return nil, err
	}
	sum, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, errors.Wrapf(errors.ErrOverflow, "%s + %s", a, b)
	}
	return FromInt(sum), nil
}

// Sub returns a - b. ErrInsufficientAmount is returned when b is greater
// than a.
func (a Amount) Sub(b Amount) (Amount, error) {
	x, err := a.Int()
	if err != nil {
		return nil, err
	}
	y, err := b.Int()
	if err != nil {
		return nil, err
	}
	if x.Lt(y) {
		return nil, errors.Wrapf(errors.ErrInsufficientAmount, "%s is less than %s", a, b)
	}
	return FromInt(new(uint256.Int).Sub(x, y)), nil
}

// String returns the decimal representation.
func (a Amount) String() string {
	if len(a) > maxAmountLen {
		return "(invalid)"
	}
	return new(uint256.Int).SetBytes(a).ToBig().String()
}

// MarshalJSON serializes the amount as a decimal string so that values
// larger than 2^53 are not altered by JSON clients.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts both a decimal string and a JSON number.
func (a *Amount) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return errors.Wrapf(errors.ErrAmount, "cannot decode json: %s", err)
		}
		s = n.String()
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
