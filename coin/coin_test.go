package coin

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/iov-one/weave-escrow/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	max := "115792089237316195423570985008687907853269984665640564039457584007913129639935"

	cases := map[string]struct {
		input   string
		wantErr *errors.Error
		want    string
	}{
		"small value":       {input: "100", want: "100"},
		"zero":              {input: "0", want: "0"},
		"surrounding space": {input: " 42 ", want: "42"},
		"maximum value":     {input: max, want: max},
		"above maximum":     {input: max[:len(max)-1] + "6", wantErr: errors.ErrOverflow},
		"negative":          {input: "-1", wantErr: errors.ErrAmount},
		"not a number":      {input: "1.5", wantErr: errors.ErrAmount},
		"empty":             {input: "", wantErr: errors.ErrAmount},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := ParseAmount(tc.input)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr == nil {
				assert.Equal(t, tc.want, got.String())
			}
		})
	}
}

func TestAmountArithmetic(t *testing.T) {
	a := NewAmount(100)
	b := NewAmount(30)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "130", sum.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "70", diff.String())

	zero, err := a.Sub(a)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
	assert.False(t, zero.IsPositive())
	assert.Nil(t, []byte(zero))

	_, err = b.Sub(a)
	assert.True(t, errors.ErrInsufficientAmount.Is(err))

	max, err := ParseAmount(strings.Repeat("9", 77))
	require.NoError(t, err)
	_, err = max.Add(max)
	assert.True(t, errors.ErrOverflow.Is(err))

	assert.Equal(t, 1, a.Compare(b))
	assert.Equal(t, -1, b.Compare(a))
	assert.True(t, a.Equals(Amount{0, 100}))
}

func TestAmountValidate(t *testing.T) {
	assert.NoError(t, Amount(nil).Validate())
	assert.NoError(t, NewAmount(1).Validate())

	tooLong := make(Amount, 33)
	tooLong[0] = 1
	assert.True(t, errors.ErrAmount.Is(tooLong.Validate()))
	_, err := tooLong.Int()
	assert.True(t, errors.ErrAmount.Is(err))
	assert.Equal(t, "(invalid)", tooLong.String())
}

func TestAmountJSON(t *testing.T) {
	type holder struct {
		Amount Amount `json:"amount"`
	}

	var h holder
	require.NoError(t, json.Unmarshal([]byte(`{"amount": "12345678901234567890123"}`), &h))
	assert.Equal(t, "12345678901234567890123", h.Amount.String())

	raw, err := json.Marshal(h)
	require.NoError(t, err)
	assert.Equal(t, `{"amount":"12345678901234567890123"}`, string(raw))

	require.NoError(t, json.Unmarshal([]byte(`{"amount": 77}`), &h))
	assert.Equal(t, "77", h.Amount.String())

	err = json.Unmarshal([]byte(`{"amount": "-5"}`), &h)
	assert.True(t, errors.ErrAmount.Is(err))

	err = json.Unmarshal([]byte(`{"amount": true}`), &h)
	assert.True(t, errors.ErrAmount.Is(err))
}
