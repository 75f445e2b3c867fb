package weave_test

import (
	"strings"
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/stretchr/testify/assert"
	"github.com/tendermint/tendermint/libs/common"
)

func TestDeliverOrError(t *testing.T) {
	res := weave.DeliverResult{
		Data: []byte("escrow-1"),
		Log:  "created",
		Tags: []common.KVPair{{Key: []byte("escrow"), Value: []byte("escrow-1")}},
	}
	abciRes := weave.DeliverOrError(res, nil, false)
	assert.Equal(t, uint32(0), abciRes.Code)
	assert.Equal(t, res.Data, abciRes.Data)

	parsed, err := weave.ParseDeliverOrError(abciRes)
	assert.NoError(t, err)
	assert.Equal(t, res.Tags, parsed.Tags)

	abciRes = weave.DeliverOrError(res, errors.Wrap(errors.ErrState, "escrow funded"), false)
	assert.Equal(t, errors.ErrState.ABCICode(), abciRes.Code)
	assert.True(t, strings.HasPrefix(abciRes.Log, "cannot deliver tx"))

	_, err = weave.ParseDeliverOrError(abciRes)
	assert.True(t, errors.ErrState.Is(err))
}

func TestCheckOrError(t *testing.T) {
	res := weave.NewCheck(10, "ok")
	abciRes := weave.CheckOrError(res, nil, false)
	assert.Equal(t, int64(10), abciRes.GasWanted)
	assert.Equal(t, "ok", abciRes.Log)

	abciRes = weave.CheckOrError(res, errors.ErrUnauthorized, false)
	assert.Equal(t, errors.ErrUnauthorized.ABCICode(), abciRes.Code)
}
