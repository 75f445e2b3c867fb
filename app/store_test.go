package app

import (
	"context"
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store/iavl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
)

// kvInit stores every genesis option under its own key.
type kvInit struct{}

func (kvInit) FromGenesis(opts weave.Options, db weave.KVStore) error {
	for k, v := range opts {
		if err := db.Set([]byte(k), v); err != nil {
			return err
		}
	}
	return nil
}

func newTestStoreApp(t *testing.T) *StoreApp {
	t.Helper()
	qr := weave.NewQueryRouter()
	RegisterQuery(qr)
	return NewStoreApp("test", iavl.NewMemCommitStore(), qr, context.Background()).
		WithInit(kvInit{})
}

func TestStoreAppInitChain(t *testing.T) {
	s := newTestStoreApp(t)
	assert.Equal(t, "", s.GetChainID())

	s.InitChain(abci.RequestInitChain{
		ChainId:       "test-chain",
		AppStateBytes: []byte(`{"alpha": "1", "beta": "2"}`),
	})
	assert.Equal(t, "test-chain", s.GetChainID())
	assert.Equal(t, "test-chain", weave.GetChainID(s.baseContext))

	// genesis can be loaded only once
	assert.Panics(t, func() {
		s.InitChain(abci.RequestInitChain{ChainId: "test-chain", AppStateBytes: []byte(`{}`)})
	})

	res := s.Commit()
	assert.NotEmpty(t, res.Data)

	info := s.Info(abci.RequestInfo{})
	assert.Equal(t, int64(1), info.LastBlockHeight)
	assert.Equal(t, res.Data, info.LastBlockAppHash)
	assert.Equal(t, "test", info.Data)
}

func TestStoreAppInvalidGenesis(t *testing.T) {
	cases := map[string]abci.RequestInitChain{
		"no app state":     {ChainId: "test-chain"},
		"invalid chain id": {ChainId: "x", AppStateBytes: []byte(`{}`)},
		"invalid json":     {ChainId: "test-chain", AppStateBytes: []byte(`[1, 2`)},
	}
	for testName, req := range cases {
		t.Run(testName, func(t *testing.T) {
			s := newTestStoreApp(t)
			assert.Panics(t, func() { s.InitChain(req) })
		})
	}
}

func TestStoreAppQuery(t *testing.T) {
	s := newTestStoreApp(t)
	s.InitChain(abci.RequestInitChain{
		ChainId:       "test-chain",
		AppStateBytes: []byte(`{"k1": "1", "k2": "2", "other": "3"}`),
	})

	// nothing is visible before the commit
	res := s.Query(abci.RequestQuery{Path: "/", Data: []byte("k1")})
	require.Equal(t, uint32(0), res.Code, res.Log)
	values, err := UnmarshalResultSet(res.Value)
	require.NoError(t, err)
	assert.Empty(t, values.Results)

	s.Commit()

	res = s.Query(abci.RequestQuery{Path: "/", Data: []byte("k1")})
	require.Equal(t, uint32(0), res.Code, res.Log)
	assert.Equal(t, int64(1), res.Height)
	values, err = UnmarshalResultSet(res.Value)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte(`"1"`)}, values.Results)

	res = s.Query(abci.RequestQuery{Path: "/?prefix", Data: []byte("k")})
	require.Equal(t, uint32(0), res.Code, res.Log)
	keys, err := UnmarshalResultSet(res.Key)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("k1"), []byte("k2")}, keys.Results)

	res = s.Query(abci.RequestQuery{Path: "/?range", Data: []byte("k")})
	assert.Equal(t, errors.ErrInput.ABCICode(), res.Code)

	res = s.Query(abci.RequestQuery{Path: "/unknown"})
	assert.Equal(t, errors.ErrNotFound.ABCICode(), res.Code)
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte("b"), prefixEnd([]byte("a")))
	assert.Equal(t, []byte{0x01}, prefixEnd([]byte{0x00, 0xff}))
	assert.Nil(t, prefixEnd([]byte{0xff, 0xff}))
	assert.Nil(t, prefixEnd(nil))
}
