package server

import (
	"testing"

	"github.com/iov-one/weave-escrow/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

func TestParseStartArgs(t *testing.T) {
	opts, err := parseStartArgs(nil)
	require.NoError(t, err)
	assert.Equal(t, "tcp://localhost:26658", opts.Bind)
	assert.False(t, opts.Debug)

	opts, err = parseStartArgs([]string{"-bind", "unix:///tmp/abci.sock", "-debug"})
	require.NoError(t, err)
	assert.Equal(t, "unix:///tmp/abci.sock", opts.Bind)
	assert.True(t, opts.Debug)

	_, err = parseStartArgs([]string{"-unknown"})
	assert.True(t, errors.ErrInput.Is(err))
}

func TestStartCmdGeneratorFailure(t *testing.T) {
	var gotHome string
	var gotDebug bool
	gen := func(home string, logger log.Logger, debug bool) (abci.Application, error) {
		gotHome, gotDebug = home, debug
		return nil, errors.Wrap(errors.ErrState, "corrupted database")
	}
	err := StartCmd(gen, log.NewNopLogger(), "/tmp/home", []string{"-debug"})
	assert.True(t, errors.ErrState.Is(err))
	assert.Equal(t, "/tmp/home", gotHome)
	assert.True(t, gotDebug)
}

func TestServerLifecycle(t *testing.T) {
	svr, err := newServer(abci.NewBaseApplication(), log.NewNopLogger(), "tcp://127.0.0.1:36658")
	require.NoError(t, err)
	require.NoError(t, svr.Start())
	assert.True(t, svr.IsRunning())
	require.NoError(t, svr.Stop())
}
