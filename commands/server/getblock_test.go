package server

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/iov-one/weave-escrow/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tendermint/libs/db"
)

func TestParseGetBlockArgs(t *testing.T) {
	_, _, err := parseGetBlockArgs(nil)
	assert.True(t, errors.ErrInput.Is(err))

	path, height, err := parseGetBlockArgs([]string{"/data/blockstore.db", "-height", "7"})
	require.NoError(t, err)
	assert.Equal(t, "/data/blockstore.db", path)
	assert.Equal(t, int64(7), height)

	_, _, err = parseGetBlockArgs([]string{"/data/blockstore.db", "-height", "-2"})
	assert.True(t, errors.ErrInput.Is(err))
}

func TestGetBlockFromEmptyStore(t *testing.T) {
	dir, err := ioutil.TempDir("", "escrowd-getblock")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	db, err := dbm.NewGoLevelDB("blockstore", dir)
	require.NoError(t, err)
	db.Close()

	var out bytes.Buffer
	err = GetBlockCmd(&out, []string{filepath.Join(dir, "blockstore.db")})
	assert.True(t, errors.ErrNotFound.Is(err))
	assert.Equal(t, 0, out.Len())

	_, err = openDb(filepath.Join(dir, "blockstore"))
	assert.True(t, errors.ErrInput.Is(err))
}
