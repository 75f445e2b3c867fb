package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/weavetest/assert"
)

func TestKeygen(t *testing.T) {
	dir, err := ioutil.TempDir("", "keygen")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	keyPath := filepath.Join(dir, "key")
	var output bytes.Buffer
	assert.Nil(t, cmdKeygen(nil, &output, []string{"-key", keyPath}))

	raw, err := ioutil.ReadFile(keyPath)
	assert.Nil(t, err)
	assert.Equal(t, 64, len(raw))

	info, err := os.Stat(keyPath)
	assert.Nil(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// An existing key must never be overwritten.
	err = cmdKeygen(nil, &output, []string{"-key", keyPath})
	if !errors.ErrDuplicate.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	after, err := ioutil.ReadFile(keyPath)
	assert.Nil(t, err)
	assert.Equal(t, raw, after)
}

func TestKeygenDerivation(t *testing.T) {
	dir, err := ioutil.TempDir("", "keygen")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	const seed = "000102030405060708090a0b0c0d0e0f"
	addresses := make([]string, 2)
	for i := range addresses {
		keyPath := filepath.Join(dir, string(rune('a'+i)))
		assert.Nil(t, cmdKeygen(nil, ioutil.Discard, []string{"-key", keyPath, "-seed", seed}))

		var output bytes.Buffer
		assert.Nil(t, cmdKeyaddr(nil, &output, []string{"-key", keyPath}))
		addresses[i] = strings.TrimSpace(output.String())
	}
	assert.Equal(t, addresses[0], addresses[1])
	assert.Equal(t, 40, len(addresses[0]))

	err = cmdKeygen(nil, ioutil.Discard, []string{"-key", filepath.Join(dir, "bad"), "-seed", "zz"})
	if !errors.ErrInput.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

func TestKeyaddrInvalidKey(t *testing.T) {
	f, err := ioutil.TempFile("", "key")
	assert.Nil(t, err)
	defer os.Remove(f.Name())
	_, _ = f.Write([]byte("too short"))
	_ = f.Close()

	err = cmdKeyaddr(nil, ioutil.Discard, []string{"-key", f.Name()})
	if !errors.ErrInput.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}
