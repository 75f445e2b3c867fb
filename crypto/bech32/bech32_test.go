package bech32

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/iov-one/weave-escrow/errors"
)

func TestBech32EncodeDecode(t *testing.T) {
	// bech32 -e -h tiov 746573742d7061796c6f6164
	const enc = `tiov1w3jhxapdwpshjmr0v9jqymqq4y`

	want, err := hex.DecodeString("746573742d7061796c6f6164")
	if err != nil {
		t.Fatal(err)
	}

	hrp, payload, err := Decode(enc)
	if err != nil {
		t.Fatal(err)
	}
	if hrp != "tiov" {
		t.Fatalf("unexpected human readable part: %q", hrp)
	}
	if !bytes.Equal(want, payload) {
		t.Logf("want %d", want)
		t.Logf("got  %d", payload)
		t.Fatal("invalid decode")
	}

	raw, err := Encode(hrp, payload)
	if err != nil {
		t.Fatalf("cannot encode: %s", err)
	}
	if raw != enc {
		t.Fatalf("invalid encoding: %q", raw)
	}
}

func TestDecodeWithPrefix(t *testing.T) {
	const enc = `tiov1w3jhxapdwpshjmr0v9jqymqq4y`

	if _, err := DecodeWithPrefix("tiov", enc); err != nil {
		t.Fatalf("cannot decode: %s", err)
	}
	if _, err := DecodeWithPrefix("esc", enc); !errors.ErrInput.Is(err) {
		t.Fatalf("want input error, got %+v", err)
	}
	if _, _, err := Decode("tiov1invalid"); !errors.ErrInput.Is(err) {
		t.Fatalf("want input error, got %+v", err)
	}
}
