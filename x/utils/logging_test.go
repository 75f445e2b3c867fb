package utils

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store"
	"github.com/iov-one/weave-escrow/weavetest"
	"github.com/tendermint/tendermint/libs/log"
)

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	ctx := weave.WithLogger(context.Background(), log.NewTMLogger(log.NewSyncWriter(&buf)))
	db := store.MemStore()
	tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "escrow/cancel"}}

	h := &weavetest.Handler{DeliverResult: weave.DeliverResult{Log: "all good"}}
	if _, err := NewLogging().Deliver(ctx, db, tx, h); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if out := buf.String(); !strings.Contains(out, "all good") || !strings.Contains(out, "escrow/cancel") {
		t.Fatalf("unexpected log output: %q", out)
	}

	buf.Reset()
	h = &weavetest.Handler{CheckErr: errors.ErrUnauthorized}
	if _, err := NewLogging().Check(ctx, db, tx, h); !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("unexpected error: %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "unauthorized") {
		t.Fatalf("error not logged: %q", out)
	}
}
