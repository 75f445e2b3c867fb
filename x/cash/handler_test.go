package cash

import (
	"context"
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store"
	"github.com/iov-one/weave-escrow/weavetest"
	"github.com/iov-one/weave-escrow/weavetest/assert"
)

func TestSendHandler(t *testing.T) {
	alice := weavetest.NewCondition()
	bob := weavetest.NewCondition()

	cases := map[string]struct {
		signer     weave.Condition
		initial    uint64
		msg        weave.Msg
		wantCheck  *errors.Error
		wantDeliv  *errors.Error
		wantAlice  uint64
		wantBobGot uint64
	}{
		"success": {
			signer:     alice,
			initial:    100,
			msg:        &SendMsg{Metadata: &weave.Metadata{Schema: 1}, Src: alice.Address(), Dest: bob.Address(), Amount: coin.NewAmount(30)},
			wantAlice:  70,
			wantBobGot: 30,
		},
		"not signed by the source": {
			signer:    bob,
			initial:   100,
			msg:       &SendMsg{Metadata: &weave.Metadata{Schema: 1}, Src: alice.Address(), Dest: bob.Address(), Amount: coin.NewAmount(30)},
			wantCheck: errors.ErrUnauthorized,
			wantDeliv: errors.ErrUnauthorized,
			wantAlice: 100,
		},
		"insufficient funds": {
			signer:    alice,
			initial:   10,
			msg:       &SendMsg{Metadata: &weave.Metadata{Schema: 1}, Src: alice.Address(), Dest: bob.Address(), Amount: coin.NewAmount(30)},
			wantDeliv: errors.ErrInsufficientAmount,
			wantAlice: 10,
		},
		"invalid message": {
			signer:    alice,
			initial:   100,
			msg:       &SendMsg{Metadata: &weave.Metadata{Schema: 1}, Src: alice.Address(), Dest: bob.Address()},
			wantCheck: errors.ErrAmount,
			wantDeliv: errors.ErrAmount,
			wantAlice: 100,
		},
		"wrong message type": {
			signer:    alice,
			initial:   100,
			msg:       &weavetest.Msg{RoutePath: "cash/send"},
			wantCheck: errors.ErrType,
			wantDeliv: errors.ErrType,
			wantAlice: 100,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			ctrl := NewController(NewBucket())
			assert.Nil(t, ctrl.IssueCoins(db, alice.Address(), coin.NewAmount(tc.initial)))

			h := NewSendHandler(&weavetest.Auth{Signer: tc.signer}, ctrl)
			tx := &weavetest.Tx{Msg: tc.msg}
			ctx := context.Background()

			_, err := h.Check(ctx, db.CacheWrap(), tx)
			assert.IsErr(t, tc.wantCheck, err)

			_, err = h.Deliver(ctx, db, tx)
			assert.IsErr(t, tc.wantDeliv, err)

			assertBalance(t, db, ctrl, alice.Address(), tc.wantAlice)
			assertBalance(t, db, ctrl, bob.Address(), tc.wantBobGot)
		})
	}
}

func TestSendMsgValidate(t *testing.T) {
	a := weavetest.NewCondition().Address()
	b := weavetest.NewCondition().Address()

	cases := map[string]struct {
		msg  *SendMsg
		want *errors.Error
	}{
		"valid": {
			msg: &SendMsg{Metadata: &weave.Metadata{Schema: 1}, Src: a, Dest: b, Amount: coin.NewAmount(1), Memo: "rent"},
		},
		"missing metadata": {
			msg:  &SendMsg{Src: a, Dest: b, Amount: coin.NewAmount(1)},
			want: errors.ErrMetadata,
		},
		"zero amount": {
			msg:  &SendMsg{Metadata: &weave.Metadata{Schema: 1}, Src: a, Dest: b},
			want: errors.ErrAmount,
		},
		"missing source": {
			msg:  &SendMsg{Metadata: &weave.Metadata{Schema: 1}, Dest: b, Amount: coin.NewAmount(1)},
			want: errors.ErrInput,
		},
		"memo too long": {
			msg:  &SendMsg{Metadata: &weave.Metadata{Schema: 1}, Src: a, Dest: b, Amount: coin.NewAmount(1), Memo: string(make([]byte, 129))},
			want: errors.ErrInput,
		},
		"ref too long": {
			msg:  &SendMsg{Metadata: &weave.Metadata{Schema: 1}, Src: a, Dest: b, Amount: coin.NewAmount(1), Ref: make([]byte, 65)},
			want: errors.ErrInput,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.IsErr(t, tc.want, tc.msg.Validate())
		})
	}
}
