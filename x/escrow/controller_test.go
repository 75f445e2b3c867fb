package escrow

import (
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store"
	"github.com/iov-one/weave-escrow/weavetest"
	"github.com/iov-one/weave-escrow/weavetest/assert"
	"github.com/iov-one/weave-escrow/x/cash"
)

// fixture holds a ledger with a configured relayer and a funded payer.
type fixture struct {
	db      weave.KVStore
	cash    cash.Controller
	ctrl    Controller
	conf    *Configuration
	relayer weave.Address
	payer   weave.Address
}

func newFixture(t testing.TB, payerBalance uint64) *fixture {
	t.Helper()
	db := store.MemStore()
	cashCtrl := cash.NewController(cash.NewBucket())
	f := &fixture{
		db:      db,
		cash:    cashCtrl,
		ctrl:    NewController(cashCtrl),
		relayer: weavetest.NewCondition().Address(),
		payer:   weavetest.NewCondition().Address(),
	}
	f.conf = &Configuration{
		Metadata: &weave.Metadata{Schema: 1},
		Owner:    weavetest.NewCondition().Address(),
		Relayer:  f.relayer,
	}
	if payerBalance > 0 {
		assert.Nil(t, cashCtrl.IssueCoins(db, f.payer, coin.NewAmount(payerBalance)))
	}
	return f
}

func (f *fixture) assertBalance(t testing.TB, addr weave.Address, want uint64) {
	t.Helper()
	got, err := f.cash.Balance(f.db, addr)
	if err != nil {
		t.Fatalf("cannot get balance: %s", err)
	}
	if !got.Equals(coin.NewAmount(want)) {
		t.Fatalf("want %d balance, got %s", want, got)
	}
}

func (f *fixture) assertState(t testing.TB, id string, want EscrowState) *Escrow {
	t.Helper()
	e, err := f.ctrl.Escrow(f.db, id)
	if err != nil {
		t.Fatalf("cannot load escrow %q: %s", id, err)
	}
	if e.State != want {
		t.Fatalf("want %s escrow, got %s", want, e.State)
	}
	return e
}

func TestCreateEscrow(t *testing.T) {
	f := newFixture(t, 0)
	recipient := weavetest.NewCondition().Address()

	e, err := f.ctrl.Create(f.db, "e1", recipient, coin.NewAmount(100))
	assert.Nil(t, err)
	assert.Equal(t, EscrowStateInitiated, e.State)

	stored := f.assertState(t, "e1", EscrowStateInitiated)
	assert.Equal(t, 0, len(stored.Custody))
	assert.Equal(t, true, stored.Recipient.Equals(recipient))
	assert.Equal(t, true, stored.Amount.Equals(coin.NewAmount(100)))

	_, err = f.ctrl.Create(f.db, "e1", recipient, coin.NewAmount(5))
	assert.IsErr(t, errors.ErrDuplicate, err)
	// The first escrow must not be overwritten.
	stored = f.assertState(t, "e1", EscrowStateInitiated)
	assert.Equal(t, true, stored.Amount.Equals(coin.NewAmount(100)))

	_, err = f.ctrl.Create(f.db, "", recipient, coin.NewAmount(5))
	assert.IsErr(t, errors.ErrEmpty, err)
	_, err = f.ctrl.Create(f.db, "e2", recipient, nil)
	assert.IsErr(t, errors.ErrAmount, err)
}

func TestEscrowNotFound(t *testing.T) {
	f := newFixture(t, 100)

	_, err := f.ctrl.Escrow(f.db, "missing")
	assert.IsErr(t, errors.ErrNotFound, err)
	_, err = f.ctrl.Fund(f.db, "missing", f.payer, coin.NewAmount(10))
	assert.IsErr(t, errors.ErrNotFound, err)
	_, err = f.ctrl.Settle(f.db, f.conf, f.relayer, "missing")
	assert.IsErr(t, errors.ErrNotFound, err)
	_, err = f.ctrl.Cancel(f.db, f.conf, f.relayer, "missing")
	assert.IsErr(t, errors.ErrNotFound, err)
	f.assertBalance(t, f.payer, 100)
}

func TestFundEscrow(t *testing.T) {
	f := newFixture(t, 500)
	recipient := weavetest.NewCondition().Address()
	_, err := f.ctrl.Create(f.db, "e1", recipient, coin.NewAmount(50))
	assert.Nil(t, err)

	_, err = f.ctrl.Fund(f.db, "e1", f.payer, coin.NewAmount(40))
	assert.IsErr(t, errors.ErrInsufficientAmount, err)
	f.assertState(t, "e1", EscrowStateInitiated)
	f.assertBalance(t, f.payer, 500)

	e, err := f.ctrl.Fund(f.db, "e1", f.payer, coin.NewAmount(50))
	assert.Nil(t, err)
	assert.Equal(t, EscrowStateFunded, e.State)
	stored := f.assertState(t, "e1", EscrowStateFunded)
	f.assertBalance(t, f.payer, 450)
	f.assertBalance(t, stored.Custody, 50)

	_, err = f.ctrl.Fund(f.db, "e1", f.payer, coin.NewAmount(50))
	assert.IsErr(t, errors.ErrState, err)
	f.assertBalance(t, f.payer, 450)
	f.assertBalance(t, stored.Custody, 50)
}

func TestFundEscrowWithoutFunds(t *testing.T) {
	f := newFixture(t, 10)
	_, err := f.ctrl.Create(f.db, "e1", weavetest.NewCondition().Address(), coin.NewAmount(50))
	assert.Nil(t, err)

	_, err = f.ctrl.Fund(f.db, "e1", f.payer, coin.NewAmount(50))
	assert.IsErr(t, ErrTransferFailed, err)
	f.assertState(t, "e1", EscrowStateInitiated)
	f.assertBalance(t, f.payer, 10)
}

func TestCustodyIsolation(t *testing.T) {
	f := newFixture(t, 100)
	recipient := weavetest.NewCondition().Address()
	for _, id := range []string{"a", "b"} {
		_, err := f.ctrl.Create(f.db, id, recipient, coin.NewAmount(30))
		assert.Nil(t, err)
	}
	a, err := f.ctrl.Fund(f.db, "a", f.payer, coin.NewAmount(30))
	assert.Nil(t, err)
	b, err := f.ctrl.Fund(f.db, "b", f.payer, coin.NewAmount(40))
	assert.Nil(t, err)
	assert.Equal(t, false, a.Custody.Equals(b.Custody))

	_, err = f.ctrl.Settle(f.db, f.conf, f.relayer, "a")
	assert.Nil(t, err)
	f.assertBalance(t, recipient, 30)
	f.assertBalance(t, b.Custody, 40)
	f.assertState(t, "b", EscrowStateFunded)
}

func TestSettleEscrow(t *testing.T) {
	f := newFixture(t, 100)
	recipient := weavetest.NewCondition().Address()
	_, err := f.ctrl.Create(f.db, "e1", recipient, coin.NewAmount(100))
	assert.Nil(t, err)

	// Only funded escrows can be settled.
	_, err = f.ctrl.Settle(f.db, f.conf, f.relayer, "e1")
	assert.IsErr(t, errors.ErrState, err)

	funded, err := f.ctrl.Fund(f.db, "e1", f.payer, coin.NewAmount(100))
	assert.Nil(t, err)

	// Anyone but the relayer is rejected, recipient and payer included.
	for _, caller := range []weave.Address{f.payer, recipient, f.conf.Owner, nil} {
		_, err = f.ctrl.Settle(f.db, f.conf, caller, "e1")
		assert.IsErr(t, errors.ErrUnauthorized, err)
	}
	f.assertState(t, "e1", EscrowStateFunded)
	f.assertBalance(t, funded.Custody, 100)

	e, err := f.ctrl.Settle(f.db, f.conf, f.relayer, "e1")
	assert.Nil(t, err)
	assert.Equal(t, EscrowStateSettled, e.State)
	f.assertState(t, "e1", EscrowStateSettled)
	f.assertBalance(t, recipient, 100)
	f.assertBalance(t, funded.Custody, 0)
	f.assertBalance(t, f.payer, 0)

	_, err = f.ctrl.Settle(f.db, f.conf, f.relayer, "e1")
	assert.IsErr(t, errors.ErrState, err)
	f.assertBalance(t, recipient, 100)

	// Unauthorized takes precedence over the escrow state.
	_, err = f.ctrl.Settle(f.db, f.conf, f.payer, "e1")
	assert.IsErr(t, errors.ErrUnauthorized, err)
}

func TestCancelEscrow(t *testing.T) {
	cases := map[string]struct {
		fund        uint64
		settle      bool
		caller      func(*fixture) weave.Address
		wantErr     *errors.Error
		wantState   EscrowState
		wantRelayer uint64
		wantPayer   uint64
	}{
		"cancel initiated": {
			caller:    func(f *fixture) weave.Address { return f.relayer },
			wantState: EscrowStateCancelled,
			wantPayer: 100,
		},
		"cancel funded refunds the relayer": {
			fund:        50,
			caller:      func(f *fixture) weave.Address { return f.relayer },
			wantState:   EscrowStateCancelled,
			wantRelayer: 50,
			wantPayer:   50,
		},
		"cancel by payer": {
			fund:      50,
			caller:    func(f *fixture) weave.Address { return f.payer },
			wantErr:   errors.ErrUnauthorized,
			wantState: EscrowStateFunded,
			wantPayer: 50,
		},
		"cancel settled": {
			fund:      50,
			settle:    true,
			caller:    func(f *fixture) weave.Address { return f.relayer },
			wantErr:   errors.ErrState,
			wantState: EscrowStateSettled,
			wantPayer: 50,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t, 100)
			_, err := f.ctrl.Create(f.db, "e1", weavetest.NewCondition().Address(), coin.NewAmount(50))
			assert.Nil(t, err)
			if tc.fund > 0 {
				_, err := f.ctrl.Fund(f.db, "e1", f.payer, coin.NewAmount(tc.fund))
				assert.Nil(t, err)
			}
			if tc.settle {
				_, err := f.ctrl.Settle(f.db, f.conf, f.relayer, "e1")
				assert.Nil(t, err)
			}

			_, err = f.ctrl.Cancel(f.db, f.conf, tc.caller(f), "e1")
			assert.IsErr(t, tc.wantErr, err)
			f.assertState(t, "e1", tc.wantState)
			f.assertBalance(t, f.relayer, tc.wantRelayer)
			f.assertBalance(t, f.payer, tc.wantPayer)
		})
	}
}

func TestCancelTwice(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.ctrl.Create(f.db, "e1", weavetest.NewCondition().Address(), coin.NewAmount(5))
	assert.Nil(t, err)
	_, err = f.ctrl.Cancel(f.db, f.conf, f.relayer, "e1")
	assert.Nil(t, err)
	_, err = f.ctrl.Cancel(f.db, f.conf, f.relayer, "e1")
	assert.IsErr(t, errors.ErrState, err)
	_, err = f.ctrl.Fund(f.db, "e1", f.payer, coin.NewAmount(5))
	assert.IsErr(t, errors.ErrState, err)
}

func TestScenarioFundAndSettle(t *testing.T) {
	f := newFixture(t, 250)
	recipientX := weavetest.NewCondition().Address()

	_, err := f.ctrl.Create(f.db, "e1", recipientX, coin.NewAmount(100))
	assert.Nil(t, err)
	_, err = f.ctrl.Fund(f.db, "e1", f.payer, coin.NewAmount(100))
	assert.Nil(t, err)
	_, err = f.ctrl.Settle(f.db, f.conf, f.relayer, "e1")
	assert.Nil(t, err)

	f.assertBalance(t, recipientX, 100)
	f.assertBalance(t, f.payer, 150)
	f.assertState(t, "e1", EscrowStateSettled)
}

func TestScenarioOverpayAndCancel(t *testing.T) {
	f := newFixture(t, 60)
	recipientY := weavetest.NewCondition().Address()

	_, err := f.ctrl.Create(f.db, "e2", recipientY, coin.NewAmount(50))
	assert.Nil(t, err)
	funded, err := f.ctrl.Fund(f.db, "e2", f.payer, coin.NewAmount(60))
	assert.Nil(t, err)
	f.assertBalance(t, funded.Custody, 60)

	_, err = f.ctrl.Cancel(f.db, f.conf, f.relayer, "e2")
	assert.Nil(t, err)

	f.assertBalance(t, f.relayer, 60)
	f.assertBalance(t, funded.Custody, 0)
	f.assertBalance(t, recipientY, 0)
	f.assertState(t, "e2", EscrowStateCancelled)
}

func TestScenarioUnderpay(t *testing.T) {
	f := newFixture(t, 100)

	_, err := f.ctrl.Create(f.db, "e3", weavetest.NewCondition().Address(), coin.NewAmount(50))
	assert.Nil(t, err)
	_, err = f.ctrl.Fund(f.db, "e3", f.payer, coin.NewAmount(40))
	assert.IsErr(t, errors.ErrInsufficientAmount, err)
	f.assertState(t, "e3", EscrowStateInitiated)
}

// brokenCustody wraps a working custody service and fails selected calls.
type brokenCustody struct {
	CustodyService
	failMove bool
	failOpen bool
	failRead bool
}

func (b *brokenCustody) Balance(db weave.ReadOnlyKVStore, addr weave.Address) (coin.Amount, error) {
	if b.failRead {
		return nil, errors.Wrap(errors.ErrDatabase, "broken")
	}
	return b.CustodyService.Balance(db, addr)
}

func (b *brokenCustody) MoveCoins(db weave.KVStore, src, dest weave.Address, amount coin.Amount) error {
	if b.failMove {
		return errors.Wrap(errors.ErrDatabase, "broken")
	}
	return b.CustodyService.MoveCoins(db, src, dest, amount)
}

func (b *brokenCustody) OpenPurse(db weave.KVStore) (weave.Address, error) {
	if b.failOpen {
		return nil, errors.Wrap(errors.ErrDatabase, "broken")
	}
	return b.CustodyService.OpenPurse(db)
}

func TestFailedFundKeepsPurseSequence(t *testing.T) {
	f := newFixture(t, 10)
	_, err := f.ctrl.Create(f.db, "e1", weavetest.NewCondition().Address(), coin.NewAmount(50))
	assert.Nil(t, err)
	_, err = f.ctrl.Create(f.db, "e2", weavetest.NewCondition().Address(), coin.NewAmount(5))
	assert.Nil(t, err)

	_, err = f.ctrl.Fund(f.db, "e1", f.payer, coin.NewAmount(50))
	assert.IsErr(t, ErrTransferFailed, err)

	// The rejected funding must not have consumed a purse.
	e, err := f.ctrl.Fund(f.db, "e2", f.payer, coin.NewAmount(5))
	assert.Nil(t, err)
	first, err := cash.NewController(cash.NewBucket()).OpenPurse(store.MemStore())
	assert.Nil(t, err)
	assert.Equal(t, true, e.Custody.Equals(first))
}

// racingCustody rewrites the escrow state while coins are being moved, as a
// concurrent transition on the same record would.
type racingCustody struct {
	CustodyService
	t     testing.TB
	id    string
	state EscrowState
}

func (r *racingCustody) MoveCoins(db weave.KVStore, src, dest weave.Address, amount coin.Amount) error {
	if err := r.CustodyService.MoveCoins(db, src, dest, amount); err != nil {
		return err
	}
	var e Escrow
	if err := NewBucket().One(db, []byte(r.id), &e); err != nil {
		r.t.Fatalf("cannot load escrow %q: %s", r.id, err)
	}
	e.State = r.state
	if err := NewBucket().Put(db, []byte(r.id), &e); err != nil {
		r.t.Fatalf("cannot store escrow %q: %s", r.id, err)
	}
	return nil
}

func TestConcurrentTransitionRejected(t *testing.T) {
	cases := map[string]struct {
		race    EscrowState
		execute func(*fixture, Controller) error
	}{
		"settle after cancel": {
			race: EscrowStateCancelled,
			execute: func(f *fixture, c Controller) error {
				_, err := c.Settle(f.db, f.conf, f.relayer, "e1")
				return err
			},
		},
		"cancel after settle": {
			race: EscrowStateSettled,
			execute: func(f *fixture, c Controller) error {
				_, err := c.Cancel(f.db, f.conf, f.relayer, "e1")
				return err
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t, 100)
			_, err := f.ctrl.Create(f.db, "e1", weavetest.NewCondition().Address(), coin.NewAmount(50))
			assert.Nil(t, err)
			_, err = f.ctrl.Fund(f.db, "e1", f.payer, coin.NewAmount(50))
			assert.Nil(t, err)

			ctrl := NewController(&racingCustody{CustodyService: f.cash, t: t, id: "e1", state: tc.race})
			err = tc.execute(f, ctrl)
			assert.IsErr(t, errors.ErrState, err)
			// The competing write stays, it is not overwritten.
			f.assertState(t, "e1", tc.race)
		})
	}
}

func TestTransferFailureKeepsState(t *testing.T) {
	f := newFixture(t, 100)
	custody := &brokenCustody{CustodyService: f.cash}
	ctrl := NewController(custody)

	_, err := ctrl.Create(f.db, "e1", weavetest.NewCondition().Address(), coin.NewAmount(50))
	assert.Nil(t, err)

	custody.failOpen = true
	_, err = ctrl.Fund(f.db, "e1", f.payer, coin.NewAmount(50))
	assert.IsErr(t, ErrTransferFailed, err)
	f.assertState(t, "e1", EscrowStateInitiated)

	custody.failOpen = false
	custody.failMove = true
	_, err = ctrl.Fund(f.db, "e1", f.payer, coin.NewAmount(50))
	assert.IsErr(t, ErrTransferFailed, err)
	f.assertState(t, "e1", EscrowStateInitiated)
	f.assertBalance(t, f.payer, 100)

	custody.failMove = false
	_, err = ctrl.Fund(f.db, "e1", f.payer, coin.NewAmount(50))
	assert.Nil(t, err)

	custody.failMove = true
	_, err = ctrl.Settle(f.db, f.conf, f.relayer, "e1")
	assert.IsErr(t, ErrTransferFailed, err)
	f.assertState(t, "e1", EscrowStateFunded)
	_, err = ctrl.Cancel(f.db, f.conf, f.relayer, "e1")
	assert.IsErr(t, ErrTransferFailed, err)
	f.assertState(t, "e1", EscrowStateFunded)

	custody.failMove = false
	custody.failRead = true
	_, err = ctrl.Settle(f.db, f.conf, f.relayer, "e1")
	assert.IsErr(t, ErrTransferFailed, err)
	f.assertState(t, "e1", EscrowStateFunded)
}

func TestCorruptedStateRejected(t *testing.T) {
	f := newFixture(t, 100)
	_, err := f.ctrl.Create(f.db, "e1", weavetest.NewCondition().Address(), coin.NewAmount(50))
	assert.Nil(t, err)

	// Write a record with an unknown state directly, bypassing validation.
	raw, err := f.db.Get([]byte(BucketName + ":e1"))
	assert.Nil(t, err)
	var e Escrow
	assert.Nil(t, proto.Unmarshal(raw, &e))
	e.State = EscrowState(9)
	b, err := proto.Marshal(&e)
	assert.Nil(t, err)
	assert.Nil(t, f.db.Set([]byte(BucketName+":e1"), b))

	_, err = f.ctrl.Fund(f.db, "e1", f.payer, coin.NewAmount(50))
	assert.IsErr(t, errors.ErrState, err)
	f.assertBalance(t, f.payer, 100)
}

func TestEscrowPersistsOnCommit(t *testing.T) {
	commit, cleanup := weavetest.CommitKVStore(t)
	defer cleanup()

	cashCtrl := cash.NewController(cash.NewBucket())
	ctrl := NewController(cashCtrl)
	payer := weavetest.NewCondition().Address()
	recipient := weavetest.NewCondition().Address()

	db := commit.CacheWrap()
	assert.Nil(t, cashCtrl.IssueCoins(db, payer, coin.NewAmount(40)))
	_, err := ctrl.Create(db, "persisted", recipient, coin.NewAmount(40))
	assert.Nil(t, err)
	_, err = ctrl.Fund(db, "persisted", payer, coin.NewAmount(40))
	assert.Nil(t, err)

	// Nothing is visible before the cache is written.
	_, err = ctrl.Escrow(commit.Adapter(), "persisted")
	assert.IsErr(t, errors.ErrNotFound, err)

	assert.Nil(t, db.Write())
	_, err = commit.Commit()
	assert.Nil(t, err)

	e, err := ctrl.Escrow(commit.Adapter(), "persisted")
	assert.Nil(t, err)
	assert.Equal(t, EscrowStateFunded, e.State)
	held, err := cashCtrl.Balance(commit.Adapter(), e.Custody)
	assert.Nil(t, err)
	assert.Equal(t, true, held.Equals(coin.NewAmount(40)))
}
