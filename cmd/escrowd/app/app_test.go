package escrowd

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/app"
	"github.com/iov-one/weave-escrow/client"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/crypto"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/weavetest/assert"
	"github.com/iov-one/weave-escrow/x/cash"
	"github.com/iov-one/weave-escrow/x/escrow"
	"github.com/iov-one/weave-escrow/x/sigs"
	"github.com/iov-one/weave-escrow/x/utils"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

const testChainID = "escrow-test-chain"

// chain drives an in-process application block by block.
type chain struct {
	t      *testing.T
	app    app.BaseApp
	height int64
	seqs   map[string]int64
}

func newChain(t *testing.T, operator weave.Address) *chain {
	t.Helper()
	state, err := GenInitOptions([]string{operator.String()})
	assert.Nil(t, err)

	base, err := Application(Name, Stack(), TxDecoder, "", false)
	assert.Nil(t, err)
	base.WithInit(Initializers())
	base.WithLogger(log.NewNopLogger())
	base.InitChain(abci.RequestInitChain{ChainId: testChainID, AppStateBytes: state})
	c := &chain{t: t, app: base, seqs: make(map[string]int64)}
	// Queries read committed state only, genesis included.
	c.block(nil)
	return c
}

// block runs a full block containing at most one transaction.
func (c *chain) block(raw []byte) (chres abci.ResponseCheckTx, dres abci.ResponseDeliverTx) {
	c.height++
	header := abci.Header{Height: c.height, Time: time.Unix(1560000000+c.height, 0).UTC(), ChainID: testChainID}
	c.app.BeginBlock(abci.RequestBeginBlock{Header: header})
	if raw != nil {
		chres = c.app.CheckTx(raw)
		dres = c.app.DeliverTx(raw)
	}
	c.app.EndBlock(abci.RequestEndBlock{Height: c.height})
	c.app.Commit()
	return chres, dres
}

// submit signs msg with given key and runs it through a full block. The
// CheckTx and DeliverTx responses are returned.
func (c *chain) submit(key *crypto.PrivateKey, msg weave.Msg) (abci.ResponseCheckTx, abci.ResponseDeliverTx) {
	c.t.Helper()
	tx, err := NewTx(msg)
	assert.Nil(c.t, err)
	if key != nil {
		addr := key.PublicKey().Address().String()
		sig, err := sigs.SignTx(key, tx, testChainID, c.seqs[addr])
		assert.Nil(c.t, err)
		tx.Signatures = append(tx.Signatures, sig)
		c.seqs[addr]++
	}
	raw, err := proto.Marshal(tx)
	assert.Nil(c.t, err)
	return c.block(raw)
}

func (c *chain) balance(addr weave.Address) coin.Amount {
	c.t.Helper()
	res, err := client.AbciQuery(c.app, "/wallets", addr)
	assert.Nil(c.t, err)
	if len(res.Models) == 0 {
		return nil
	}
	var w cash.Wallet
	assert.Nil(c.t, proto.Unmarshal(res.Models[0].Value, &w))
	return w.Balance
}

func (c *chain) escrow(id string) *escrow.Escrow {
	c.t.Helper()
	res, err := client.AbciQuery(c.app, "/escrows", []byte(id))
	assert.Nil(c.t, err)
	if len(res.Models) == 0 {
		return nil
	}
	var e escrow.Escrow
	assert.Nil(c.t, proto.Unmarshal(res.Models[0].Value, &e))
	return &e
}

func assertAmount(t testing.TB, want uint64, got coin.Amount) {
	t.Helper()
	if !coin.NewAmount(want).Equals(got) {
		t.Fatalf("want amount %d, got %s", want, got)
	}
}

func assertOK(t testing.TB, chres abci.ResponseCheckTx, dres abci.ResponseDeliverTx) {
	t.Helper()
	if chres.Code != 0 {
		t.Fatalf("check failed: (%d) %s", chres.Code, chres.Log)
	}
	if dres.Code != 0 {
		t.Fatalf("deliver failed: (%d) %s", dres.Code, dres.Log)
	}
}

func TestEscrowLifecycle(t *testing.T) {
	operator := crypto.GenPrivKeyEd25519()
	payer := crypto.GenPrivKeyEd25519()
	recipient := crypto.GenPrivKeyEd25519().PublicKey().Address()
	opAddr := operator.PublicKey().Address()
	payerAddr := payer.PublicKey().Address()

	c := newChain(t, opAddr)
	assertAmount(t, 1000000000, c.balance(opAddr))

	// top up the payer
	chres, dres := c.submit(operator, &cash.SendMsg{
		Metadata: &weave.Metadata{Schema: 1},
		Src:      opAddr,
		Dest:     payerAddr,
		Amount:   coin.NewAmount(500),
		Memo:     "top up",
	})
	assertOK(t, chres, dres)
	assertAmount(t, 500, c.balance(payerAddr))

	// anyone can create an escrow
	chres, dres = c.submit(payer, &escrow.CreateMsg{
		Metadata:  &weave.Metadata{Schema: 1},
		EscrowId:  "order-1",
		Recipient: recipient,
		Amount:    coin.NewAmount(300),
	})
	assertOK(t, chres, dres)
	assert.Equal(t, []byte("order-1"), dres.Data)
	assert.Equal(t, escrow.EscrowStateInitiated, c.escrow("order-1").State)

	var tags []string
	for _, tag := range dres.Tags {
		tags = append(tags, string(tag.Key)+"="+string(tag.Value))
	}
	assert.Equal(t, []string{escrow.TagKey + "=order-1", utils.ActionKey + "=escrow/create"}, tags)

	// funding with less than required is rejected
	chres, dres = c.submit(payer, &escrow.FundMsg{
		Metadata: &weave.Metadata{Schema: 1},
		EscrowId: "order-1",
		Amount:   coin.NewAmount(299),
	})
	assert.Equal(t, errors.ErrInsufficientAmount.ABCICode(), dres.Code)
	assert.Equal(t, escrow.EscrowStateInitiated, c.escrow("order-1").State)
	assertAmount(t, 500, c.balance(payerAddr))

	chres, dres = c.submit(payer, &escrow.FundMsg{
		Metadata: &weave.Metadata{Schema: 1},
		EscrowId: "order-1",
		Amount:   coin.NewAmount(300),
	})
	assertOK(t, chres, dres)
	funded := c.escrow("order-1")
	assert.Equal(t, escrow.EscrowStateFunded, funded.State)
	assertAmount(t, 200, c.balance(payerAddr))
	assertAmount(t, 300, c.balance(funded.Custody))

	// only the relayer can settle
	_, dres = c.submit(payer, &escrow.SettleMsg{
		Metadata: &weave.Metadata{Schema: 1},
		EscrowId: "order-1",
	})
	assert.Equal(t, errors.ErrUnauthorized.ABCICode(), dres.Code)

	chres, dres = c.submit(operator, &escrow.SettleMsg{
		Metadata: &weave.Metadata{Schema: 1},
		EscrowId: "order-1",
	})
	assertOK(t, chres, dres)
	assert.Equal(t, escrow.EscrowStateSettled, c.escrow("order-1").State)
	assertAmount(t, 300, c.balance(recipient))
	assert.Equal(t, 0, len(c.balance(funded.Custody)))

	// a settled escrow cannot be cancelled
	_, dres = c.submit(operator, &escrow.CancelMsg{
		Metadata: &weave.Metadata{Schema: 1},
		EscrowId: "order-1",
	})
	assert.Equal(t, errors.ErrState.ABCICode(), dres.Code)

	// sequences were consumed even by the failed transactions
	nonce, err := client.AbciQuery(c.app, "/auth", payerAddr)
	assert.Nil(t, err)
	assert.Equal(t, 1, len(nonce.Models))
	var user sigs.UserData
	assert.Nil(t, proto.Unmarshal(nonce.Models[0].Value, &user))
	assert.Equal(t, int64(4), user.Sequence)
}

func TestCancelRefundsRelayer(t *testing.T) {
	operator := crypto.GenPrivKeyEd25519()
	opAddr := operator.PublicKey().Address()
	recipient := crypto.GenPrivKeyEd25519().PublicKey().Address()
	c := newChain(t, opAddr)

	chres, dres := c.submit(operator, &escrow.CreateMsg{
		Metadata:  &weave.Metadata{Schema: 1},
		EscrowId:  "order-2",
		Recipient: recipient,
		Amount:    coin.NewAmount(10),
	})
	assertOK(t, chres, dres)

	// overpaying is accepted and the whole payment is refunded on cancel
	chres, dres = c.submit(operator, &escrow.FundMsg{
		Metadata: &weave.Metadata{Schema: 1},
		EscrowId: "order-2",
		Amount:   coin.NewAmount(15),
	})
	assertOK(t, chres, dres)
	assertAmount(t, 1000000000-15, c.balance(opAddr))

	chres, dres = c.submit(operator, &escrow.CancelMsg{
		Metadata: &weave.Metadata{Schema: 1},
		EscrowId: "order-2",
	})
	assertOK(t, chres, dres)
	assert.Equal(t, escrow.EscrowStateCancelled, c.escrow("order-2").State)
	assertAmount(t, 1000000000, c.balance(opAddr))
	assert.Equal(t, 0, len(c.balance(recipient)))
}

func TestRejectedTransactions(t *testing.T) {
	operator := crypto.GenPrivKeyEd25519()
	c := newChain(t, operator.PublicKey().Address())

	create := &escrow.CreateMsg{
		Metadata:  &weave.Metadata{Schema: 1},
		EscrowId:  "order-3",
		Recipient: operator.PublicKey().Address(),
		Amount:    coin.NewAmount(1),
	}

	// unsigned
	chres, dres := c.submit(nil, create)
	assert.Equal(t, errors.ErrUnauthorized.ABCICode(), chres.Code)
	assert.Equal(t, errors.ErrUnauthorized.ABCICode(), dres.Code)

	// signed for another chain
	tx, err := NewTx(create)
	assert.Nil(t, err)
	sig, err := sigs.SignTx(operator, tx, "another-chain", 0)
	assert.Nil(t, err)
	tx.Signatures = append(tx.Signatures, sig)
	raw, err := proto.Marshal(tx)
	assert.Nil(t, err)
	dres = c.app.DeliverTx(raw)
	assert.Equal(t, errors.ErrUnauthorized.ABCICode(), dres.Code)

	// garbage bytes
	dres = c.app.DeliverTx([]byte{0xff, 0x01})
	assert.Equal(t, errors.ErrInput.ABCICode(), dres.Code)

	// unknown query path
	_, err = client.AbciQuery(c.app, "/unknown", nil)
	assert.IsErr(t, errors.ErrNotFound, err)
}

func TestGenInitOptions(t *testing.T) {
	addr := crypto.GenPrivKeyEd25519().PublicKey().Address()
	raw, err := GenInitOptions([]string{addr.String()})
	assert.Nil(t, err)

	var state struct {
		Conf struct {
			Escrow escrow.Configuration `json:"escrow"`
		} `json:"conf"`
		Cash []cash.GenesisAccount `json:"cash"`
	}
	assert.Nil(t, json.Unmarshal(raw, &state))
	assert.Nil(t, state.Conf.Escrow.Validate())
	assert.Equal(t, addr, state.Conf.Escrow.Relayer)
	assert.Equal(t, 1, len(state.Cash))
	assertAmount(t, 1000000000, state.Cash[0].Balance)

	_, err = GenInitOptions([]string{"1234"})
	assert.IsErr(t, errors.ErrInput, err)
}
