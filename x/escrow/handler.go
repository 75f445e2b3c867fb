package escrow

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/x"
	"github.com/tendermint/tendermint/libs/common"
)

const (
	createEscrowCost int64 = 300
	fundEscrowCost   int64 = 100
	settleEscrowCost int64 = 0
	cancelEscrowCost int64 = 0
)

// TagKey is the DeliverTx tag holding the ID of the processed escrow.
const TagKey = "escrow"

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r weave.Registry, auth x.Authenticator, custody CustodyService) {
	ctrl := NewController(custody)
	r.Handle(pathCreateMsg, CreateEscrowHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathFundMsg, FundEscrowHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathSettleMsg, SettleEscrowHandler{auth: auth, ctrl: ctrl})
	r.Handle(pathCancelMsg, CancelEscrowHandler{auth: auth, ctrl: ctrl})
}

// CreateEscrowHandler registers new escrows.
type CreateEscrowHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ weave.Handler = CreateEscrowHandler{}

// Check just verifies it is properly formed and returns
// the cost of executing it.
func (h CreateEscrowHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (weave.CheckResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return weave.CheckResult{}, err
	}
	if exists, err := h.ctrl.bucket.Has(db, []byte(msg.EscrowId)); err != nil {
		return weave.CheckResult{}, err
	} else if exists {
		return weave.CheckResult{}, errors.Wrapf(errors.ErrDuplicate, "escrow %q", msg.EscrowId)
	}
	return weave.NewCheck(createEscrowCost, ""), nil
}

// Deliver stores the escrow. The escrow ID is returned as the result data.
func (h CreateEscrowHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (weave.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return weave.DeliverResult{}, err
	}
	if _, err := h.ctrl.Create(db, msg.EscrowId, msg.Recipient, msg.Amount); err != nil {
		return weave.DeliverResult{}, err
	}
	weave.GetLogger(ctx).Info("escrow created",
		"id", msg.EscrowId, "recipient", msg.Recipient, "amount", msg.Amount)
	return result(msg.EscrowId), nil
}

func (h CreateEscrowHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*CreateMsg, error) {
	var msg CreateMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, err := x.Caller(ctx, h.auth); err != nil {
		return nil, err
	}
	return &msg, nil
}

// FundEscrowHandler takes payments for escrows from the signer wallet.
type FundEscrowHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ weave.Handler = FundEscrowHandler{}

// Check verifies that the escrow can be funded with the given amount.
func (h FundEscrowHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (weave.CheckResult, error) {
	msg, _, err := h.validate(ctx, db, tx)
	if err != nil {
		return weave.CheckResult{}, err
	}
	e, err := h.ctrl.Escrow(db, msg.EscrowId)
	if err != nil {
		return weave.CheckResult{}, err
	}
	if _, err := nextState(e.State, opFund); err != nil {
		return weave.CheckResult{}, err
	}
	if msg.Amount.Compare(e.Amount) < 0 {
		return weave.CheckResult{}, errors.Wrapf(errors.ErrInsufficientAmount, "paid %s, required %s", msg.Amount, e.Amount)
	}
	return weave.NewCheck(fundEscrowCost, ""), nil
}

// Deliver moves the paid amount into the escrow custody.
func (h FundEscrowHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (weave.DeliverResult, error) {
	msg, payer, err := h.validate(ctx, db, tx)
	if err != nil {
		return weave.DeliverResult{}, err
	}
	e, err := h.ctrl.Fund(db, msg.EscrowId, payer, msg.Amount)
	if err != nil {
		return weave.DeliverResult{}, err
	}
	weave.GetLogger(ctx).Info("escrow funded",
		"id", msg.EscrowId, "payer", payer, "paid", msg.Amount, "custody", e.Custody)
	return result(msg.EscrowId), nil
}

func (h FundEscrowHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*FundMsg, weave.Address, error) {
	var msg FundMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	payer, err := x.Caller(ctx, h.auth)
	if err != nil {
		return nil, nil, err
	}
	return &msg, payer, nil
}

// SettleEscrowHandler releases escrow funds to the recipient.
type SettleEscrowHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ weave.Handler = SettleEscrowHandler{}

// Check verifies the relayer signed and the escrow is funded.
func (h SettleEscrowHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (weave.CheckResult, error) {
	id, _, _, err := loadRelayerMsg(ctx, db, tx, h.auth, &SettleMsg{})
	if err != nil {
		return weave.CheckResult{}, err
	}
	e, err := h.ctrl.Escrow(db, id)
	if err != nil {
		return weave.CheckResult{}, err
	}
	if _, err := nextState(e.State, opSettle); err != nil {
		return weave.CheckResult{}, err
	}
	return weave.NewCheck(settleEscrowCost, ""), nil
}

// Deliver pays the custody balance to the recipient.
func (h SettleEscrowHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (weave.DeliverResult, error) {
	id, caller, conf, err := loadRelayerMsg(ctx, db, tx, h.auth, &SettleMsg{})
	if err != nil {
		return weave.DeliverResult{}, err
	}
	e, err := h.ctrl.Settle(db, conf, caller, id)
	if err != nil {
		return weave.DeliverResult{}, err
	}
	weave.GetLogger(ctx).Info("escrow settled", "id", id, "recipient", e.Recipient)
	return result(id), nil
}

// CancelEscrowHandler terminates escrows, refunding the relayer.
type CancelEscrowHandler struct {
	auth x.Authenticator
	ctrl Controller
}

var _ weave.Handler = CancelEscrowHandler{}

// Check verifies the relayer signed and the escrow is not terminated.
func (h CancelEscrowHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (weave.CheckResult, error) {
	id, _, _, err := loadRelayerMsg(ctx, db, tx, h.auth, &CancelMsg{})
	if err != nil {
		return weave.CheckResult{}, err
	}
	e, err := h.ctrl.Escrow(db, id)
	if err != nil {
		return weave.CheckResult{}, err
	}
	if _, err := nextState(e.State, opCancel); err != nil {
		return weave.CheckResult{}, err
	}
	return weave.NewCheck(cancelEscrowCost, ""), nil
}

// Deliver cancels the escrow and refunds the custody balance to the caller.
func (h CancelEscrowHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (weave.DeliverResult, error) {
	id, caller, conf, err := loadRelayerMsg(ctx, db, tx, h.auth, &CancelMsg{})
	if err != nil {
		return weave.DeliverResult{}, err
	}
	if _, err := h.ctrl.Cancel(db, conf, caller, id); err != nil {
		return weave.DeliverResult{}, err
	}
	weave.GetLogger(ctx).Info("escrow cancelled", "id", id, "refunded", caller)
	return result(id), nil
}

// escrowIDMsg is implemented by the messages that only reference an escrow.
type escrowIDMsg interface {
	weave.Msg
	GetEscrowId() string
}

// GetEscrowId returns the referenced escrow ID.
func (m *SettleMsg) GetEscrowId() string { return m.EscrowId }

// GetEscrowId returns the referenced escrow ID.
func (m *CancelMsg) GetEscrowId() string { return m.EscrowId }

// loadRelayerMsg loads the message into dest and returns the referenced
// escrow ID together with the relayer and the current configuration. The
// relayer must be one of the transaction signers, not necessarily the
// first one.
func loadRelayerMsg(ctx weave.Context, db weave.KVStore, tx weave.Tx, auth x.Authenticator, dest escrowIDMsg) (string, weave.Address, *Configuration, error) {
	if err := weave.LoadMsg(tx, dest); err != nil {
		return "", nil, nil, errors.Wrap(err, "load msg")
	}
	conf, err := LoadConfiguration(db)
	if err != nil {
		return "", nil, nil, err
	}
	if err := x.RequireAddress(ctx, auth, conf.Relayer); err != nil {
		return "", nil, nil, errors.Wrap(err, "relayer signature required")
	}
	return dest.GetEscrowId(), conf.Relayer, conf, nil
}

func result(id string) weave.DeliverResult {
	return weave.DeliverResult{
		Data: []byte(id),
		Tags: []common.KVPair{{Key: []byte(TagKey), Value: []byte(id)}},
	}
}
