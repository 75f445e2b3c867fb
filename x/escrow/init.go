package escrow

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/gconf"
)

const optKey = "escrow"

// GenesisEscrow is an escrow declared in the genesis file. It is created in
// the Initiated state.
type GenesisEscrow struct {
	ID        string        `json:"id"`
	Recipient weave.Address `json:"recipient"`
	Amount    coin.Amount   `json:"amount"`
}

// Initializer fulfils the Initializer interface to load data from the genesis file
type Initializer struct{}

var _ weave.Initializer = Initializer{}

// FromGenesis stores the escrow configuration found under "conf" and creates
// all declared escrows. The configuration is required.
func (Initializer) FromGenesis(opts weave.Options, db weave.KVStore) error {
	if err := gconf.InitConfig(db, opts, configPkg, &Configuration{}); err != nil {
		return errors.Wrap(err, "init config")
	}

	var escrows []GenesisEscrow
	if err := opts.ReadOptions(optKey, &escrows); err != nil {
		return err
	}
	// Genesis escrows are never funded, so no custody service is needed.
	ctrl := NewController(nil)
	for i, e := range escrows {
		if err := e.Recipient.Validate(); err != nil {
			return errors.Wrapf(err, "escrow %d: recipient", i)
		}
		if err := validatePositive(e.Amount); err != nil {
			return errors.Wrapf(err, "escrow %d", i)
		}
		if _, err := ctrl.Create(db, e.ID, e.Recipient, e.Amount); err != nil {
			return errors.Wrapf(err, "escrow %d", i)
		}
	}
	return nil
}
