package app

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

// CommitStore keeps the committed ledger state together with the two
// pending views of the current block: one for DeliverTx and one for
// CheckTx. Only the deliver view is written on commit.
type CommitStore struct {
	committed weave.CommitKVStore
	deliver   weave.KVCacheWrap
	check     weave.KVCacheWrap
}

// NewCommitStore opens the latest version of the store. It panics when the
// store cannot be loaded, as the node cannot start without its state.
func NewCommitStore(store weave.CommitKVStore) *CommitStore {
	if err := store.LoadLatestVersion(); err != nil {
		panic(err)
	}
	cs := &CommitStore{committed: store}
	cs.reset()
	return cs
}

func (cs *CommitStore) reset() {
	cs.deliver = cs.committed.CacheWrap()
	cs.check = cs.committed.CacheWrap()
}

// CommitInfo returns the height and hash of the last commit.
func (cs *CommitStore) CommitInfo() (weave.CommitID, error) {
	return cs.committed.LatestVersion()
}

// Commit persists the changes of all delivered transactions and drops
// whatever CheckTx accumulated.
func (cs *CommitStore) Commit() (weave.CommitID, error) {
	if err := cs.deliver.Write(); err != nil {
		return weave.CommitID{}, errors.Wrap(err, "flush deliver state")
	}
	cs.check.Discard()

	id, err := cs.committed.Commit()
	if err != nil {
		return id, err
	}
	cs.reset()
	return id, nil
}

// CheckStore is the view CheckTx must run against.
func (cs *CommitStore) CheckStore() weave.CacheableKVStore {
	return cs.check
}

// DeliverStore is the view DeliverTx must run against.
func (cs *CommitStore) DeliverStore() weave.CacheableKVStore {
	return cs.deliver
}

// chainIDKey lives under the "_wv:" prefix reserved for framework data.
const chainIDKey = "_wv:chainID"

// mustLoadChainID returns the stored chain ID or an empty string before
// genesis. A database failure panics.
func mustLoadChainID(db weave.ReadOnlyKVStore) string {
	raw, err := db.Get([]byte(chainIDKey))
	if err != nil {
		panic(err)
	}
	return string(raw)
}

// saveChainID records the chain ID during genesis. It can be written only
// once.
func saveChainID(db weave.KVStore, chainID string) error {
	if !weave.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id %q", chainID)
	}
	switch exists, err := db.Has([]byte(chainIDKey)); {
	case err != nil:
		return errors.Wrap(err, "load chain id")
	case exists:
		return errors.Wrap(errors.ErrImmutable, "chain id is set at genesis only")
	}
	if err := db.Set([]byte(chainIDKey), []byte(chainID)); err != nil {
		return errors.Wrap(err, "save chain id")
	}
	return nil
}
