/*
Package iavl provides a persistent, versioned CommitKVStore on top of the
tendermint iavl merkle tree. Every commit produces a new version and an app
hash that is reported back to tendermint.
*/
package iavl

import (
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store"
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"
)

const cacheSize = 10000

// CommitStore manages a iavl committed state
type CommitStore struct {
	tree *iavl.MutableTree
	db   dbm.DB
}

var _ store.CommitKVStore = (*CommitStore)(nil)

// NewCommitStore creates a new store with goleveldb disk backing. Call
// LoadLatestVersion before using it.
func NewCommitStore(path, name string) (*CommitStore, error) {
	db, err := dbm.NewGoLevelDB(name, path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "cannot open leveldb %q: %s", name, err)
	}
	return newCommitStore(db), nil
}

// NewMemCommitStore creates a store that keeps all versions in memory.
func NewMemCommitStore() *CommitStore {
	return newCommitStore(dbm.NewMemDB())
}

func newCommitStore(db dbm.DB) *CommitStore {
	return &CommitStore{
		tree: iavl.NewMutableTree(db, cacheSize),
		db:   db,
	}
}

// Get returns the value at last committed state
// returns nil iff key doesn't exist. Panics on nil key.
func (s *CommitStore) Get(key []byte) ([]byte, error) {
	_, val := s.tree.GetVersioned(key, s.tree.Version())
	return val, nil
}

// Commit the next version to disk, and returns info
func (s *CommitStore) Commit() (store.CommitID, error) {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return store.CommitID{}, errors.Wrapf(errors.ErrDatabase, "cannot save version: %s", err)
	}
	return store.CommitID{
		Version: version,
		Hash:    hash,
	}, nil
}

// LoadLatestVersion loads the latest persisted version.
// If there was a crash during the last commit, it is guaranteed
// to return a stable state, even if older.
func (s *CommitStore) LoadLatestVersion() error {
	if _, err := s.tree.Load(); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "cannot load tree: %s", err)
	}
	return nil
}

// LatestVersion returns info on the latest version saved to disk
func (s *CommitStore) LatestVersion() (store.CommitID, error) {
	return store.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}, nil
}

// CacheWrap gives us a savepoint to perform actions.
// Writing the cache updates the working tree, which is persisted
// with the next Commit.
func (s *CommitStore) CacheWrap() store.KVCacheWrap {
	return s.Adapter().CacheWrap()
}

// Adapter returns a KVStore operating directly on the working tree.
func (s *CommitStore) Adapter() store.CacheableKVStore {
	return store.BTreeCacheable{KVStore: treeStore{tree: s.tree}}
}

// Close releases the underlying database.
func (s *CommitStore) Close() {
	s.db.Close()
}

// treeStore exposes the mutable working tree as a KVStore.
type treeStore struct {
	tree *iavl.MutableTree
}

var _ store.KVStore = treeStore{}

func (t treeStore) Get(key []byte) ([]byte, error) {
	_, val := t.tree.Get(key)
	return val, nil
}

func (t treeStore) Has(key []byte) (bool, error) {
	return t.tree.Has(key), nil
}

func (t treeStore) Set(key, value []byte) error {
	if value == nil {
		return errors.Wrap(errors.ErrDatabase, "nil value")
	}
	t.tree.Set(key, value)
	return nil
}

func (t treeStore) Delete(key []byte) error {
	t.tree.Remove(key)
	return nil
}

// NewBatch returns a batch that writes into the working tree. Atomicity is
// provided by the tree version that is saved on commit.
func (t treeStore) NewBatch() store.Batch {
	return store.NewNonAtomicBatch(t)
}

// Iterator over a domain of keys in ascending order. End is exclusive.
func (t treeStore) Iterator(start, end []byte) (store.Iterator, error) {
	return t.iterate(start, end, true), nil
}

// ReverseIterator over a domain of keys in descending order. End is exclusive.
func (t treeStore) ReverseIterator(start, end []byte) (store.Iterator, error) {
	return t.iterate(start, end, false), nil
}

func (t treeStore) iterate(start, end []byte, ascending bool) store.Iterator {
	var res []store.Model
	t.tree.IterateRange(start, end, ascending, func(key, value []byte) bool {
		res = append(res, store.Pair(key, value))
		return false
	})
	return store.NewSliceIterator(res)
}
