//nolint
package store

import "github.com/iov-one/weave-escrow"

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = weave.ReadOnlyKVStore
type SetDeleter = weave.SetDeleter
type KVStore = weave.KVStore
type Batch = weave.Batch
type Iterator = weave.Iterator
type CacheableKVStore = weave.CacheableKVStore
type KVCacheWrap = weave.KVCacheWrap
type CommitKVStore = weave.CommitKVStore
type CommitID = weave.CommitID
type Model = weave.Model

// Pair constructs a model from a key-value pair
func Pair(key, value []byte) Model {
	return weave.Pair(key, value)
}
