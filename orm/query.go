package orm

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

func (mb *modelBucket) Register(path string, r weave.QueryRouter) {
	r.Register("/"+path, bucketQuery{mb: mb})
	for name, idx := range mb.indexes {
		r.Register("/"+path+"/"+name, indexQuery{mb: mb, idx: idx})
	}
}

// bucketQuery returns raw models by primary key or key prefix. Returned keys
// do not contain the bucket prefix.
type bucketQuery struct {
	mb *modelBucket
}

var _ weave.QueryHandler = bucketQuery{}

func (q bucketQuery) Query(db weave.ReadOnlyKVStore, mod string, data []byte) ([]weave.Model, error) {
	switch mod {
	case weave.KeyQueryMod:
		raw, err := db.Get(q.mb.dbKey(data))
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, nil
		}
		return []weave.Model{weave.Pair(data, raw)}, nil
	case weave.PrefixQueryMod:
		start := q.mb.dbKey(data)
		it, err := db.Iterator(start, prefixEnd(start))
		if err != nil {
			return nil, err
		}
		var res []weave.Model
		err = consumeIterator(it, func(key, value []byte) error {
			res = append(res, weave.Pair(key[len(q.mb.prefix):], value))
			return nil
		})
		return res, err
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}
}

// indexQuery returns raw models referenced by an index value or by all
// index values sharing a prefix.
type indexQuery struct {
	mb  *modelBucket
	idx index
}

var _ weave.QueryHandler = indexQuery{}

func (q indexQuery) Query(db weave.ReadOnlyKVStore, mod string, data []byte) ([]weave.Model, error) {
	var refs [][]byte
	switch mod {
	case weave.KeyQueryMod:
		r, err := q.idx.refs(db, data)
		if err != nil {
			return nil, err
		}
		refs = r
	case weave.PrefixQueryMod:
		start := q.idx.dbKey(data)
		it, err := db.Iterator(start, prefixEnd(start))
		if err != nil {
			return nil, err
		}
		err = consumeIterator(it, func(key, value []byte) error {
			r, err := q.idx.refs(db, key[len(q.idx.prefix):])
			if err != nil {
				return err
			}
			refs = append(refs, r...)
			return nil
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}

	res := make([]weave.Model, 0, len(refs))
	for _, ref := range refs {
		raw, err := db.Get(q.mb.dbKey(ref))
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, errors.Wrapf(errors.ErrDatabase, "%q index references missing %q", q.idx.name, ref)
		}
		res = append(res, weave.Pair(ref, raw))
	}
	return res, nil
}
