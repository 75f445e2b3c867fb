package app

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

// RegisterQuery registers raw store access under "/". Keys are full
// database keys, including the bucket prefix.
func RegisterQuery(qr weave.QueryRouter) {
	qr.Register("/", rawQuery{})
}

type rawQuery struct{}

var _ weave.QueryHandler = rawQuery{}

func (rawQuery) Query(db weave.ReadOnlyKVStore, mod string, data []byte) ([]weave.Model, error) {
	switch mod {
	case weave.KeyQueryMod:
		value, err := db.Get(data)
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, nil
		}
		return []weave.Model{weave.Pair(data, value)}, nil
	case weave.PrefixQueryMod:
		it, err := db.Iterator(data, prefixEnd(data))
		if err != nil {
			return nil, err
		}
		defer it.Release()

		var res []weave.Model
		for {
			key, value, err := it.Next()
			switch {
			case errors.ErrIteratorDone.Is(err):
				return res, nil
			case err != nil:
				return nil, err
			}
			res = append(res, weave.Pair(key, value))
		}
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}
}

// prefixEnd returns the smallest key that is greater than every key
// starting with given prefix. Nil is returned if no such key exists.
func prefixEnd(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

func marshalResults(rs *ResultSet) ([]byte, error) {
	bz, err := proto.Marshal(rs)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "cannot marshal result set: %s", err)
	}
	return bz, nil
}
