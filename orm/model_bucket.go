package orm

import (
	"bytes"
	"fmt"
	"reflect"
	"regexp"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// ModelBucket stores models of a single type under a common key prefix.
// Secondary indexes are maintained on every write.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity, ErrType
	// is returned.
	One(db weave.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns true if an entity with given primary key exists.
	Has(db weave.ReadOnlyKVStore, key []byte) (bool, error)

	// Put saves given model in the database. Before writing, the model
	// is validated and all indexes are updated.
	Put(db weave.KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db weave.KVStore, key []byte) error

	// ByIndex returns all models that are referenced by the given index
	// value. Result is appended to the destination slice and the primary
	// keys of the found entities are returned.
	ByIndex(db weave.ReadOnlyKVStore, indexName string, key []byte, dest ModelSlicePtr) ([][]byte, error)

	// PrefixScan returns all models which primary key starts with given
	// prefix, ordered by the key.
	PrefixScan(db weave.ReadOnlyKVStore, prefix []byte, dest ModelSlicePtr) ([][]byte, error)

	// Register exposes the bucket content and all of its indexes via the
	// query router, under the given path.
	Register(path string, r weave.QueryRouter)
}

// ModelBucketOption is implemented by any function that can configure
// ModelBucket during creation.
type ModelBucketOption func(mb *modelBucket)

// WithIndex configures the bucket to build an index with given name. All
// entities stored in the bucket are indexed using the value returned by the
// indexer function. If an index is unique, there can be only one entity
// referenced per index value.
func WithIndex(name string, indexer Indexer, unique bool) ModelBucketOption {
	return func(mb *modelBucket) {
		if _, ok := mb.indexes[name]; ok {
			panic(fmt.Sprintf("index %q registered twice", name))
		}
		mb.indexes[name] = index{
			name:    name,
			prefix:  []byte("_i." + mb.name + "_" + name + ":"),
			indexer: indexer,
			unique:  unique,
		}
	}
}

// NewModelBucket returns a ModelBucket instance storing given model type
// under the bucket name. Name must be 3 to 10 lowercase characters.
func NewModelBucket(name string, m Model, opts ...ModelBucketOption) ModelBucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("illegal bucket: %s", name))
	}
	mb := &modelBucket{
		name:    name,
		prefix:  []byte(name + ":"),
		model:   reflect.TypeOf(m),
		indexes: make(map[string]index),
	}
	for _, fn := range opts {
		fn(mb)
	}
	return mb
}

type modelBucket struct {
	name    string
	prefix  []byte
	model   reflect.Type
	indexes map[string]index
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) dbKey(key []byte) []byte {
	return append(append([]byte(nil), mb.prefix...), key...)
}

func (mb *modelBucket) One(db weave.ReadOnlyKVStore, key []byte, dest Model) error {
	if !reflect.TypeOf(dest).AssignableTo(mb.model) {
		return errors.Wrapf(errors.ErrType, "%s cannot be represented as %T", mb.model, dest)
	}
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot read from the database")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %q not in the store", mb.name, key)
	}
	if err := proto.Unmarshal(raw, dest); err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot unmarshal %T: %s", dest, err)
	}
	return nil
}

func (mb *modelBucket) Has(db weave.ReadOnlyKVStore, key []byte) (bool, error) {
	ok, err := db.Has(mb.dbKey(key))
	if err != nil {
		return false, errors.Wrap(err, "cannot read from the database")
	}
	return ok, nil
}

func (mb *modelBucket) Put(db weave.KVStore, key []byte, m Model) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	if !reflect.TypeOf(m).AssignableTo(mb.model) {
		return errors.Wrapf(errors.ErrType, "cannot store %T in %s bucket", m, mb.name)
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}

	if len(mb.indexes) > 0 {
		prev, err := mb.load(db, key)
		if err != nil {
			return err
		}
		for _, idx := range mb.indexes {
			if err := idx.update(db, key, prev, m); err != nil {
				return errors.Wrapf(err, "cannot update %q index", idx.name)
			}
		}
	}

	raw, err := proto.Marshal(m)
	if err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot marshal %T: %s", m, err)
	}
	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

func (mb *modelBucket) Delete(db weave.KVStore, key []byte) error {
	prev, err := mb.load(db, key)
	if err != nil {
		return err
	}
	if prev == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %q not in the store", mb.name, key)
	}
	for _, idx := range mb.indexes {
		if err := idx.update(db, key, prev, nil); err != nil {
			return errors.Wrapf(err, "cannot update %q index", idx.name)
		}
	}
	if err := db.Delete(mb.dbKey(key)); err != nil {
		return errors.Wrap(err, "cannot delete from the database")
	}
	return nil
}

// load returns the model stored under given key or nil if it does not
// exist.
func (mb *modelBucket) load(db weave.ReadOnlyKVStore, key []byte) (Model, error) {
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return nil, errors.Wrap(err, "cannot read from the database")
	}
	if raw == nil {
		return nil, nil
	}
	m := reflect.New(mb.model.Elem()).Interface().(Model)
	if err := proto.Unmarshal(raw, m); err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "cannot unmarshal %T: %s", m, err)
	}
	return m, nil
}

func (mb *modelBucket) ByIndex(db weave.ReadOnlyKVStore, indexName string, key []byte, dest ModelSlicePtr) ([][]byte, error) {
	idx, ok := mb.indexes[indexName]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidIndex, "%s bucket has no %q index", mb.name, indexName)
	}
	appendTo, err := mb.sliceAppender(dest)
	if err != nil {
		return nil, err
	}
	refs, err := idx.refs(db, key)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		m, err := mb.load(db, ref)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, errors.Wrapf(errors.ErrDatabase, "%q index references missing %q", indexName, ref)
		}
		appendTo(m)
	}
	return refs, nil
}

func (mb *modelBucket) PrefixScan(db weave.ReadOnlyKVStore, prefix []byte, dest ModelSlicePtr) ([][]byte, error) {
	appendTo, err := mb.sliceAppender(dest)
	if err != nil {
		return nil, err
	}
	start := mb.dbKey(prefix)
	it, err := db.Iterator(start, prefixEnd(start))
	if err != nil {
		return nil, errors.Wrap(err, "cannot create iterator")
	}
	var keys [][]byte
	err = consumeIterator(it, func(key, value []byte) error {
		m := reflect.New(mb.model.Elem()).Interface().(Model)
		if err := proto.Unmarshal(value, m); err != nil {
			return errors.Wrapf(errors.ErrModel, "cannot unmarshal %T: %s", m, err)
		}
		appendTo(m)
		keys = append(keys, key[len(mb.prefix):])
		return nil
	})
	return keys, err
}

// sliceAppender validates that dest is a pointer to a slice of this bucket
// models and returns a function appending to it.
func (mb *modelBucket) sliceAppender(dest ModelSlicePtr) (func(Model), error) {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Ptr || dv.IsNil() || dv.Elem().Kind() != reflect.Slice {
		return nil, errors.Wrapf(errors.ErrType, "destination must be a slice pointer, got %T", dest)
	}
	slice := dv.Elem()
	switch elem := slice.Type().Elem(); elem {
	case mb.model:
		return func(m Model) {
			slice.Set(reflect.Append(slice, reflect.ValueOf(m)))
		}, nil
	case mb.model.Elem():
		return func(m Model) {
			slice.Set(reflect.Append(slice, reflect.ValueOf(m).Elem()))
		}, nil
	default:
		return nil, errors.Wrapf(errors.ErrType, "%s cannot be represented as %s", mb.model, elem)
	}
}

// index maintains a mapping from an index value to primary keys.
type index struct {
	name    string
	prefix  []byte
	indexer Indexer
	unique  bool
}

func (i index) dbKey(value []byte) []byte {
	return append(append([]byte(nil), i.prefix...), value...)
}

func (i index) update(db weave.KVStore, pk []byte, prev, next Model) error {
	var prevVal, nextVal []byte
	if prev != nil {
		v, err := i.indexer(prev)
		if err != nil {
			return err
		}
		prevVal = v
	}
	if next != nil {
		v, err := i.indexer(next)
		if err != nil {
			return err
		}
		nextVal = v
	}
	if len(prevVal) != 0 && bytes.Equal(prevVal, nextVal) {
		return nil
	}
	if len(prevVal) != 0 {
		if err := i.remove(db, prevVal, pk); err != nil {
			return err
		}
	}
	if len(nextVal) != 0 {
		if err := i.add(db, nextVal, pk); err != nil {
			return err
		}
	}
	return nil
}

func (i index) load(db weave.ReadOnlyKVStore, value []byte) (*MultiRef, error) {
	raw, err := db.Get(i.dbKey(value))
	if err != nil {
		return nil, errors.Wrap(err, "cannot read index")
	}
	var refs MultiRef
	if raw != nil {
		if err := proto.Unmarshal(raw, &refs); err != nil {
			return nil, errors.Wrapf(ErrInvalidIndex, "cannot unmarshal: %s", err)
		}
	}
	return &refs, nil
}

func (i index) save(db weave.KVStore, value []byte, refs *MultiRef) error {
	if len(refs.Refs) == 0 {
		return db.Delete(i.dbKey(value))
	}
	raw, err := proto.Marshal(refs)
	if err != nil {
		return errors.Wrapf(ErrInvalidIndex, "cannot marshal: %s", err)
	}
	return db.Set(i.dbKey(value), raw)
}

func (i index) add(db weave.KVStore, value, pk []byte) error {
	refs, err := i.load(db, value)
	if err != nil {
		return err
	}
	if i.unique && len(refs.Refs) != 0 {
		return errors.Wrapf(errors.ErrDuplicate, "unique %q index value %X", i.name, value)
	}
	if err := refs.Add(pk); err != nil {
		return err
	}
	return i.save(db, value, refs)
}

func (i index) remove(db weave.KVStore, value, pk []byte) error {
	refs, err := i.load(db, value)
	if err != nil {
		return err
	}
	if err := refs.Remove(pk); err != nil {
		return err
	}
	return i.save(db, value, refs)
}

func (i index) refs(db weave.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	refs, err := i.load(db, value)
	if err != nil {
		return nil, err
	}
	return refs.Refs, nil
}

// prefixEnd returns the smallest key greater than all keys starting with
// given prefix, or nil if there is none.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// consumeIterator calls fn for every remaining element and releases the
// iterator.
func consumeIterator(it weave.Iterator, fn func(key, value []byte) error) error {
	defer it.Release()
	for {
		key, value, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "iterator")
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
}
