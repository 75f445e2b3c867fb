package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/weavetest/assert"
)

// TestSuite runs the same set of checks against any CacheableKVStore
// implementation. Package specific tests only provide the constructor.
type TestSuite struct {
	makeBase TestStoreConstructor
}

// TestStoreConstructor returns a fresh store together with a function
// releasing all its resources.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{
		makeBase: constructor,
	}
}

// GetSet ensures that writes are visible only in the layer they were made
// in until that layer is written to its parent.
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	k, v := []byte("escrow-1"), []byte("initiated")
	s.AssertGetHas(t, base, k, nil, false)
	assert.Nil(t, base.Set(k, v))
	s.AssertGetHas(t, base, k, v, true)

	cache := base.CacheWrap()
	s.AssertGetHas(t, cache, k, v, true)

	k2, v2 := []byte("escrow-2"), []byte("funded")
	s.AssertGetHas(t, cache, k2, nil, false)
	assert.Nil(t, cache.Set(k2, v2))
	s.AssertGetHas(t, cache, k2, v2, true)
	s.AssertGetHas(t, base, k2, nil, false)

	assert.Nil(t, cache.Write())
	s.AssertGetHas(t, base, k, v, true)
	s.AssertGetHas(t, base, k2, v2, true)

	// a discarded layer leaves no trace
	k3, v3 := []byte("escrow-3"), []byte("settled")
	discarded := base.CacheWrap()
	assert.Nil(t, discarded.Set(k3, v3))
	assert.Nil(t, discarded.Delete(k))
	discarded.Discard()
	s.AssertGetHas(t, base, k, v, true)
	s.AssertGetHas(t, base, k3, nil, false)

	// deletes are propagated on write
	deleting := base.CacheWrap()
	assert.Nil(t, deleting.Delete(k))
	assert.Nil(t, deleting.Write())
	s.AssertGetHas(t, base, k, nil, false)
	s.AssertGetHas(t, base, k2, v2, true)
}

// CacheConflicts checks that we can handle
// overwriting values and deleting underlying values
func (s *TestSuite) CacheConflicts(t *testing.T) {
	ks := randKeys(4, 16)
	vs := randKeys(4, 40)

	parent, cleanup := s.makeBase()
	defer cleanup()

	for _, op := range []Op{SetOp(ks[1], vs[1]), SetOp(ks[2], vs[2])} {
		assert.Nil(t, op.Apply(parent))
	}

	child := parent.CacheWrap()
	for _, op := range []Op{SetOp(ks[1], vs[0]), SetOp(ks[3], vs[3]), DelOp(ks[2])} {
		assert.Nil(t, op.Apply(child))
	}

	s.AssertGetHas(t, parent, ks[1], vs[1], true)
	s.AssertGetHas(t, parent, ks[2], vs[2], true)
	s.AssertGetHas(t, parent, ks[3], nil, false)

	want := []Model{Pair(ks[1], vs[0]), Pair(ks[2], nil), Pair(ks[3], vs[3])}
	for _, q := range want {
		s.AssertGetHas(t, child, q.Key, q.Value, q.Value != nil)
	}

	assert.Nil(t, child.Write())
	for _, q := range want {
		s.AssertGetHas(t, parent, q.Key, q.Value, q.Value != nil)
	}
}

// FuzzIterator makes sure iteration over a cache combined with its parent
// returns all visible entries in order, in both directions.
func (s *TestSuite) FuzzIterator(t *testing.T) {
	const size = 50

	childSet := randModels(size, 8, 40)
	parentSet := randModels(size, 8, 40)
	// deleting a parent value must hide it in the child
	hidden := parentSet[size-5:]
	parentSet = parentSet[:size-5]

	var parentOps, childOps []Op
	parentOps = append(parentOps, makeSetOps(parentSet...)...)
	parentOps = append(parentOps, makeSetOps(hidden...)...)
	childOps = append(childOps, makeSetOps(childSet...)...)
	childOps = append(childOps, makeDelOps(hidden...)...)
	childOps = append(childOps, makeDelOps(randModels(10, 8, 40)...)...)

	all := sortModels(append(append([]Model{}, childSet...), parentSet...))
	n := len(all)

	base, cleanup := s.makeBase()
	defer cleanup()
	verifyIteration(t, base, parentOps, childOps, []rangeQuery{
		{nil, nil, false, all},
		{all[10].Key, nil, false, all[10:]},
		{nil, all[n-8].Key, false, all[:n-8]},
		{all[17].Key, all[28].Key, false, all[17:28]},
		{nil, nil, true, reverse(all)},
		{all[34].Key, nil, true, reverse(all[34:])},
		{nil, all[19].Key, true, reverse(all[:19])},
		{all[6].Key, all[26].Key, true, reverse(all[6:26])},
	})
}

// IteratorWithConflicts covers overwritten and deleted keys in both layers.
func (s *TestSuite) IteratorWithConflicts(t *testing.T) {
	ms := randModels(6, 20, 100)
	a, a2, b, b2, c, d := ms[0], ms[1], ms[2], ms[3], ms[4], ms[5]
	a2.Key = a.Key
	b2.Key = b.Key

	overwritten := sortModels([]Model{a2, b2, c, d})

	cases := map[string]struct {
		pre     []Op
		child   []Op
		queries []rangeQuery
	}{
		"overwrite data should show child data": {
			pre:   makeSetOps(a, b, c),
			child: makeSetOps(a2, b2, d),
			queries: []rangeQuery{
				{nil, nil, false, overwritten},
				{overwritten[1].Key, overwritten[3].Key, false, overwritten[1:3]},
				{nil, nil, true, reverse(overwritten)},
			},
		},
		"deleted data is skipped": {
			pre:   makeSetOps(a, c, d),
			child: makeDelOps(a, b, d),
			queries: []rangeQuery{
				{nil, nil, false, []Model{c}},
				{nil, c.Key, false, nil},
				{nil, nil, true, []Model{c}},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			base, cleanup := s.makeBase()
			defer cleanup()
			verifyIteration(t, base, tc.pre, tc.child, tc.queries)
		})
	}
}

func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}

// range query checks the results of iteration
type rangeQuery struct {
	start    []byte
	end      []byte
	reverse  bool
	expected []Model
}

func verifyIteration(t testing.TB, base CacheableKVStore, pre, childOps []Op, queries []rangeQuery) {
	t.Helper()
	for _, op := range pre {
		assert.Nil(t, op.Apply(base))
	}
	child := base.CacheWrap()
	for _, op := range childOps {
		assert.Nil(t, op.Apply(child))
	}

	for _, q := range queries {
		var (
			iter Iterator
			err  error
		)
		if q.reverse {
			iter, err = child.ReverseIterator(q.start, q.end)
		} else {
			iter, err = child.Iterator(q.start, q.end)
		}
		assert.Nil(t, err)

		for i, want := range q.expected {
			key, value, err := iter.Next()
			assert.Nil(t, err)
			if !bytes.Equal(want.Key, key) {
				t.Fatalf("want key %d: %X, got %X", i, want.Key, key)
			}
			assert.Equal(t, want.Value, value)
		}
		if _, _, err := iter.Next(); !errors.ErrIteratorDone.Is(err) {
			t.Fatalf("want ErrIteratorDone, got %+v", err)
		}
		iter.Release()
	}
}

func randBytes(length int) []byte {
	res := make([]byte, length)
	if _, err := rand.Read(res); err != nil {
		panic(err)
	}
	return res
}

// randKeys returns a slice of count keys, all of a given size
func randKeys(count, size int) [][]byte {
	res := make([][]byte, count)
	for i := 0; i < count; i++ {
		res[i] = randBytes(size)
	}
	return res
}

// randModels produces a random set of models
func randModels(count, keySize, valueSize int) []Model {
	models := make([]Model, count)
	for i := 0; i < count; i++ {
		models[i].Key = randBytes(keySize)
		models[i].Value = randBytes(valueSize)
	}
	return models
}

// reverse returns a copy of the slice with elements in reverse order
func reverse(models []Model) []Model {
	max := len(models)
	res := make([]Model, max)
	for i := 0; i < max; i++ {
		res[i] = models[max-1-i]
	}
	return res
}

// sortModels returns a copy of the models sorted by key
func sortModels(models []Model) []Model {
	res := make([]Model, len(models))
	copy(res, models)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}

func makeSetOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = SetOp(m.Key, m.Value)
	}
	return res
}

func makeDelOps(ms ...Model) []Op {
	res := make([]Op, len(ms))
	for i, m := range ms {
		res[i] = DelOp(m.Key)
	}
	return res
}
