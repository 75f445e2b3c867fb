package store

import (
	"bytes"

	"github.com/iov-one/weave-escrow/errors"
)

// mergeIterator combines a snapshot of cached changes with the iterator
// of the backing store. Cached values shadow the parent, and deleted items
// hide the parent entry with the same key.
type mergeIterator struct {
	items     []keyer
	idx       int
	ascending bool

	parent     Iterator
	parentKey  []byte
	parentVal  []byte
	parentDone bool
}

var _ Iterator = (*mergeIterator)(nil)

func newMergeIterator(items []keyer, parent Iterator, ascending bool) (*mergeIterator, error) {
	iter := &mergeIterator{
		items:     items,
		ascending: ascending,
		parent:    parent,
	}
	if err := iter.advanceParent(); err != nil {
		parent.Release()
		return nil, err
	}
	return iter, nil
}

func (i *mergeIterator) advanceParent() error {
	key, value, err := i.parent.Next()
	switch {
	case err == nil:
		i.parentKey, i.parentVal = key, value
	case errors.ErrIteratorDone.Is(err):
		i.parentKey, i.parentVal, i.parentDone = nil, nil, true
	default:
		return err
	}
	return nil
}

// source marks where the current item comes from
type source int32

const (
	us source = iota
	parent
	both
	none
)

// firstKey selects the iterator that must be read from next.
func (i *mergeIterator) firstKey() source {
	cached := i.idx < len(i.items)
	if i.parentDone {
		if !cached {
			return none
		}
		return us
	}
	if !cached {
		return parent
	}

	cmp := bytes.Compare(i.parentKey, i.items[i.idx].Key())
	if !i.ascending {
		cmp = -cmp
	}
	switch {
	case cmp < 0:
		return parent
	case cmp > 0:
		return us
	default:
		return both
	}
}

// Next returns the next key-value pair, skipping over all deleted items.
func (i *mergeIterator) Next() ([]byte, []byte, error) {
	for {
		switch i.firstKey() {
		case none:
			return nil, nil, errors.ErrIteratorDone
		case parent:
			key, value := i.parentKey, i.parentVal
			if err := i.advanceParent(); err != nil {
				return nil, nil, err
			}
			return key, value, nil
		case both:
			// the cached item always shadows the parent
			if err := i.advanceParent(); err != nil {
				return nil, nil, err
			}
		}

		item := i.items[i.idx]
		i.idx++
		if set, ok := item.(setItem); ok {
			return set.key, set.value, nil
		}
	}
}

// Release releases the Iterator.
func (i *mergeIterator) Release() {
	i.parent.Release()
	i.items = nil
}

// SliceIterator wraps an Iterator over a slice of models
type SliceIterator struct {
	data []Model
	idx  int
}

var _ Iterator = (*SliceIterator)(nil)

// NewSliceIterator creates a new Iterator over this slice
func NewSliceIterator(data []Model) *SliceIterator {
	return &SliceIterator{
		data: data,
	}
}

// Next returns the next model or ErrIteratorDone once the whole slice was
// read.
func (s *SliceIterator) Next() ([]byte, []byte, error) {
	if s.idx >= len(s.data) {
		return nil, nil, errors.ErrIteratorDone
	}
	m := s.data[s.idx]
	s.idx++
	return m.Key, m.Value, nil
}

// Release releases the Iterator.
func (s *SliceIterator) Release() {
	s.data = nil
}
