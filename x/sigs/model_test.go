package sigs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/crypto"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store"
)

func TestUserModel(t *testing.T) {
	kv := store.MemStore()

	bucket := NewBucket()
	pub := crypto.GenPrivKeyEd25519().PublicKey()
	addr := pub.Address()

	// load fail
	var missing UserData
	err := bucket.One(kv, addr, &missing)
	assert.True(t, errors.ErrNotFound.Is(err))

	// create
	user, err := bucket.GetOrCreate(kv, pub)
	require.NoError(t, err)
	assert.NoError(t, user.Validate())
	assert.Equal(t, pub, user.Pubkey)
	assert.Equal(t, int64(0), user.Sequence)

	// set sequence
	assert.Error(t, user.CheckAndIncrementSequence(5))
	assert.NoError(t, user.CheckAndIncrementSequence(0))
	assert.Error(t, user.CheckAndIncrementSequence(0))
	assert.NoError(t, user.CheckAndIncrementSequence(1))
	assert.Equal(t, int64(2), user.Sequence)

	// save and load
	require.NoError(t, bucket.Save(kv, user))
	user2, err := bucket.GetOrCreate(kv, pub)
	require.NoError(t, err)
	assert.Equal(t, int64(2), user2.Sequence)
	assert.Equal(t, pub, user2.Pubkey)
}

func TestUserValidation(t *testing.T) {
	pub := crypto.GenPrivKeyEd25519().PublicKey()

	cases := map[string]struct {
		user *UserData
		ok   bool
	}{
		"valid": {
			user: &UserData{Metadata: &weave.Metadata{Schema: 1}, Pubkey: pub, Sequence: 17},
			ok:   true,
		},
		"missing metadata": {
			user: &UserData{Pubkey: pub},
		},
		"missing pubkey": {
			user: &UserData{Metadata: &weave.Metadata{Schema: 1}},
		},
		"negative sequence": {
			user: &UserData{Metadata: &weave.Metadata{Schema: 1}, Pubkey: pub, Sequence: -30},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := tc.user.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSequenceOverflow(t *testing.T) {
	u := UserData{Sequence: maxSequenceValue}
	err := u.CheckAndIncrementSequence(maxSequenceValue)
	assert.True(t, errors.ErrOverflow.Is(err))
	assert.Equal(t, int64(maxSequenceValue), u.Sequence)
}
