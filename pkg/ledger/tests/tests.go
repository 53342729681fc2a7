package tests

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-staking/pkg/ledger"
)

func RunTests(t *testing.T, s ledger.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s ledger.Store){
		testRoundTrip,
		testCommitDeletesEmptyAccounts,
		testGetAllByOwner,
		testCommitIsAtomic,
		testLamportsLimit,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s ledger.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		expected := &ledger.Account{
			Address:  newKey(t),
			Owner:    newKey(t),
			Lamports: 12345,
			Data:     []byte{1, 2, 3, 4},
			Slot:     1,
		}

		_, err := s.Get(ctx, expected.Address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		start := time.Now()
		require.NoError(t, s.Commit(ctx, expected))
		assert.True(t, expected.LastUpdatedAt.After(start))

		actual, err := s.Get(ctx, expected.Address)
		require.NoError(t, err)
		assertEquivalentAccounts(t, expected, actual)

		// Mutating the returned account doesn't affect the store
		actual.Data[0] = 0xff
		actual, err = s.Get(ctx, expected.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 1, actual.Data[0])

		expected.Lamports = 1
		expected.Data = nil
		expected.Owner = newKey(t)
		expected.Executable = true
		expected.Slot = 2
		require.NoError(t, s.Commit(ctx, expected))

		actual, err = s.Get(ctx, expected.Address)
		require.NoError(t, err)
		assertEquivalentAccounts(t, expected, actual)

		count, err = s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func testCommitDeletesEmptyAccounts(t *testing.T, s ledger.Store) {
	t.Run("testCommitDeletesEmptyAccounts", func(t *testing.T) {
		ctx := context.Background()

		account := &ledger.Account{
			Address:  newKey(t),
			Owner:    newKey(t),
			Lamports: 10,
			Data:     make([]byte, 165),
		}
		require.NoError(t, s.Commit(ctx, account))

		account.Lamports = 0
		require.NoError(t, s.Commit(ctx, account))

		_, err := s.Get(ctx, account.Address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		// Deleting an account that doesn't exist is a no-op
		require.NoError(t, s.Commit(ctx, account))

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)
	})
}

func testGetAllByOwner(t *testing.T, s ledger.Store) {
	t.Run("testGetAllByOwner", func(t *testing.T) {
		ctx := context.Background()

		owner := newKey(t)
		other := newKey(t)
		tag := newKey(t)

		var accounts []*ledger.Account
		for i := 0; i < 6; i++ {
			data := make([]byte, 72)
			if i < 3 {
				copy(data[8:], tag)
			}
			if i == 5 {
				data = data[:40]
			}

			accountOwner := owner
			if i == 4 {
				accountOwner = other
			}

			accounts = append(accounts, &ledger.Account{
				Address:  newKey(t),
				Owner:    accountOwner,
				Lamports: uint64(i + 1),
				Data:     data,
			})
		}
		require.NoError(t, s.Commit(ctx, accounts...))

		actual, err := s.GetAllByOwner(ctx, owner)
		require.NoError(t, err)
		assertAddresses(t, actual, accounts[0], accounts[1], accounts[2], accounts[3], accounts[5])

		actual, err = s.GetAllByOwner(ctx, owner, ledger.DataSizeFilter(72))
		require.NoError(t, err)
		assertAddresses(t, actual, accounts[0], accounts[1], accounts[2], accounts[3])

		actual, err = s.GetAllByOwner(ctx, owner, ledger.MemcmpFilter{Offset: 8, Bytes: tag})
		require.NoError(t, err)
		assertAddresses(t, actual, accounts[0], accounts[1], accounts[2])

		actual, err = s.GetAllByOwner(ctx, owner, ledger.DataSizeFilter(72), ledger.MemcmpFilter{Offset: 8, Bytes: make([]byte, 32)})
		require.NoError(t, err)
		assertAddresses(t, actual, accounts[3])

		// Comparison that runs past the end of the data never matches
		actual, err = s.GetAllByOwner(ctx, owner, ledger.MemcmpFilter{Offset: 40, Bytes: make([]byte, 32)})
		require.NoError(t, err)
		assertAddresses(t, actual, accounts[0], accounts[1], accounts[2], accounts[3])

		actual, err = s.GetAllByOwner(ctx, newKey(t))
		require.NoError(t, err)
		assert.Empty(t, actual)
	})
}

func testCommitIsAtomic(t *testing.T, s ledger.Store) {
	t.Run("testCommitIsAtomic", func(t *testing.T) {
		ctx := context.Background()

		valid := &ledger.Account{
			Address:  newKey(t),
			Owner:    newKey(t),
			Lamports: 10,
		}
		invalid := &ledger.Account{
			Address:  newKey(t),
			Lamports: 10,
		}

		assert.Error(t, s.Commit(ctx, valid, invalid))

		_, err := s.Get(ctx, valid.Address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)
	})
}

func testLamportsLimit(t *testing.T, s ledger.Store) {
	t.Run("testLamportsLimit", func(t *testing.T) {
		ctx := context.Background()

		account := &ledger.Account{
			Address:  newKey(t),
			Owner:    newKey(t),
			Lamports: ledger.MaxLamports,
		}
		require.NoError(t, s.Commit(ctx, account))

		actual, err := s.Get(ctx, account.Address)
		require.NoError(t, err)
		assert.EqualValues(t, ledger.MaxLamports, actual.Lamports)

		account.Lamports++
		assert.ErrorIs(t, s.Commit(ctx, account), ledger.ErrLamportsOutOfRange)

		actual, err = s.Get(ctx, account.Address)
		require.NoError(t, err)
		assert.EqualValues(t, ledger.MaxLamports, actual.Lamports)
	})
}

func assertAddresses(t *testing.T, actual []*ledger.Account, expected ...*ledger.Account) {
	require.Len(t, actual, len(expected))

	var expectedAddresses, actualAddresses []string
	for _, account := range expected {
		expectedAddresses = append(expectedAddresses, account.String())
	}
	for i, account := range actual {
		actualAddresses = append(actualAddresses, account.String())
		if i > 0 {
			assert.True(t, actual[i-1].String() < account.String())
		}
	}
	assert.ElementsMatch(t, expectedAddresses, actualAddresses)
}

func assertEquivalentAccounts(t *testing.T, obj1, obj2 *ledger.Account) {
	assert.EqualValues(t, obj1.Address, obj2.Address)
	assert.EqualValues(t, obj1.Owner, obj2.Owner)
	assert.Equal(t, obj1.Lamports, obj2.Lamports)
	assert.Equal(t, len(obj1.Data), len(obj2.Data))
	if len(obj1.Data) > 0 {
		assert.Equal(t, obj1.Data, obj2.Data)
	}
	assert.Equal(t, obj1.Executable, obj2.Executable)
	assert.Equal(t, obj1.Slot, obj2.Slot)
}

func newKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub
}
