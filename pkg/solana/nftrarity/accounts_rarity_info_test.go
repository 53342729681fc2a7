package nftrarity

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-staking/pkg/testutil"
)

func TestRarityInfoAccount(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 4)

	collection, err := ToFixedLength("Foo")
	require.NoError(t, err)
	rarity, err := ToFixedLength("Rare")
	require.NoError(t, err)

	expected := &RarityInfoAccount{
		Admin:      keys[0],
		Collection: collection,
		Rarity:     rarity,
		MintList:   []ed25519.PublicKey{keys[1], keys[2], keys[1]},
	}

	data := expected.Marshal()
	assert.Len(t, data, 8+32+16+16+4+3*32)

	// Accounts can be allocated with spare capacity
	padded := make([]byte, len(data)+64)
	copy(padded, data)

	var actual RarityInfoAccount
	require.NoError(t, actual.Unmarshal(padded))
	assert.Equal(t, expected, &actual)
	assert.Equal(t, "Foo", actual.CollectionLabel())
	assert.Equal(t, "Rare", actual.RarityLabel())
	assert.Equal(t, 3, actual.Len())
	assert.True(t, actual.Contains(keys[2]))
	assert.False(t, actual.Contains(keys[3]))

	cloned := actual.Clone()
	cloned.MintList[0][0] ^= 0xff
	assert.True(t, actual.Contains(keys[1]))

	// Truncated mint list
	assert.Equal(t, ErrInvalidAccountData, actual.Unmarshal(data[:len(data)-1]))

	// Wrong discriminator
	data[0] ^= 0xff
	assert.Equal(t, ErrInvalidAccountData, actual.Unmarshal(data))

	assert.Equal(t, ErrInvalidAccountData, actual.Unmarshal(make([]byte, RarityInfoAccountSize-1)))
}
