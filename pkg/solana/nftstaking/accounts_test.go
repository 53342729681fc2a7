package nftstaking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/nft-staking/pkg/testutil"
)

func TestPoolInfoAccount(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 5)

	pool := &PoolInfoAccount{
		Admin:               keys[0],
		ProveTokenAuthority: keys[1],
		ProveTokenVault:     keys[2],
		ProveTokenMint:      keys[3],
		RarityInfo:          keys[4],
		TotalLocked:         42,
	}

	data := pool.Marshal()
	require.Len(t, data, PoolInfoAccountSize)
	assert.Equal(t, poolInfoAccountDiscriminator, data[:8])
	assert.EqualValues(t, keys[0], data[PoolInfoAdminOffset:PoolInfoAdminOffset+32])
	assert.EqualValues(t, keys[4], data[PoolInfoRarityInfoOffset:PoolInfoRarityInfoOffset+32])

	var decoded PoolInfoAccount
	require.NoError(t, decoded.Unmarshal(data))
	assert.Equal(t, pool, &decoded)

	cloned := pool.Clone()
	cloned.Admin[0]++
	assert.NotEqual(t, pool.Admin, cloned.Admin)

	assert.Equal(t, ErrInvalidAccountData, decoded.Unmarshal(data[:PoolInfoAccountSize-1]))

	data[0]++
	assert.Equal(t, ErrInvalidAccountData, decoded.Unmarshal(data))
}

func TestNftVaultAccount(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)

	vault := &NftVaultAccount{
		User:     keys[0],
		PoolInfo: keys[1],
		NftMint:  keys[2],
	}

	data := vault.Marshal()
	require.Len(t, data, NftVaultAccountSize)
	assert.EqualValues(t, keys[0], data[NftVaultUserOffset:NftVaultUserOffset+32])
	assert.EqualValues(t, keys[1], data[NftVaultPoolInfoOffset:NftVaultPoolInfoOffset+32])
	assert.EqualValues(t, keys[2], data[NftVaultNftMintOffset:NftVaultNftMintOffset+32])

	var decoded NftVaultAccount
	require.NoError(t, decoded.Unmarshal(data))
	assert.Equal(t, vault, &decoded)

	// A pool is not a vault
	pool := &PoolInfoAccount{Admin: keys[0], ProveTokenAuthority: keys[1], ProveTokenVault: keys[2], ProveTokenMint: keys[0], RarityInfo: keys[1]}
	assert.Equal(t, ErrInvalidAccountData, decoded.Unmarshal(pool.Marshal()))
}
