package nftstaking

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

const NftVaultAccountSize = (8 + // discriminator
	32 + // user
	32 + // pool_info
	32) // nft_mint

// Offsets of fields that are matched when scanning program accounts
const (
	NftVaultUserOffset     = 8
	NftVaultPoolInfoOffset = 8 + 32
	NftVaultNftMintOffset  = 8 + 2*32
)

var nftVaultAccountDiscriminator = []byte{191, 121, 99, 189, 107, 181, 82, 19}

// NftVaultAccount records an asset escrowed by a user in a pool. It exists
// only while the asset is staked.
type NftVaultAccount struct {
	User     ed25519.PublicKey
	PoolInfo ed25519.PublicKey
	NftMint  ed25519.PublicKey
}

func (obj *NftVaultAccount) String() string {
	return "NftVaultAccount{" +
		"user='" + base58.Encode(obj.User) + "'" +
		", pool_info='" + base58.Encode(obj.PoolInfo) + "'" +
		", nft_mint='" + base58.Encode(obj.NftMint) + "'" +
		"}"
}

func (obj *NftVaultAccount) Marshal() []byte {
	data := make([]byte, NftVaultAccountSize)

	var offset int

	putDiscriminator(data, nftVaultAccountDiscriminator, &offset)
	putKey(data, obj.User, &offset)
	putKey(data, obj.PoolInfo, &offset)
	putKey(data, obj.NftMint, &offset)

	return data
}

func (obj *NftVaultAccount) Unmarshal(data []byte) error {
	if len(data) < NftVaultAccountSize {
		return ErrInvalidAccountData
	}

	var offset int
	var discriminator []byte

	getDiscriminator(data, &discriminator, &offset)
	if !bytes.Equal(discriminator, nftVaultAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	getKey(data, &obj.User, &offset)
	getKey(data, &obj.PoolInfo, &offset)
	getKey(data, &obj.NftMint, &offset)

	return nil
}
