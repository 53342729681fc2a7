package nftstaking

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("NFTS4eKECWLtMmzoo2FJH7Zkoj2jxU8PJicCViyuVGh")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	poolInfoPrefix        = []byte("pool_info")
	proveTokenVaultPrefix = []byte("prove_token_vault")
	nftVaultPrefix        = []byte("nft_vault")
)

// Staked assets are non-fungible, and each one is backed by a single prove
// token.
const assetAmount = 1

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
