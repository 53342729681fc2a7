package nftrarity

import (
	"crypto/ed25519"

	"github.com/code-payments/nft-staking/pkg/solana"
)

type GetRarityInfoAddressArgs struct {
	Admin      ed25519.PublicKey
	Collection string
	Rarity     string
	Nonce      uint64
}

// GetRarityInfoAddress returns the address of a rarity info account along with
// the seed it's created with.
func GetRarityInfoAddress(args *GetRarityInfoAddressArgs) (ed25519.PublicKey, string, error) {
	seed := GetRarityInfoSeed(args.Collection, args.Rarity, args.Nonce)

	address, err := solana.CreateWithSeed(args.Admin, seed, PROGRAM_ID)
	if err != nil {
		return nil, "", err
	}
	return address, seed, nil
}
