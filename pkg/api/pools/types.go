package pools

import (
	"github.com/mr-tron/base58"

	"github.com/code-payments/nft-staking/pkg/staking"
)

type Pool struct {
	Address             string `json:"address"`
	Admin               string `json:"admin"`
	ProveTokenAuthority string `json:"prove_token_authority"`
	ProveTokenVault     string `json:"prove_token_vault"`
	ProveTokenMint      string `json:"prove_token_mint"`
	AllowList           string `json:"allow_list"`
	TotalLocked         uint64 `json:"total_locked"`
}

// StakedAsset is an open vault record.
type StakedAsset struct {
	Address string `json:"address"`
	User    string `json:"user"`
	Pool    string `json:"pool"`
	NftMint string `json:"nft_mint"`
}

func ConvertPool(pool *staking.Pool) *Pool {
	return &Pool{
		Address:             base58.Encode(pool.Address),
		Admin:               base58.Encode(pool.Admin),
		ProveTokenAuthority: base58.Encode(pool.ProveTokenAuthority),
		ProveTokenVault:     base58.Encode(pool.ProveTokenVault),
		ProveTokenMint:      base58.Encode(pool.ProveTokenMint),
		AllowList:           base58.Encode(pool.RarityInfo),
		TotalLocked:         pool.TotalLocked,
	}
}

func ConvertStakedAssets(staked []*staking.StakedAsset) []*StakedAsset {
	converted := make([]*StakedAsset, 0, len(staked))
	for _, asset := range staked {
		converted = append(converted, &StakedAsset{
			Address: base58.Encode(asset.Address),
			User:    base58.Encode(asset.User),
			Pool:    base58.Encode(asset.PoolInfo),
			NftMint: base58.Encode(asset.NftMint),
		})
	}
	return converted
}
