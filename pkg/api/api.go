// Package api serves the node's JSON API.
package api

import (
	"github.com/gorilla/mux"

	"github.com/code-payments/nft-staking/pkg/api/accounts"
	"github.com/code-payments/nft-staking/pkg/api/allowlists"
	"github.com/code-payments/nft-staking/pkg/api/audit"
	"github.com/code-payments/nft-staking/pkg/api/pools"
	"github.com/code-payments/nft-staking/pkg/api/transactions"
	"github.com/code-payments/nft-staking/pkg/api/users"
	"github.com/code-payments/nft-staking/pkg/bank"
	"github.com/code-payments/nft-staking/pkg/staking"
)

type Options struct {
	// MaxAirdropLamports caps a single airdrop. Zero disables the airdrop
	// route.
	MaxAirdropLamports uint64
}

// Mount installs every route group under pathPrefix.
func Mount(root *mux.Router, pathPrefix string, b *bank.Bank, client *staking.Client, auditor *staking.Auditor, opts Options) {
	accounts.New(b, opts.MaxAirdropLamports).
		Mount(root, pathPrefix+"/accounts")
	transactions.New(b).
		Mount(root, pathPrefix+"/transactions")
	pools.New(client).
		Mount(root, pathPrefix+"/pools")
	users.New(client).
		Mount(root, pathPrefix+"/users")
	allowlists.New(client).
		Mount(root, pathPrefix+"/allowlists")
	audit.New(auditor).
		Mount(root, pathPrefix+"/audit")
}
