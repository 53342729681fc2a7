package staking

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-staking/pkg/ledger"
	"github.com/code-payments/nft-staking/pkg/metrics"
	"github.com/code-payments/nft-staking/pkg/solana"
	"github.com/code-payments/nft-staking/pkg/solana/nftrarity"
	"github.com/code-payments/nft-staking/pkg/solana/nftstaking"
	"github.com/code-payments/nft-staking/pkg/solana/token"
)

// Pool is a staking pool along with its address.
type Pool struct {
	Address ed25519.PublicKey
	*nftstaking.PoolInfoAccount
}

// InitializePool creates the staking pool for an allow list owned by admin,
// funding its reserve with one prove token per allow list entry from the
// admin's associated prove token account.
func (c *Client) InitializePool(ctx context.Context, admin ed25519.PrivateKey, proveTokenMint ed25519.PublicKey, args *AllowListArgs) (*Pool, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "InitializePool")
	defer tracer.End()

	pool, err := c.initializePool(ctx, admin, proveTokenMint, args)
	tracer.OnError(err)
	return pool, err
}

func (c *Client) initializePool(ctx context.Context, admin ed25519.PrivateKey, proveTokenMint ed25519.PublicKey, args *AllowListArgs) (*Pool, error) {
	adminKey := publicKey(admin)

	switch _, err := c.tokens.GetMint(ctx, proveTokenMint); err {
	case nil:
	case token.ErrAccountNotFound, token.ErrInvalidMint:
		return nil, ErrInvalidProveMint
	default:
		return nil, errors.Wrap(err, "failed to get prove token mint")
	}

	allowList, _, err := nftrarity.GetRarityInfoAddress(&nftrarity.GetRarityInfoAddressArgs{
		Admin:      adminKey,
		Collection: args.Collection,
		Rarity:     args.Rarity,
		Nonce:      args.Nonce,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive allow list address")
	}

	poolAddress, err := c.GetPoolAddress(allowList)
	if err != nil {
		return nil, err
	}
	authority, _, err := nftstaking.GetProveTokenAuthorityAddress(&nftstaking.GetProveTokenAuthorityAddressArgs{
		PoolInfo: poolAddress,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive prove token authority")
	}
	adminProveTokenAccount, err := token.GetAssociatedAccount(adminKey, proveTokenMint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive admin prove token account")
	}

	log := c.log.WithFields(logrus.Fields{
		"method":     "InitializePool",
		"admin":      base58.Encode(adminKey),
		"allow_list": base58.Encode(allowList),
		"pool":       base58.Encode(poolAddress),
	})

	createVault, proveTokenVault, err := token.CreateAssociatedTokenAccountIdempotent(adminKey, authority, proveTokenMint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive prove token vault")
	}

	_, err = c.submit(
		ctx,
		[]ed25519.PrivateKey{admin},
		createVault,
		nftstaking.NewInitializeInstruction(
			&nftstaking.InitializeInstructionAccounts{
				Admin:                  adminKey,
				ProveTokenMint:         proveTokenMint,
				AdminProveTokenAccount: adminProveTokenAccount,
				ProveTokenAuthority:    authority,
				ProveTokenVault:        proveTokenVault,
				PoolInfo:               poolAddress,
				RarityInfo:             allowList,
				RarityProgram:          nftrarity.PROGRAM_ID,
			},
			&nftstaking.InitializeInstructionArgs{
				Collection: args.Collection,
				Rarity:     args.Rarity,
				Nonce:      args.Nonce,
			},
		),
	)
	if err != nil {
		log.WithError(err).Warn("failed to initialize pool")
		return nil, err
	}

	log.Info("pool initialized")
	return c.GetPool(ctx, poolAddress)
}

// TransferPoolAdmin hands control of a pool to newAdmin.
func (c *Client) TransferPoolAdmin(ctx context.Context, admin ed25519.PrivateKey, newAdmin, pool ed25519.PublicKey) error {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "TransferPoolAdmin")
	defer tracer.End()

	_, err := c.submit(
		ctx,
		[]ed25519.PrivateKey{admin},
		nftstaking.NewUpdateAdminInstruction(&nftstaking.UpdateAdminInstructionAccounts{
			Admin:    publicKey(admin),
			NewAdmin: newAdmin,
			PoolInfo: pool,
		}),
	)
	tracer.OnError(err)
	return err
}

// GetPoolAddress returns the address of the pool bound to an allow list.
func (c *Client) GetPoolAddress(allowList ed25519.PublicKey) (ed25519.PublicKey, error) {
	return c.poolAddrs.GetOrLoad(base58.Encode(allowList), func() (ed25519.PublicKey, error) {
		address, _, err := nftstaking.GetPoolInfoAddress(&nftstaking.GetPoolInfoAddressArgs{RarityInfo: allowList})
		if err != nil {
			return nil, errors.Wrap(err, "failed to derive pool address")
		}
		return address, nil
	})
}

// GetPool returns the committed state of a pool, or ErrPoolNotFound.
func (c *Client) GetPool(ctx context.Context, address ed25519.PublicKey) (*Pool, error) {
	info, err := c.ledger.GetAccountInfo(ctx, address)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrPoolNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get pool account")
	}

	if !info.Owner.Equal(nftstaking.PROGRAM_ID) {
		return nil, ErrPoolNotFound
	}

	var state nftstaking.PoolInfoAccount
	if err := state.Unmarshal(info.Data); err != nil {
		return nil, ErrPoolNotFound
	}
	return &Pool{Address: address, PoolInfoAccount: &state}, nil
}

// GetPools returns every pool on the ledger.
func (c *Client) GetPools(ctx context.Context) ([]*Pool, error) {
	return c.getPools(ctx)
}

// GetPoolsByAdmin returns the pools administered by admin.
func (c *Client) GetPoolsByAdmin(ctx context.Context, admin ed25519.PublicKey) ([]*Pool, error) {
	return c.getPools(ctx, ledger.MemcmpFilter{Offset: nftstaking.PoolInfoAdminOffset, Bytes: admin})
}

func (c *Client) getPools(ctx context.Context, filters ...ledger.Filter) ([]*Pool, error) {
	filters = append([]ledger.Filter{ledger.DataSizeFilter(nftstaking.PoolInfoAccountSize)}, filters...)

	accounts, err := c.ledger.GetProgramAccounts(ctx, nftstaking.PROGRAM_ID, filters...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool accounts")
	}

	pools := make([]*Pool, 0, len(accounts))
	for _, account := range accounts {
		var state nftstaking.PoolInfoAccount
		if err := state.Unmarshal(account.Data); err != nil {
			continue
		}
		pools = append(pools, &Pool{Address: account.Address, PoolInfoAccount: &state})
	}
	return pools, nil
}
