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
	"github.com/code-payments/nft-staking/pkg/solana/nftstaking"
	"github.com/code-payments/nft-staking/pkg/solana/token"
)

// StakedAsset is the escrow record of an asset staked in a pool.
type StakedAsset struct {
	Address ed25519.PublicKey
	*nftstaking.NftVaultAccount
}

// Stake escrows the user's asset in pool and pays out one prove token from
// the pool reserve. The asset is taken from the user's associated token
// account for nftMint.
func (c *Client) Stake(ctx context.Context, user ed25519.PrivateKey, pool, nftMint ed25519.PublicKey) (*StakedAsset, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Stake")
	defer tracer.End()
	tracer.AddAttributes(map[string]interface{}{
		"pool":     base58.Encode(pool),
		"nft_mint": base58.Encode(nftMint),
	})

	staked, err := c.stake(ctx, user, pool, nftMint)
	tracer.OnError(err)
	return staked, err
}

func (c *Client) stake(ctx context.Context, user ed25519.PrivateKey, poolAddress, nftMint ed25519.PublicKey) (*StakedAsset, error) {
	userKey := publicKey(user)

	log := c.log.WithFields(logrus.Fields{
		"method":   "Stake",
		"user":     base58.Encode(userKey),
		"pool":     base58.Encode(poolAddress),
		"nft_mint": base58.Encode(nftMint),
	})

	if err := c.allow(userKey); err != nil {
		log.Debug("user is rate limited")
		return nil, err
	}

	pool, err := c.GetPool(ctx, poolAddress)
	if err != nil {
		return nil, err
	}

	allowList, err := c.GetAllowList(ctx, pool.RarityInfo)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pool allow list")
	}
	if !c.eligibility.IsEligible(pool.RarityInfo, allowList, nftMint) {
		log.Debug("asset is not on the pool allow list")
		return nil, ErrNotEligible
	}

	accounts, err := getStakeAccounts(userKey, pool, nftMint)
	if err != nil {
		return nil, err
	}

	createUserProveTokenAccount, _, err := token.CreateAssociatedTokenAccountIdempotent(userKey, userKey, pool.ProveTokenMint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive user prove token account")
	}
	createVaultAta, _, err := token.CreateAssociatedTokenAccountIdempotent(userKey, accounts.NftVaultAccount, nftMint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive vault token account")
	}

	_, err = c.submit(
		ctx,
		[]ed25519.PrivateKey{user},
		createUserProveTokenAccount,
		createVaultAta,
		nftstaking.NewStakeInstruction(accounts),
	)
	if err != nil {
		log.WithError(err).Info("failed to stake asset")
		return nil, err
	}

	metrics.RecordCount(ctx, stakeCountMetricName, 1)
	metrics.RecordEvent(ctx, stakeEventName, map[string]interface{}{
		"user":     base58.Encode(userKey),
		"pool":     base58.Encode(poolAddress),
		"nft_mint": base58.Encode(nftMint),
	})
	log.Info("asset staked")

	return c.GetStakedAsset(ctx, poolAddress, nftMint)
}

// Unstake returns a staked asset to the user that staked it, who pays back
// one prove token to the pool reserve.
func (c *Client) Unstake(ctx context.Context, user ed25519.PrivateKey, pool, nftMint ed25519.PublicKey) error {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Unstake")
	defer tracer.End()
	tracer.AddAttributes(map[string]interface{}{
		"pool":     base58.Encode(pool),
		"nft_mint": base58.Encode(nftMint),
	})

	err := c.unstake(ctx, user, pool, nftMint)
	tracer.OnError(err)
	return err
}

func (c *Client) unstake(ctx context.Context, user ed25519.PrivateKey, poolAddress, nftMint ed25519.PublicKey) error {
	userKey := publicKey(user)

	log := c.log.WithFields(logrus.Fields{
		"method":   "Unstake",
		"user":     base58.Encode(userKey),
		"pool":     base58.Encode(poolAddress),
		"nft_mint": base58.Encode(nftMint),
	})

	if err := c.allow(userKey); err != nil {
		log.Debug("user is rate limited")
		return err
	}

	pool, err := c.GetPool(ctx, poolAddress)
	if err != nil {
		return err
	}

	staked, err := c.GetStakedAsset(ctx, poolAddress, nftMint)
	if err != nil {
		return err
	}
	if !staked.User.Equal(userKey) {
		log.Debug("asset was staked by a different user")
		return ErrNotStaked
	}

	accounts, err := getStakeAccounts(userKey, pool, nftMint)
	if err != nil {
		return err
	}

	createUserNftAccount, _, err := token.CreateAssociatedTokenAccountIdempotent(userKey, userKey, nftMint)
	if err != nil {
		return errors.Wrap(err, "failed to derive user token account")
	}

	_, err = c.submit(
		ctx,
		[]ed25519.PrivateKey{user},
		createUserNftAccount,
		nftstaking.NewUnstakeInstruction(accounts),
	)
	if err != nil {
		log.WithError(err).Info("failed to unstake asset")
		return err
	}

	metrics.RecordCount(ctx, unstakeCountMetricName, 1)
	metrics.RecordEvent(ctx, unstakeEventName, map[string]interface{}{
		"user":     base58.Encode(userKey),
		"pool":     base58.Encode(poolAddress),
		"nft_mint": base58.Encode(nftMint),
	})
	log.Info("asset unstaked")
	return nil
}

// GetStakedAsset returns the escrow record for nftMint in pool, or
// ErrNotStaked.
func (c *Client) GetStakedAsset(ctx context.Context, pool, nftMint ed25519.PublicKey) (*StakedAsset, error) {
	address, _, err := nftstaking.GetNftVaultAddress(&nftstaking.GetNftVaultAddressArgs{
		NftMint:  nftMint,
		PoolInfo: pool,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive vault address")
	}

	info, err := c.ledger.GetAccountInfo(ctx, address)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrNotStaked
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get vault account")
	}

	if !info.Owner.Equal(nftstaking.PROGRAM_ID) {
		return nil, ErrNotStaked
	}

	var state nftstaking.NftVaultAccount
	if err := state.Unmarshal(info.Data); err != nil {
		return nil, ErrNotStaked
	}
	return &StakedAsset{Address: address, NftVaultAccount: &state}, nil
}

// GetStakedByUser returns every asset user has staked, across all pools.
func (c *Client) GetStakedByUser(ctx context.Context, user ed25519.PublicKey) ([]*StakedAsset, error) {
	return c.getStaked(ctx, ledger.MemcmpFilter{Offset: nftstaking.NftVaultUserOffset, Bytes: user})
}

// GetStakedByPool returns every asset staked in pool.
func (c *Client) GetStakedByPool(ctx context.Context, pool ed25519.PublicKey) ([]*StakedAsset, error) {
	return c.getStaked(ctx, ledger.MemcmpFilter{Offset: nftstaking.NftVaultPoolInfoOffset, Bytes: pool})
}

func (c *Client) getStaked(ctx context.Context, filters ...ledger.Filter) ([]*StakedAsset, error) {
	filters = append([]ledger.Filter{ledger.DataSizeFilter(nftstaking.NftVaultAccountSize)}, filters...)

	accounts, err := c.ledger.GetProgramAccounts(ctx, nftstaking.PROGRAM_ID, filters...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get vault accounts")
	}

	staked := make([]*StakedAsset, 0, len(accounts))
	for _, account := range accounts {
		var state nftstaking.NftVaultAccount
		if err := state.Unmarshal(account.Data); err != nil {
			continue
		}
		staked = append(staked, &StakedAsset{Address: account.Address, NftVaultAccount: &state})
	}
	return staked, nil
}

func getStakeAccounts(user ed25519.PublicKey, pool *Pool, nftMint ed25519.PublicKey) (*nftstaking.StakeInstructionAccounts, error) {
	vault, _, err := nftstaking.GetNftVaultAddress(&nftstaking.GetNftVaultAddressArgs{
		NftMint:  nftMint,
		PoolInfo: pool.Address,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive vault address")
	}
	vaultAta, err := nftstaking.GetNftVaultAtaAddress(&nftstaking.GetNftVaultAtaAddressArgs{
		NftVault: vault,
		NftMint:  nftMint,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive vault token account")
	}
	userNftAccount, err := token.GetAssociatedAccount(user, nftMint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive user token account")
	}
	userProveTokenAccount, err := token.GetAssociatedAccount(user, pool.ProveTokenMint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive user prove token account")
	}

	return &nftstaking.StakeInstructionAccounts{
		User:                  user,
		PoolInfo:              pool.Address,
		ProveTokenMint:        pool.ProveTokenMint,
		NftMint:               nftMint,
		RarityInfo:            pool.RarityInfo,
		UserNftAccount:        userNftAccount,
		NftVaultAta:           vaultAta,
		UserProveTokenAccount: userProveTokenAccount,
		ProveTokenAuthority:   pool.ProveTokenAuthority,
		ProveTokenVault:       pool.ProveTokenVault,
		NftVaultAccount:       vault,
	}, nil
}
