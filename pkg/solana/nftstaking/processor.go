package nftstaking

import (
	"bytes"
	"crypto/ed25519"
	"math"

	"github.com/mr-tron/base58"

	"github.com/code-payments/nft-staking/pkg/solana"
	"github.com/code-payments/nft-staking/pkg/solana/nftrarity"
	"github.com/code-payments/nft-staking/pkg/solana/system"
	"github.com/code-payments/nft-staking/pkg/solana/token"
)

// Processor executes staking program instructions.
type Processor struct{}

var _ solana.Processor = Processor{}

func (Processor) ProgramID() ed25519.PublicKey {
	return PROGRAM_ID
}

func (p Processor) Process(ctx solana.InvokeContext, accounts []*solana.KeyedAccount, data []byte) error {
	if len(data) < 8 {
		return ErrInvalidInstruction
	}

	switch {
	case bytes.Equal(data[:8], initializeInstructionDiscriminator):
		ctx.Log("Instruction: Initialize")
		args, err := InitializeInstructionArgsFromBinary(data)
		if err != nil {
			return err
		}
		if err := solana.CheckNumAccounts(accounts, InitializeInstructionAccountsCount); err != nil {
			return err
		}
		return p.initialize(ctx, accounts, args)

	case bytes.Equal(data[:8], updateAdminInstructionDiscriminator):
		ctx.Log("Instruction: UpdateAdmin")
		if err := solana.CheckNumAccounts(accounts, UpdateAdminInstructionAccountsCount); err != nil {
			return err
		}
		return p.updateAdmin(ctx, accounts[0], accounts[1], accounts[2])

	case bytes.Equal(data[:8], stakeInstructionDiscriminator):
		ctx.Log("Instruction: Stake")
		if err := solana.CheckNumAccounts(accounts, StakeInstructionAccountsCount); err != nil {
			return err
		}
		return p.stake(ctx, accounts)

	case bytes.Equal(data[:8], unstakeInstructionDiscriminator):
		ctx.Log("Instruction: Unstake")
		if err := solana.CheckNumAccounts(accounts, UnstakeInstructionAccountsCount); err != nil {
			return err
		}
		return p.unstake(ctx, accounts)

	default:
		return ErrInvalidInstruction
	}
}

func (p Processor) initialize(ctx solana.InvokeContext, accounts []*solana.KeyedAccount, args *InitializeInstructionArgs) error {
	var (
		admin                  = accounts[0]
		proveTokenMint         = accounts[1]
		adminProveTokenAccount = accounts[2]
		proveTokenAuthority    = accounts[3]
		proveTokenVault        = accounts[4]
		poolInfo               = accounts[5]
		rarityInfo             = accounts[6]
		rarityProgram          = accounts[7]
		systemProgram          = accounts[8]
		tokenProgram           = accounts[9]
	)

	err := validate(ctx,
		isSigner(admin, "admin"),
		isWritable(admin, "admin"),
		isWritable(adminProveTokenAccount, "admin_prove_token_account"),
		isWritable(proveTokenAuthority, "prove_token_authority"),
		isWritable(proveTokenVault, "prove_token_vault"),
		isWritable(poolInfo, "pool_info"),
		isAddress("rarity_program", rarityProgram, nftrarity.PROGRAM_ID, ErrInvalidProgramAccount),
		isAddress("system_program", systemProgram, system.ProgramKey[:], ErrInvalidProgramAccount),
		isAddress("token_program", tokenProgram, token.ProgramKey, ErrInvalidProgramAccount),
	)
	if err != nil {
		return err
	}

	if _, err := loadMint(ctx, proveTokenMint, "prove_token_mint"); err != nil {
		return err
	}
	adminProveToken, err := loadTokenAccount(ctx, adminProveTokenAccount, "admin_prove_token_account")
	if err != nil {
		return err
	}
	proveVault, err := loadTokenAccount(ctx, proveTokenVault, "prove_token_vault")
	if err != nil {
		return err
	}

	expectedPool, poolBump, err := GetPoolInfoAddress(&GetPoolInfoAddressArgs{
		RarityInfo: rarityInfo.Key,
	})
	if err != nil {
		return ErrInvalidPoolAccount
	}
	expectedAuthority, _, err := GetProveTokenAuthorityAddress(&GetProveTokenAuthorityAddressArgs{
		PoolInfo: poolInfo.Key,
	})
	if err != nil {
		return ErrInvalidAuthority
	}
	expectedVault, err := GetProveTokenVaultAddress(&GetProveTokenVaultAddressArgs{
		ProveTokenAuthority: expectedAuthority,
		ProveTokenMint:      proveTokenMint.Key,
	})
	if err != nil {
		return ErrInvalidAssociatedHoldingAccount
	}
	expectedRarityInfo, err := solana.CreateWithSeed(
		admin.Key,
		nftrarity.GetRarityInfoSeed(args.Collection, args.Rarity, args.Nonce),
		rarityProgram.Key,
	)
	if err != nil {
		return ErrInvalidAllowListAccount
	}

	err = validate(ctx,
		isAddress("pool_info", poolInfo, expectedPool, ErrInvalidPoolAccount),
		constraint{name: "pool_info.init", ok: poolInfo.IsUninitialized(), err: ErrAccountAlreadyInitialized},
		isAddress("prove_token_authority", proveTokenAuthority, expectedAuthority, ErrInvalidAuthority),
		isAddress("prove_token_vault", proveTokenVault, expectedVault, ErrInvalidAssociatedHoldingAccount),
		keysEqual("prove_token_vault.mint", proveVault.Mint, proveTokenMint.Key, ErrInvalidAssociatedHoldingAccount),
		keysEqual("admin_prove_token_account.mint", adminProveToken.Mint, proveTokenMint.Key, ErrInvalidMint),
		isAddress("rarity_info", rarityInfo, expectedRarityInfo, ErrInvalidAllowListAccount),
	)
	if err != nil {
		return err
	}

	allowList, err := loadAllowList(ctx, rarityInfo)
	if err != nil {
		return err
	}

	poolSeeds := [][]byte{rarityInfo.Key, poolInfoPrefix, {poolBump}}
	err = ctx.InvokeSigned(
		system.CreateAccount(
			admin.Key,
			poolInfo.Key,
			PROGRAM_ID,
			system.Rent.MinimumBalance(PoolInfoAccountSize),
			PoolInfoAccountSize,
		),
		poolSeeds,
	)
	if err != nil {
		return err
	}

	state := &PoolInfoAccount{
		Admin:               append(ed25519.PublicKey(nil), admin.Key...),
		ProveTokenAuthority: expectedAuthority,
		ProveTokenVault:     expectedVault,
		ProveTokenMint:      append(ed25519.PublicKey(nil), proveTokenMint.Key...),
		RarityInfo:          append(ed25519.PublicKey(nil), rarityInfo.Key...),
		TotalLocked:         0,
	}
	copy(poolInfo.Data, state.Marshal())

	reserve := uint64(allowList.Len())
	ctx.Log("Transfer %d prove tokens to vault", reserve)
	return ctx.Invoke(token.Transfer(adminProveTokenAccount.Key, proveTokenVault.Key, admin.Key, reserve))
}

func (p Processor) updateAdmin(ctx solana.InvokeContext, admin, newAdmin, poolInfo *solana.KeyedAccount) error {
	err := validate(ctx,
		isSigner(admin, "admin"),
		isWritable(poolInfo, "pool_info"),
	)
	if err != nil {
		return err
	}

	state, err := loadPoolInfo(ctx, poolInfo)
	if err != nil {
		return err
	}

	err = validate(ctx,
		keysEqual("pool_info.admin", state.Admin, admin.Key, ErrInsufficientAuthorization),
	)
	if err != nil {
		return err
	}

	state.Admin = append(ed25519.PublicKey(nil), newAdmin.Key...)
	copy(poolInfo.Data, state.Marshal())

	ctx.Log("Admin updated to %s", base58.Encode(newAdmin.Key))
	return nil
}

// stakeContext holds the accounts shared by stake and unstake, loaded and
// validated against the pool.
type stakeContext struct {
	user                  *solana.KeyedAccount
	poolInfo              *solana.KeyedAccount
	proveTokenMint        *solana.KeyedAccount
	nftMint               *solana.KeyedAccount
	rarityInfo            *solana.KeyedAccount
	userNftAccount        *solana.KeyedAccount
	nftVaultAta           *solana.KeyedAccount
	userProveTokenAccount *solana.KeyedAccount
	proveTokenAuthority   *solana.KeyedAccount
	proveTokenVault       *solana.KeyedAccount
	nftVaultAccount       *solana.KeyedAccount
	tokenProgram          *solana.KeyedAccount

	pool      *PoolInfoAccount
	allowList AllowList

	authoritySeeds [][]byte
	vaultSeeds     [][]byte
}

func (p Processor) loadStakeContext(ctx solana.InvokeContext, accounts []*solana.KeyedAccount, tokenProgram *solana.KeyedAccount) (*stakeContext, error) {
	sc := &stakeContext{
		user:                  accounts[0],
		poolInfo:              accounts[1],
		proveTokenMint:        accounts[2],
		nftMint:               accounts[3],
		rarityInfo:            accounts[4],
		userNftAccount:        accounts[5],
		nftVaultAta:           accounts[6],
		userProveTokenAccount: accounts[7],
		proveTokenAuthority:   accounts[8],
		proveTokenVault:       accounts[9],
		nftVaultAccount:       accounts[10],
		tokenProgram:          tokenProgram,
	}

	err := validate(ctx,
		isSigner(sc.user, "user"),
		isWritable(sc.user, "user"),
		isWritable(sc.poolInfo, "pool_info"),
		isWritable(sc.userNftAccount, "user_nft_account"),
		isWritable(sc.nftVaultAta, "nft_vault_ata"),
		isWritable(sc.userProveTokenAccount, "user_prove_token_account"),
		isWritable(sc.proveTokenAuthority, "prove_token_authority"),
		isWritable(sc.proveTokenVault, "prove_token_vault"),
		isWritable(sc.nftVaultAccount, "nft_vault_account"),
		isAddress("token_program", sc.tokenProgram, token.ProgramKey, ErrInvalidProgramAccount),
	)
	if err != nil {
		return nil, err
	}

	pool, err := loadPoolInfo(ctx, sc.poolInfo)
	if err != nil {
		return nil, err
	}
	if _, err := loadMint(ctx, sc.proveTokenMint, "prove_token_mint"); err != nil {
		return nil, err
	}
	if _, err := loadMint(ctx, sc.nftMint, "nft_mint"); err != nil {
		return nil, err
	}
	userNft, err := loadTokenAccount(ctx, sc.userNftAccount, "user_nft_account")
	if err != nil {
		return nil, err
	}
	nftVaultAta, err := loadTokenAccount(ctx, sc.nftVaultAta, "nft_vault_ata")
	if err != nil {
		return nil, err
	}
	userProveToken, err := loadTokenAccount(ctx, sc.userProveTokenAccount, "user_prove_token_account")
	if err != nil {
		return nil, err
	}
	proveVault, err := loadTokenAccount(ctx, sc.proveTokenVault, "prove_token_vault")
	if err != nil {
		return nil, err
	}

	expectedPool, _, err := GetPoolInfoAddress(&GetPoolInfoAddressArgs{
		RarityInfo: sc.rarityInfo.Key,
	})
	if err != nil {
		return nil, ErrInvalidPoolAccount
	}
	expectedAuthority, authorityBump, err := GetProveTokenAuthorityAddress(&GetProveTokenAuthorityAddressArgs{
		PoolInfo: sc.poolInfo.Key,
	})
	if err != nil {
		return nil, ErrInvalidAuthority
	}
	expectedVault, vaultBump, err := GetNftVaultAddress(&GetNftVaultAddressArgs{
		NftMint:  sc.nftMint.Key,
		PoolInfo: sc.poolInfo.Key,
	})
	if err != nil {
		return nil, ErrInvalidVaultAccount
	}

	err = validate(ctx,
		keysEqual("pool_info.rarity_info", pool.RarityInfo, sc.rarityInfo.Key, ErrInvalidAllowListAccount),
		isAddress("pool_info", sc.poolInfo, expectedPool, ErrInvalidPoolAccount),
		keysEqual("pool_info.prove_token_mint", pool.ProveTokenMint, sc.proveTokenMint.Key, ErrInvalidMint),
		keysEqual("user_nft_account.mint", userNft.Mint, sc.nftMint.Key, ErrInvalidAssociatedHoldingAccount),
		keysEqual("user_nft_account.owner", userNft.Owner, sc.user.Key, ErrInvalidAssociatedHoldingAccount),
		keysEqual("nft_vault_ata.mint", nftVaultAta.Mint, sc.nftMint.Key, ErrInvalidAssociatedHoldingAccount),
		keysEqual("nft_vault_ata.owner", nftVaultAta.Owner, sc.nftVaultAccount.Key, ErrInvalidAssociatedHoldingAccount),
		keysEqual("user_prove_token_account.mint", userProveToken.Mint, sc.proveTokenMint.Key, ErrInvalidAssociatedHoldingAccount),
		isAddress("prove_token_authority", sc.proveTokenAuthority, expectedAuthority, ErrInvalidAuthority),
		keysEqual("pool_info.prove_token_authority", pool.ProveTokenAuthority, sc.proveTokenAuthority.Key, ErrInvalidAuthority),
		keysEqual("prove_token_vault.mint", proveVault.Mint, sc.proveTokenMint.Key, ErrInvalidAssociatedHoldingAccount),
		keysEqual("prove_token_vault.owner", proveVault.Owner, sc.proveTokenAuthority.Key, ErrInvalidAssociatedHoldingAccount),
		keysEqual("pool_info.prove_token_vault", pool.ProveTokenVault, sc.proveTokenVault.Key, ErrInvalidAssociatedHoldingAccount),
		isAddress("nft_vault_account", sc.nftVaultAccount, expectedVault, ErrInvalidVaultAccount),
	)
	if err != nil {
		return nil, err
	}

	allowList, err := loadAllowList(ctx, sc.rarityInfo)
	if err != nil {
		return nil, err
	}

	sc.pool = pool
	sc.allowList = allowList
	sc.authoritySeeds = [][]byte{sc.poolInfo.Key, proveTokenVaultPrefix, {authorityBump}}
	sc.vaultSeeds = [][]byte{sc.nftMint.Key, sc.poolInfo.Key, nftVaultPrefix, {vaultBump}}
	return sc, nil
}

func (p Processor) stake(ctx solana.InvokeContext, accounts []*solana.KeyedAccount) error {
	systemProgram := accounts[11]
	tokenProgram := accounts[12]

	err := validate(ctx,
		isAddress("system_program", systemProgram, system.ProgramKey[:], ErrInvalidProgramAccount),
	)
	if err != nil {
		return err
	}

	sc, err := p.loadStakeContext(ctx, accounts, tokenProgram)
	if err != nil {
		return err
	}

	err = validate(ctx,
		constraint{name: "nft_vault_account.init", ok: sc.nftVaultAccount.IsUninitialized(), err: ErrAccountAlreadyInitialized},
		constraint{name: "rarity_info.mint_list", ok: sc.allowList.Contains(sc.nftMint.Key), err: ErrAssetNotEligible},
	)
	if err != nil {
		return err
	}
	if sc.pool.TotalLocked == math.MaxUint64 {
		return ErrArithmeticOverflow
	}

	ctx.Log("Transfer nft to vault")
	err = ctx.Invoke(token.Transfer(sc.userNftAccount.Key, sc.nftVaultAta.Key, sc.user.Key, assetAmount))
	if err != nil {
		return err
	}

	ctx.Log("Update nft vault")
	err = ctx.InvokeSigned(
		system.CreateAccount(
			sc.user.Key,
			sc.nftVaultAccount.Key,
			PROGRAM_ID,
			system.Rent.MinimumBalance(NftVaultAccountSize),
			NftVaultAccountSize,
		),
		sc.vaultSeeds,
	)
	if err != nil {
		return err
	}

	vault := &NftVaultAccount{
		User:     append(ed25519.PublicKey(nil), sc.user.Key...),
		PoolInfo: append(ed25519.PublicKey(nil), sc.poolInfo.Key...),
		NftMint:  append(ed25519.PublicKey(nil), sc.nftMint.Key...),
	}
	copy(sc.nftVaultAccount.Data, vault.Marshal())

	ctx.Log("Transfer prove token to user")
	err = ctx.InvokeSigned(
		token.Transfer(sc.proveTokenVault.Key, sc.userProveTokenAccount.Key, sc.proveTokenAuthority.Key, assetAmount),
		sc.authoritySeeds,
	)
	if err != nil {
		return err
	}

	sc.pool.TotalLocked++
	copy(sc.poolInfo.Data, sc.pool.Marshal())
	return nil
}

func (p Processor) unstake(ctx solana.InvokeContext, accounts []*solana.KeyedAccount) error {
	tokenProgram := accounts[11]

	sc, err := p.loadStakeContext(ctx, accounts, tokenProgram)
	if err != nil {
		return err
	}

	vault, err := loadNftVault(ctx, sc.nftVaultAccount)
	if err != nil {
		return err
	}

	err = validate(ctx,
		keysEqual("nft_vault_account.pool_info", vault.PoolInfo, sc.poolInfo.Key, ErrInvalidVaultAccount),
		keysEqual("nft_vault_account.nft_mint", vault.NftMint, sc.nftMint.Key, ErrInvalidVaultAccount),
		keysEqual("nft_vault_account.user", vault.User, sc.user.Key, ErrInsufficientAuthorization),
	)
	if err != nil {
		return err
	}
	if sc.pool.TotalLocked == 0 {
		return ErrArithmeticOverflow
	}

	ctx.Log("Transfer nft to user")
	err = ctx.InvokeSigned(
		token.Transfer(sc.nftVaultAta.Key, sc.userNftAccount.Key, sc.nftVaultAccount.Key, assetAmount),
		sc.vaultSeeds,
	)
	if err != nil {
		return err
	}

	ctx.Log("Close nft vault ata")
	err = ctx.InvokeSigned(
		token.CloseAccount(sc.nftVaultAta.Key, sc.user.Key, sc.nftVaultAccount.Key),
		sc.vaultSeeds,
	)
	if err != nil {
		return err
	}

	ctx.Log("Transfer prove token to vault")
	err = ctx.Invoke(token.Transfer(sc.userProveTokenAccount.Key, sc.proveTokenVault.Key, sc.user.Key, assetAmount))
	if err != nil {
		return err
	}

	sc.pool.TotalLocked--
	copy(sc.poolInfo.Data, sc.pool.Marshal())

	ctx.Log("Close nft vault")
	closeAccount(sc.nftVaultAccount, sc.user)
	return nil
}

// closeAccount returns the lamports of a program owned account to dest and
// hands the account back to the system program.
func closeAccount(account, dest *solana.KeyedAccount) {
	dest.Lamports += account.Lamports
	account.Lamports = 0
	account.Data = nil
	account.Owner = append(ed25519.PublicKey(nil), system.ProgramKey[:]...)
}
