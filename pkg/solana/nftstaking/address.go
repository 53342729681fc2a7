package nftstaking

import (
	"crypto/ed25519"

	"github.com/code-payments/nft-staking/pkg/solana"
	"github.com/code-payments/nft-staking/pkg/solana/token"
)

type GetPoolInfoAddressArgs struct {
	RarityInfo ed25519.PublicKey
}

type GetProveTokenAuthorityAddressArgs struct {
	PoolInfo ed25519.PublicKey
}

type GetProveTokenVaultAddressArgs struct {
	ProveTokenAuthority ed25519.PublicKey
	ProveTokenMint      ed25519.PublicKey
}

type GetNftVaultAddressArgs struct {
	NftMint  ed25519.PublicKey
	PoolInfo ed25519.PublicKey
}

type GetNftVaultAtaAddressArgs struct {
	NftVault ed25519.PublicKey
	NftMint  ed25519.PublicKey
}

// GetPoolInfoAddress returns the pool for an allow list. There's at most one
// pool per allow list.
func GetPoolInfoAddress(args *GetPoolInfoAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		args.RarityInfo,
		poolInfoPrefix,
	)
}

// GetProveTokenAuthorityAddress returns the custodial authority that owns a
// pool's prove token vault.
func GetProveTokenAuthorityAddress(args *GetProveTokenAuthorityAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		args.PoolInfo,
		proveTokenVaultPrefix,
	)
}

// GetProveTokenVaultAddress returns the prove token account held by the pool's
// custodial authority.
func GetProveTokenVaultAddress(args *GetProveTokenVaultAddressArgs) (ed25519.PublicKey, error) {
	return token.GetAssociatedAccount(args.ProveTokenAuthority, args.ProveTokenMint)
}

// GetNftVaultAddress returns the vault record of a staked asset. The record
// is also the authority over the escrowed asset.
func GetNftVaultAddress(args *GetNftVaultAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		args.NftMint,
		args.PoolInfo,
		nftVaultPrefix,
	)
}

// GetNftVaultAtaAddress returns the escrow account of a staked asset.
func GetNftVaultAtaAddress(args *GetNftVaultAtaAddressArgs) (ed25519.PublicKey, error) {
	return token.GetAssociatedAccount(args.NftVault, args.NftMint)
}
