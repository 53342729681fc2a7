package token

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/nft-staking/pkg/solana"
)

var (
	// ErrAccountNotFound indicates there is no account for the given address.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidTokenAccount indicates that an account exists at the
	// given address, but it is either not initialized, or not configured correctly.
	ErrInvalidTokenAccount = errors.New("invalid token account")
	// ErrInvalidMint indicates that an account exists at the given address,
	// but it is not an initialized mint.
	ErrInvalidMint = errors.New("invalid mint")
)

// Client provides utilities for accessing token accounts and mints.
type Client struct {
	accounts solana.AccountInfoGetter
}

// NewClient creates a new Client.
func NewClient(accounts solana.AccountInfoGetter) *Client {
	return &Client{
		accounts: accounts,
	}
}

// GetAccount returns the token account info for the specified account.
//
// If the account is not initialized, or belongs to a different
// mint, then ErrInvalidTokenAccount is returned. A nil mint skips the
// mint check.
func (c *Client) GetAccount(ctx context.Context, accountID, mint ed25519.PublicKey) (*Account, error) {
	accountInfo, err := c.accounts.GetAccountInfo(ctx, accountID)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if !bytes.Equal(accountInfo.Owner, ProgramKey) {
		return nil, ErrInvalidTokenAccount
	}

	var account Account
	if !account.Unmarshal(accountInfo.Data) || !account.IsInitialized() {
		return nil, ErrInvalidTokenAccount
	}

	if mint != nil && !bytes.Equal(mint, account.Mint) {
		return nil, ErrInvalidTokenAccount
	}

	return &account, nil
}

// GetMint returns the mint state stored at the specified address.
func (c *Client) GetMint(ctx context.Context, mintID ed25519.PublicKey) (*Mint, error) {
	accountInfo, err := c.accounts.GetAccountInfo(ctx, mintID)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if !bytes.Equal(accountInfo.Owner, ProgramKey) {
		return nil, ErrInvalidMint
	}

	var mint Mint
	if !mint.Unmarshal(accountInfo.Data) || !mint.IsInitialized {
		return nil, ErrInvalidMint
	}
	return &mint, nil
}
