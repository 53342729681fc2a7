package staking

import (
	"github.com/pkg/errors"
)

var (
	ErrAllowListNotFound = errors.New("allow list not found")
	ErrPoolNotFound      = errors.New("pool not found")
	ErrNotStaked         = errors.New("asset is not staked in pool")
	ErrNotEligible       = errors.New("asset is not eligible for pool")
	ErrRateLimited       = errors.New("rate limited")
	ErrNoMints           = errors.New("no mints provided")
	ErrInvalidProveMint  = errors.New("prove token mint is missing or uninitialized")
)
