package system

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"
)

// https://explorer.solana.com/address/11111111111111111111111111111111
var SystemAccount ed25519.PublicKey

// RentSysVar points to the system variable "Rent"
//
// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/sysvar/rent.rs#L11
var RentSysVar ed25519.PublicKey

// Rent is the rent configuration of the ledger.
//
// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/rent.rs#L30
var Rent = RentParams{
	LamportsPerByteYear: 3480,
	ExemptionThreshold:  2,
}

// AccountStorageOverhead is the number of bytes charged for an account on top
// of its data.
const AccountStorageOverhead = 128

type RentParams struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  uint64
}

// MinimumBalance returns the number of lamports an account with size bytes of
// data must hold to be rent exempt.
func (r RentParams) MinimumBalance(size uint64) uint64 {
	return (AccountStorageOverhead + size) * r.LamportsPerByteYear * r.ExemptionThreshold
}

// IsExempt reports whether balance covers the rent exemption of size bytes.
func (r RentParams) IsExempt(balance, size uint64) bool {
	return balance >= r.MinimumBalance(size)
}

func init() {
	var err error

	RentSysVar, err = base58.Decode("SysvarRent111111111111111111111111111111111")
	if err != nil {
		panic(err)
	}

	SystemAccount, err = base58.Decode("11111111111111111111111111111111")
	if err != nil {
		panic(err)
	}
}
