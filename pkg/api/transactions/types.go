package transactions

import (
	"encoding/base64"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/code-payments/nft-staking/pkg/solana"
)

// RawTransaction carries a signed transaction in its base64 wire encoding.
type RawTransaction struct {
	Raw string `json:"raw"`
}

func (r *RawTransaction) decode() (solana.Transaction, error) {
	var txn solana.Transaction

	encoded, err := base64.StdEncoding.DecodeString(r.Raw)
	if err != nil {
		return txn, errors.Wrap(err, "invalid base64")
	}
	if len(encoded) > solana.MaxTransactionSize {
		return txn, errors.Errorf("transaction exceeds %d bytes", solana.MaxTransactionSize)
	}
	if err := txn.Unmarshal(encoded); err != nil {
		return txn, err
	}
	return txn, nil
}

// Receipt is the outcome of a submitted transaction. Failed transactions
// carry the error, and program logs when instructions were executed.
type Receipt struct {
	Signature        string          `json:"signature"`
	Slot             uint64          `json:"slot,omitempty"`
	Logs             []string        `json:"logs"`
	Error            string          `json:"error,omitempty"`
	InstructionError json.RawMessage `json:"instruction_error,omitempty"`
}

type RecentBlockhash struct {
	Blockhash string `json:"blockhash"`
	Slot      uint64 `json:"slot"`
}
