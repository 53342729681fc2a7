package transactions

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-staking/pkg/api/utils"
	"github.com/code-payments/nft-staking/pkg/bank"
	"github.com/code-payments/nft-staking/pkg/solana"
)

// Bank executes submitted transactions.
type Bank interface {
	Process(ctx context.Context, txn solana.Transaction) (*bank.Result, error)
	RecentBlockhash(ctx context.Context) solana.Blockhash
	Slot() uint64
}

type Transactions struct {
	log  *logrus.Entry
	bank Bank
}

func New(bank Bank) *Transactions {
	return &Transactions{
		log:  logrus.StandardLogger().WithField("type", "api/transactions"),
		bank: bank,
	}
}

func (t *Transactions) handleSendTransaction(w http.ResponseWriter, r *http.Request) error {
	var raw RawTransaction
	if err := utils.ParseJSON(r.Body, &raw); err != nil {
		return utils.BadRequest(errors.Wrap(err, "body"))
	}
	txn, err := raw.decode()
	if err != nil {
		return utils.BadRequest(errors.Wrap(err, "raw"))
	}
	if len(txn.Signatures) == 0 {
		return utils.BadRequest(solana.TransactionErrorMissingSignatureForFee)
	}

	receipt := &Receipt{
		Signature: base58.Encode(txn.Signatures[0][:]),
		Logs:      []string{},
	}

	result, err := t.bank.Process(r.Context(), txn)
	if result != nil {
		receipt.Slot = result.Slot
		if result.Logs != nil {
			receipt.Logs = result.Logs
		}
	}
	if err == nil {
		return utils.WriteJSON(w, receipt)
	}

	var status int
	var txErr solana.TransactionErrorKey
	var ixnErr *solana.InstructionError
	switch {
	case errors.As(err, &ixnErr):
		status = http.StatusUnprocessableEntity
		receipt.InstructionError = json.RawMessage(ixnErr.JSONString())
	case errors.As(err, &txErr) && txErr == solana.TransactionErrorAccountInUse:
		status = http.StatusConflict
	case errors.As(err, &txErr):
		status = http.StatusBadRequest
	default:
		return err
	}

	// Failed transactions commit nothing
	receipt.Slot = 0
	receipt.Error = err.Error()
	return utils.WriteJSONWithStatus(w, status, receipt)
}

func (t *Transactions) handleGetRecentBlockhash(w http.ResponseWriter, r *http.Request) error {
	blockhash := t.bank.RecentBlockhash(r.Context())
	return utils.WriteJSON(w, &RecentBlockhash{
		Blockhash: base58.Encode(blockhash[:]),
		Slot:      t.bank.Slot(),
	})
}

func (t *Transactions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("transactions_send_transaction").
		HandlerFunc(utils.WrapHandlerFunc(t.log, t.handleSendTransaction))
	sub.Path("/blockhash").
		Methods(http.MethodGet).
		Name("transactions_get_recent_blockhash").
		HandlerFunc(utils.WrapHandlerFunc(t.log, t.handleGetRecentBlockhash))
}
