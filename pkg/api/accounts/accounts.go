package accounts

import (
	"context"
	"crypto/ed25519"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-staking/pkg/api/utils"
	"github.com/code-payments/nft-staking/pkg/bank"
	"github.com/code-payments/nft-staking/pkg/ledger"
	"github.com/code-payments/nft-staking/pkg/solana"
)

type Account struct {
	Address    string `json:"address"`
	Owner      string `json:"owner"`
	Lamports   uint64 `json:"lamports"`
	Data       []byte `json:"data"`
	Executable bool   `json:"executable"`
}

type AirdropRequest struct {
	Lamports uint64 `json:"lamports"`
}

// Bank holds the accounts being served.
type Bank interface {
	GetAccountInfo(ctx context.Context, address ed25519.PublicKey) (*solana.AccountInfo, error)
	Airdrop(ctx context.Context, address ed25519.PublicKey, lamports uint64) error
}

type Accounts struct {
	log  *logrus.Entry
	bank Bank

	// Zero disables airdrops.
	maxAirdropLamports uint64
}

func New(bank Bank, maxAirdropLamports uint64) *Accounts {
	return &Accounts{
		log:                logrus.StandardLogger().WithField("type", "api/accounts"),
		bank:               bank,
		maxAirdropLamports: maxAirdropLamports,
	}
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, r *http.Request) error {
	address, err := utils.AddressVar(r)
	if err != nil {
		return err
	}

	info, err := a.bank.GetAccountInfo(r.Context(), address)
	if err == solana.ErrNoAccountInfo {
		return utils.NotFound(err)
	} else if err != nil {
		return err
	}

	return utils.WriteJSON(w, &Account{
		Address:    base58.Encode(address),
		Owner:      base58.Encode(info.Owner),
		Lamports:   info.Lamports,
		Data:       info.Data,
		Executable: info.Executable,
	})
}

func (a *Accounts) handleAirdrop(w http.ResponseWriter, r *http.Request) error {
	address, err := utils.AddressVar(r)
	if err != nil {
		return err
	}

	var req AirdropRequest
	if err := utils.ParseJSON(r.Body, &req); err != nil {
		return utils.BadRequest(errors.Wrap(err, "body"))
	}
	if req.Lamports == 0 || req.Lamports > a.maxAirdropLamports {
		return utils.BadRequest(errors.Errorf("lamports must be between 1 and %d", a.maxAirdropLamports))
	}

	switch err := a.bank.Airdrop(r.Context(), address, req.Lamports); err {
	case nil:
	case bank.ErrAccountInUse:
		return utils.HTTPError(err, http.StatusConflict)
	case ledger.ErrLamportsOutOfRange:
		return utils.BadRequest(err)
	default:
		return err
	}

	a.log.WithFields(logrus.Fields{
		"method":   "handleAirdrop",
		"address":  base58.Encode(address),
		"lamports": req.Lamports,
	}).Debug("airdrop granted")
	return a.handleGetAccount(w, r)
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("accounts_get_account").
		HandlerFunc(utils.WrapHandlerFunc(a.log, a.handleGetAccount))

	if a.maxAirdropLamports > 0 {
		sub.Path("/{address}/airdrop").
			Methods(http.MethodPost).
			Name("accounts_airdrop").
			HandlerFunc(utils.WrapHandlerFunc(a.log, a.handleAirdrop))
	}
}
