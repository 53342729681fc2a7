package allowlists

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-staking/pkg/api/utils"
	"github.com/code-payments/nft-staking/pkg/staking"
)

type AllowList struct {
	Address    string   `json:"address"`
	Admin      string   `json:"admin"`
	Collection string   `json:"collection"`
	Rarity     string   `json:"rarity"`
	Mints      []string `json:"mints"`
}

type AllowLists struct {
	log    *logrus.Entry
	client *staking.Client
}

func New(client *staking.Client) *AllowLists {
	return &AllowLists{
		log:    logrus.StandardLogger().WithField("type", "api/allowlists"),
		client: client,
	}
}

func (a *AllowLists) handleGetAllowList(w http.ResponseWriter, r *http.Request) error {
	address, err := utils.AddressVar(r)
	if err != nil {
		return err
	}

	allowList, err := a.client.GetAllowList(r.Context(), address)
	if err == staking.ErrAllowListNotFound {
		return utils.NotFound(err)
	} else if err != nil {
		return err
	}

	converted := &AllowList{
		Address:    base58.Encode(address),
		Admin:      base58.Encode(allowList.Admin),
		Collection: allowList.CollectionLabel(),
		Rarity:     allowList.RarityLabel(),
		Mints:      make([]string, 0, len(allowList.MintList)),
	}
	for _, mint := range allowList.MintList {
		converted.Mints = append(converted.Mints, base58.Encode(mint))
	}
	return utils.WriteJSON(w, converted)
}

func (a *AllowLists) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("allowlists_get_allowlist").
		HandlerFunc(utils.WrapHandlerFunc(a.log, a.handleGetAllowList))
}
