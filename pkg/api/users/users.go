package users

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-staking/pkg/api/pools"
	"github.com/code-payments/nft-staking/pkg/api/utils"
	"github.com/code-payments/nft-staking/pkg/staking"
)

type Users struct {
	log    *logrus.Entry
	client *staking.Client
}

func New(client *staking.Client) *Users {
	return &Users{
		log:    logrus.StandardLogger().WithField("type", "api/users"),
		client: client,
	}
}

func (u *Users) handleGetStaked(w http.ResponseWriter, r *http.Request) error {
	address, err := utils.AddressVar(r)
	if err != nil {
		return err
	}

	staked, err := u.client.GetStakedByUser(r.Context(), address)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, pools.ConvertStakedAssets(staked))
}

func (u *Users) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}/staked").
		Methods(http.MethodGet).
		Name("users_get_staked").
		HandlerFunc(utils.WrapHandlerFunc(u.log, u.handleGetStaked))
}
