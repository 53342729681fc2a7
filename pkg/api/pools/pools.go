package pools

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-staking/pkg/api/utils"
	"github.com/code-payments/nft-staking/pkg/staking"
)

type Pools struct {
	log    *logrus.Entry
	client *staking.Client
}

func New(client *staking.Client) *Pools {
	return &Pools{
		log:    logrus.StandardLogger().WithField("type", "api/pools"),
		client: client,
	}
}

func (p *Pools) handleGetPools(w http.ResponseWriter, r *http.Request) error {
	var (
		pools []*staking.Pool
		err   error
	)
	if admin := r.URL.Query().Get("admin"); admin != "" {
		address, parseErr := utils.ParseAddress(admin)
		if parseErr != nil {
			return utils.BadRequest(parseErr)
		}
		pools, err = p.client.GetPoolsByAdmin(r.Context(), address)
	} else {
		pools, err = p.client.GetPools(r.Context())
	}
	if err != nil {
		return err
	}

	converted := make([]*Pool, 0, len(pools))
	for _, pool := range pools {
		converted = append(converted, ConvertPool(pool))
	}
	return utils.WriteJSON(w, converted)
}

func (p *Pools) handleGetPool(w http.ResponseWriter, r *http.Request) error {
	address, err := utils.AddressVar(r)
	if err != nil {
		return err
	}

	pool, err := p.client.GetPool(r.Context(), address)
	if err == staking.ErrPoolNotFound {
		return utils.NotFound(err)
	} else if err != nil {
		return err
	}
	return utils.WriteJSON(w, ConvertPool(pool))
}

func (p *Pools) handleGetStaked(w http.ResponseWriter, r *http.Request) error {
	address, err := utils.AddressVar(r)
	if err != nil {
		return err
	}

	staked, err := p.client.GetStakedByPool(r.Context(), address)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, ConvertStakedAssets(staked))
}

func (p *Pools) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("pools_get_pools").
		HandlerFunc(utils.WrapHandlerFunc(p.log, p.handleGetPools))
	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("pools_get_pool").
		HandlerFunc(utils.WrapHandlerFunc(p.log, p.handleGetPool))
	sub.Path("/{address}/staked").
		Methods(http.MethodGet).
		Name("pools_get_staked").
		HandlerFunc(utils.WrapHandlerFunc(p.log, p.handleGetStaked))
}
