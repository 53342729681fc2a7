package audit

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/nft-staking/pkg/api/utils"
	"github.com/code-payments/nft-staking/pkg/staking"
)

type Violation struct {
	Pool    string `json:"pool"`
	Account string `json:"account"`
	Reason  string `json:"reason"`
}

type Audit struct {
	log     *logrus.Entry
	auditor *staking.Auditor
}

func New(auditor *staking.Auditor) *Audit {
	return &Audit{
		log:     logrus.StandardLogger().WithField("type", "api/audit"),
		auditor: auditor,
	}
}

func (a *Audit) handleRunAudit(w http.ResponseWriter, r *http.Request) error {
	violations, err := a.auditor.Audit(r.Context())
	if err != nil {
		return err
	}

	converted := make([]*Violation, 0, len(violations))
	for _, v := range violations {
		converted = append(converted, &Violation{
			Pool:    base58.Encode(v.Pool),
			Account: base58.Encode(v.Account),
			Reason:  v.Reason,
		})
	}
	return utils.WriteJSON(w, converted)
}

func (a *Audit) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("audit_run").
		HandlerFunc(utils.WrapHandlerFunc(a.log, a.handleRunAudit))
}
