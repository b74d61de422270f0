package api

import (
	"net/http"

	"github.com/mywallet-io/mywallet/internal/apperr"
	"github.com/mywallet-io/mywallet/internal/auth"
	"github.com/mywallet-io/mywallet/internal/ledger"
	"github.com/mywallet-io/mywallet/internal/models"
)

func (api *Api) SignUpHandler(w http.ResponseWriter, r *http.Request) {
	var in auth.SignUpInput
	if err := decodeJSON(w, r, &in, auth.MsgInvalidSignUp); err != nil {
		api.writeError(w, r, err)
		return
	}

	if err := api.services.Auth.SignUp(r.Context(), in); err != nil {
		api.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (api *Api) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := decodeJSON(w, r, &in, auth.MsgInvalidLogin); err != nil {
		api.metrics.ObserveLogin("rejected")
		api.writeError(w, r, err)
		return
	}

	res, err := api.services.Auth.Login(r.Context(), in)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			api.metrics.ObserveLogin("error")
		} else {
			api.metrics.ObserveLogin("rejected")
		}
		api.writeError(w, r, err)
		return
	}

	api.metrics.ObserveLogin("success")
	writeJSON(w, http.StatusOK, res)
}

func (api *Api) DepositHandler(w http.ResponseWriter, r *http.Request) {
	api.record(w, r, models.KindDeposit)
}

func (api *Api) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	api.record(w, r, models.KindWithdraw)
}

func (api *Api) record(w http.ResponseWriter, r *http.Request, kind models.Kind) {
	var in ledger.RecordInput
	if err := decodeJSON(w, r, &in, ledger.MsgInvalidEntry); err != nil {
		api.writeError(w, r, err)
		return
	}

	if _, err := api.services.Ledger.Record(r.Context(), userIDFrom(r.Context()), kind, in); err != nil {
		api.writeError(w, r, err)
		return
	}

	api.metrics.ObserveTransaction(string(kind))
	w.WriteHeader(http.StatusCreated)
}

func (api *Api) WalletHandler(w http.ResponseWriter, r *http.Request) {
	wallet, err := api.services.Ledger.Wallet(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		api.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

// ExportHandler uploads the caller's wallet and returns where to fetch it.
func (api *Api) ExportHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	wallet, err := api.services.Ledger.Wallet(r.Context(), userID)
	if err != nil {
		api.writeError(w, r, err)
		return
	}

	res, err := api.services.Exporter.Export(r.Context(), userID, wallet)
	if err != nil {
		api.writeError(w, r, apperr.Internal(err))
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
