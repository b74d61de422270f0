package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mywallet-io/mywallet/internal/apperr"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to its status code. Clients only ever see the short
// message attached to the error, never the cause.
func (api *Api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()

	entry := api.log.WithFields(logrus.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"kind":       kind.String(),
	}).WithError(err)
	if kind == apperr.KindInternal {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	msg := apperr.MessageOf(err)
	if msg == "" {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// decodeJSON reads a bounded JSON body into v. Any failure is reported as
// invalid input carrying msg.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, msg string) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.InvalidInput(msg, err)
	}
	return nil
}
