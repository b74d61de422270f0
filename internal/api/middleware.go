package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mywallet-io/mywallet/internal/auth"
	"github.com/sirupsen/logrus"
)

type contextKey string

const userIDKey contextKey = "userID"

// SessionMiddleware resolves the bearer token to a user before the handler
// runs, so unauthenticated requests never have their body inspected.
func (api *Api) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r.Header.Get("Authorization"))
		userID, err := api.services.Auth.ResolveSession(r.Context(), token)
		if err != nil {
			api.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func (api *Api) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		api.log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"remote":     r.RemoteAddr,
			"status":     status,
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
		}).Info("request completed")
	})
}
