package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mywallet-io/mywallet/internal/auth"
	"github.com/mywallet-io/mywallet/internal/config"
	"github.com/mywallet-io/mywallet/internal/export"
	"github.com/mywallet-io/mywallet/internal/ledger"
	"github.com/mywallet-io/mywallet/internal/metrics"
	"github.com/sirupsen/logrus"
)

const (
	shutdownTimeout = 5 * time.Second
	janitorInterval = time.Hour
)

// Exporter uploads a wallet snapshot somewhere the user can download it.
type Exporter interface {
	Export(ctx context.Context, userID string, w *ledger.Wallet) (*export.Result, error)
}

// Services are the collaborators the HTTP layer delegates to. Exporter is
// optional; without it the export route is not mounted.
type Services struct {
	Auth     *auth.Service
	Ledger   *ledger.Service
	Exporter Exporter
}

type Api struct {
	Config   config.Config
	Router   *chi.Mux
	services Services
	metrics  *metrics.Metrics
	log      *logrus.Logger
}

func NewApi(cfg config.Config, services Services, log *logrus.Logger) (*Api, error) {
	if cfg.APIPort == 0 {
		return nil, errors.New("Must have at least a port to start API")
	}
	if services.Auth == nil || services.Ledger == nil {
		return nil, errors.New("auth and ledger services are required")
	}

	api := &Api{
		Config:   cfg,
		Router:   chi.NewRouter(),
		services: services,
		metrics:  metrics.New(),
		log:      log,
	}
	api.setupRoutes()
	return api, nil
}

func (api *Api) setupRoutes() {
	r := api.Router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: api.Config.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(api.metrics.InstrumentHandler)

	r.Get("/heartbeat", api.Heartbeat)
	r.Method(http.MethodGet, "/metrics", api.metrics.Handler())

	r.Post("/SignUp", api.SignUpHandler)
	r.Post("/", api.LoginHandler)

	// Protected ledger routes
	r.Group(func(r chi.Router) {
		r.Use(api.SessionMiddleware)
		r.Post("/deposit", api.DepositHandler)
		r.Post("/withdraw", api.WithdrawHandler)
		r.Get("/wallet", api.WalletHandler)
		if api.services.Exporter != nil {
			r.Post("/wallet/export", api.ExportHandler)
		}
	})
}

// Serve listens on the configured port until ctx is cancelled, then drains
// in-flight requests.
func (api *Api) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", api.Config.APIPort),
		Handler:           api.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if api.services.Auth.SessionTTL() > 0 {
		go api.runSessionJanitor(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		api.log.Infof("Starting API server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	api.log.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func (api *Api) runSessionJanitor(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		if _, err := api.services.Auth.PurgeExpired(ctx); err != nil && ctx.Err() == nil {
			api.log.WithError(err).Error("Error cleaning up expired sessions")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (api *Api) Heartbeat(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
