package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/counterline/pos/internal/app"
	"github.com/counterline/pos/internal/app/metrics"
	"github.com/counterline/pos/internal/config"
	"github.com/counterline/pos/internal/middleware"
	"github.com/counterline/pos/pkg/logger"
)

func main() {
	// Optional .env file for local development.
	_ = godotenv.Load()

	configPath := os.Getenv("POS_CONFIG")
	if configPath == "" {
		configPath = "config/gateway.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.NewDefault("gateway").WithError(err).Error("configuration load failed")
		os.Exit(1)
	}

	log := logger.New("gateway", cfg.Log.Level, cfg.Log.Format)
	application := app.New(cfg, nil, log)

	router := newRouter(application, cfg, log)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("gateway listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server stopped")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown incomplete")
	}
	log.Info("gateway stopped")
}

// newRouter builds the full handler chain: tracing, CORS, rate limiting and
// the route gate in front of the page catch-all and the terminal API.
func newRouter(application *app.Application, cfg *config.Config, log *logger.Logger) http.Handler {
	h := &handler{app: application}

	router := mux.NewRouter()

	router.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/session/login", h.login).Methods(http.MethodPost)
	api.HandleFunc("/session/logout", h.logout).Methods(http.MethodPost)

	pos := api.PathPrefix("/pos").Subrouter()
	pos.HandleFunc("/settlement", h.startSettlement).Methods(http.MethodPost)
	pos.HandleFunc("/settlement/{id}/cash", h.addCash).Methods(http.MethodPost)
	pos.HandleFunc("/settlement/{id}/cash/set", h.setCash).Methods(http.MethodPost)
	pos.HandleFunc("/settlement/{id}/cash/reset", h.resetCash).Methods(http.MethodPost)
	pos.HandleFunc("/settlement/{id}/split/toggle", h.toggleSplit).Methods(http.MethodPost)
	pos.HandleFunc("/settlement/{id}/split/set", h.setSplit).Methods(http.MethodPost)
	pos.HandleFunc("/settlement/{id}/card", h.confirmCard).Methods(http.MethodPost)
	pos.HandleFunc("/settlement/{id}/finalize", h.finalize).Methods(http.MethodPost)
	pos.HandleFunc("/settlement/{id}/receipt", h.receiptChoice).Methods(http.MethodPost)
	pos.HandleFunc("/settlement/{id}/cancel", h.cancelSettlement).Methods(http.MethodPost)
	pos.HandleFunc("/settlement/{id}", h.settlementState).Methods(http.MethodGet)

	pos.HandleFunc("/reports/summaries", h.reportSummaries).Methods(http.MethodGet)
	pos.HandleFunc("/reports/daily", h.reportDaily).Methods(http.MethodGet)
	pos.HandleFunc("/reports/search", h.reportSearch).Methods(http.MethodGet)
	pos.HandleFunc("/reports/receipt/{orderId}", h.reportReceipt).Methods(http.MethodGet)
	pos.HandleFunc("/reports/refund/{paymentId}", h.refund).Methods(http.MethodPost)

	// Everything that is not an API call is a page request and goes through
	// the route gate.
	router.PathPrefix("/").HandlerFunc(pageHandler)

	gate := middleware.NewRouteGate(application.Sessions, log)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
	limiter.StartCleanup(time.Minute)
	cors := middleware.NewCORSMiddleware(cfg.Server.CORSOrigins)
	tracing := middleware.NewTracingMiddleware(log)

	router.Use(tracing.Handler, cors.Handler, limiter.Handler, gate.Handler)

	return router
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "gateway",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// pageHandler stands in for the terminal's page delivery. Rendering is out
// of scope for the gateway; reaching this handler means the gate allowed the
// path.
func pageHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("POS terminal\n"))
}
