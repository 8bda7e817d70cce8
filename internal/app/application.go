// Package app ties the gateway's services together.
package app

import (
	"github.com/counterline/pos/internal/app/services/reports"
	"github.com/counterline/pos/internal/app/services/settlement"
	"github.com/counterline/pos/internal/config"
	"github.com/counterline/pos/internal/paygate"
	"github.com/counterline/pos/internal/posapi"
	"github.com/counterline/pos/internal/session"
	"github.com/counterline/pos/pkg/logger"
)

// Application bundles the gateway's services and their shared dependencies.
// Everything hangs off this object; there is no package-level state.
type Application struct {
	Log         *logger.Logger
	Sessions    *session.Manager
	Upstream    *posapi.Client
	Settlements *settlement.Store
	Reports     *reports.Service
}

// New builds a fully initialised application from configuration. A nil
// gateway defaults to the mock card processor.
func New(cfg *config.Config, gw paygate.Gateway, log *logger.Logger) *Application {
	if log == nil {
		log = logger.New("gateway", cfg.Log.Level, cfg.Log.Format)
	}
	if gw == nil {
		gw = paygate.NewMock()
	}

	upstream := posapi.New(posapi.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout(),
	})

	return &Application{
		Log:         log,
		Sessions:    session.NewManager([]byte(cfg.Auth.JWTSecret), cfg.Auth.SessionTTL()),
		Upstream:    upstream,
		Settlements: settlement.NewStore(upstream, gw, log.WithField("service", "settlement")),
		Reports:     reports.New(upstream, log.WithField("service", "reports")),
	}
}
