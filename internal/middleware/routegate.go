// Package middleware provides HTTP middleware for the POS gateway.
package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/counterline/pos/internal/app/metrics"
	"github.com/counterline/pos/internal/session"
	"github.com/counterline/pos/pkg/logger"
)

// Action is the outcome of a route-gate decision.
type Action int

const (
	// ActionAllow lets the request through.
	ActionAllow Action = iota
	// ActionRedirectLogin sends the client to the login screen, keeping the
	// requested path in the callbackUrl parameter.
	ActionRedirectLogin
	// ActionRedirectHome sends an authenticated client off an unknown route
	// back to the home screen.
	ActionRedirectHome
)

const (
	loginPath = "/"
	homePath  = "/home"
)

// Decision is a route-gate outcome plus the redirect target, when any.
type Decision struct {
	Action   Action
	Location string
}

// staticSuffixes are asset extensions that bypass the gate entirely.
var staticSuffixes = []string{
	".jpg", ".jpeg", ".png", ".gif", ".svg", ".ico", ".css", ".js",
}

// bypassPrefixes are API and framework-asset paths the gate never touches.
var bypassPrefixes = []string{"/api/", "/_next/"}

// protectedPrefixes are the routes a logged-in terminal may reach; each
// prefix covers its sub-paths.
var protectedPrefixes = []string{
	"/pos", "/create", "/setting", "/editcategory", "/editmenu", "/home", "/payment",
}

// Decide classifies a request path against the authentication state. It is a
// pure function of its two inputs.
func Decide(path string, authenticated bool) Decision {
	if isBypassPath(path) {
		return Decision{Action: ActionAllow}
	}

	// The login screen is the only public page.
	if path == loginPath {
		return Decision{Action: ActionAllow}
	}

	if !authenticated {
		return Decision{
			Action:   ActionRedirectLogin,
			Location: loginPath + "?callbackUrl=" + url.QueryEscape(path),
		}
	}

	if isProtectedPath(path) {
		return Decision{Action: ActionAllow}
	}

	return Decision{Action: ActionRedirectHome, Location: homePath}
}

func isBypassPath(path string) bool {
	for _, prefix := range bypassPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, suffix := range staticSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func isProtectedPath(path string) bool {
	for _, prefix := range protectedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// RouteGate gates every page request on the session credential.
type RouteGate struct {
	sessions *session.Manager
	log      *logger.Logger
}

// NewRouteGate creates the gate middleware.
func NewRouteGate(sessions *session.Manager, log *logger.Logger) *RouteGate {
	if log == nil {
		log = logger.NewDefault("routegate")
	}
	return &RouteGate{sessions: sessions, log: log}
}

// Handler applies the gate decision to each request. Allowed responses carry
// diagnostic headers; the headers never influence the decision.
func (g *RouteGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Operational endpoints are never gated.
		if path == "/healthz" || path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		authenticated := g.hasValidCredential(r)

		decision := Decide(path, authenticated)
		switch decision.Action {
		case ActionAllow:
			metrics.RecordGateDecision("allow")
			w.Header().Set("X-Middleware-Cache", "no-cache")
			w.Header().Set("X-Debug-Path", path)
			w.Header().Set("X-Debug-Auth", boolString(authenticated))
			next.ServeHTTP(w, r)

		case ActionRedirectLogin:
			metrics.RecordGateDecision("login")
			g.log.WithField("path", path).Debug("unauthenticated request redirected to login")
			http.Redirect(w, r, decision.Location, http.StatusTemporaryRedirect)

		case ActionRedirectHome:
			metrics.RecordGateDecision("home")
			g.log.WithField("path", path).Debug("unknown route redirected home")
			http.Redirect(w, r, decision.Location, http.StatusTemporaryRedirect)
		}
	})
}

func (g *RouteGate) hasValidCredential(r *http.Request) bool {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	_, err = g.sessions.Validate(cookie.Value)
	return err == nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
