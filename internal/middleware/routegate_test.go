package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/counterline/pos/internal/session"
)

func TestDecide_BypassPaths(t *testing.T) {
	paths := []string{
		"/_next/static/chunk.js",
		"/_next/image",
		"/api/pay",
		"/api/reports/daily",
		"/favicon.ico",
		"/logo.png",
		"/styles/site.css",
		"/images/menu.jpeg",
		"/banner.svg",
		"/photo.gif",
		"/app.js",
		"/hero.jpg",
	}
	for _, path := range paths {
		for _, authenticated := range []bool{true, false} {
			d := Decide(path, authenticated)
			if d.Action != ActionAllow {
				t.Errorf("Decide(%q, %v).Action = %v, want ActionAllow", path, authenticated, d.Action)
			}
		}
	}
}

func TestDecide_RootIsPublic(t *testing.T) {
	for _, authenticated := range []bool{true, false} {
		d := Decide("/", authenticated)
		if d.Action != ActionAllow {
			t.Errorf("Decide(/, %v).Action = %v, want ActionAllow", authenticated, d.Action)
		}
	}
}

func TestDecide_ProtectedPaths(t *testing.T) {
	paths := []string{
		"/pos",
		"/pos/tables",
		"/create",
		"/setting",
		"/setting/orders",
		"/editcategory",
		"/editmenu/3",
		"/home",
		"/payment",
	}

	for _, path := range paths {
		d := Decide(path, true)
		if d.Action != ActionAllow {
			t.Errorf("Decide(%q, true).Action = %v, want ActionAllow", path, d.Action)
		}

		d = Decide(path, false)
		if d.Action != ActionRedirectLogin {
			t.Errorf("Decide(%q, false).Action = %v, want ActionRedirectLogin", path, d.Action)
			continue
		}
		wantLocation := "/?callbackUrl=" + url.QueryEscape(path)
		if d.Location != wantLocation {
			t.Errorf("Decide(%q, false).Location = %q, want %q", path, d.Location, wantLocation)
		}
	}
}

func TestDecide_UnknownPathAuthenticated(t *testing.T) {
	for _, path := range []string{"/admin", "/posx", "/settings-old", "/orders/42"} {
		d := Decide(path, true)
		if d.Action != ActionRedirectHome {
			t.Errorf("Decide(%q, true).Action = %v, want ActionRedirectHome", path, d.Action)
		}
		if d.Location != "/home" {
			t.Errorf("Decide(%q, true).Location = %q, want /home", path, d.Location)
		}
	}
}

func TestDecide_PrefixIsNotEnough(t *testing.T) {
	// "/posx" shares the "/pos" prefix but is not a sub-path of it.
	if d := Decide("/posx", true); d.Action != ActionRedirectHome {
		t.Errorf("Decide(/posx, true).Action = %v, want ActionRedirectHome", d.Action)
	}
}

func newTestGate(t *testing.T) (*RouteGate, *session.Manager) {
	t.Helper()
	sessions := session.NewManager([]byte("test-secret"), time.Hour)
	return NewRouteGate(sessions, nil), sessions
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRouteGate_RedirectsWithoutCookie(t *testing.T) {
	gate, _ := newTestGate(t)
	handler := gate.Handler(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/pos", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTemporaryRedirect)
	}
	location := rec.Header().Get("Location")
	if location != "/?callbackUrl=%2Fpos" {
		t.Errorf("Location = %q, want /?callbackUrl=%%2Fpos", location)
	}
}

func TestRouteGate_AllowsValidCookie(t *testing.T) {
	gate, sessions := newTestGate(t)
	handler := gate.Handler(okHandler())

	token, err := sessions.Issue(7)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/setting/orders", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("X-Debug-Auth"); got != "true" {
		t.Errorf("X-Debug-Auth = %q, want true", got)
	}
	if got := rec.Header().Get("X-Debug-Path"); got != "/setting/orders" {
		t.Errorf("X-Debug-Path = %q, want /setting/orders", got)
	}
	if got := rec.Header().Get("X-Middleware-Cache"); got != "no-cache" {
		t.Errorf("X-Middleware-Cache = %q, want no-cache", got)
	}
}

func TestRouteGate_GarbageCookieIsUnauthenticated(t *testing.T) {
	gate, _ := newTestGate(t)
	handler := gate.Handler(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "not-a-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTemporaryRedirect)
	}
}

func TestRouteGate_AuthenticatedUnknownPathGoesHome(t *testing.T) {
	gate, sessions := newTestGate(t)
	handler := gate.Handler(okHandler())

	token, err := sessions.Issue(7)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/whatever", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTemporaryRedirect)
	}
	if location := rec.Header().Get("Location"); location != "/home" {
		t.Errorf("Location = %q, want /home", location)
	}
}
