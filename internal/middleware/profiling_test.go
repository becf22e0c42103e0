package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestProfiling_PassThroughForAPIRoutes(t *testing.T) {
	var called bool
	handler := Profiling("development")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/api/matching", "/quests", "/health"} {
		called = false
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)

		if !called {
			t.Errorf("expected %s to reach the inner handler", path)
		}
	}
}

func TestProfiling_ServesIndex(t *testing.T) {
	handler := Profiling("development")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("pprof request should not reach the inner handler")
	}))

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 from pprof index, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "profile") {
		t.Error("expected pprof index body to list profiles")
	}
}

func TestProfiling_ServesNamedProfile(t *testing.T) {
	handler := Profiling("development")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("pprof request should not reach the inner handler")
	}))

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/goroutine", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 from goroutine profile, got %d", rr.Code)
	}
	if rr.Body.Len() == 0 {
		t.Error("expected non-empty goroutine profile body")
	}
}

func TestProfiling_ProductionGuard(t *testing.T) {
	for _, env := range []string{"production", "prod"} {
		t.Run(env, func(t *testing.T) {
			var called bool
			handler := Profiling(env)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusNotFound)
			}))

			req := httptest.NewRequest(http.MethodGet, "/debug/pprof/heap", nil)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			// The middleware must be a no-op: the request falls through to
			// the application handler instead of a pprof handler.
			if !called {
				t.Error("expected request to fall through to the inner handler")
			}
			if rr.Code != http.StatusNotFound {
				t.Errorf("expected status 404 from inner handler, got %d", rr.Code)
			}
		})
	}
}
