package util

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWithSecurityHeaders(t *testing.T) {
	h := WithSecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name     string
		path     string
		proto    string
		tls      bool
		wantCSP  string
		wantHSTS bool
	}{
		{name: "index page", path: "/", wantCSP: pageCSP},
		{name: "search page", path: "/search?q=matrix&submit=1", wantCSP: pageCSP},
		{name: "details form post target", path: "/details", wantCSP: pageCSP},
		{name: "health endpoint uses page policy", path: "/healthz", wantCSP: pageCSP},
		{name: "api search", path: "/api/search?q=matrix", wantCSP: apiCSP},
		{name: "api movie", path: "/api/movies/7", wantCSP: apiCSP},
		{name: "api prefix needs the slash", path: "/apidocs", wantCSP: pageCSP},
		{name: "forwarded https page", path: "/browse", proto: " HTTPS ", wantCSP: pageCSP, wantHSTS: true},
		{name: "forwarded http", path: "/browse", proto: "http", wantCSP: pageCSP},
		{name: "direct tls api", path: "/api/filters", tls: true, wantCSP: apiCSP, wantHSTS: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tc.proto)
			}
			if tc.tls {
				req.TLS = &tls.ConnectionState{}
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusNoContent {
				t.Fatalf("next handler not reached: %d", rec.Code)
			}
			if got := rec.Header().Get("Content-Security-Policy"); got != tc.wantCSP {
				t.Fatalf("CSP = %q, want %q", got, tc.wantCSP)
			}
			if got := rec.Header().Get("Strict-Transport-Security"); (got != "") != tc.wantHSTS {
				t.Fatalf("HSTS = %q, want set=%v", got, tc.wantHSTS)
			}
			for header, want := range map[string]string{
				"X-Content-Type-Options": "nosniff",
				"X-Frame-Options":        "DENY",
				"Referrer-Policy":        "no-referrer",
				"Permissions-Policy":     "geolocation=(), camera=(), microphone=()",
			} {
				if got := rec.Header().Get(header); got != want {
					t.Fatalf("%s = %q, want %q", header, got, want)
				}
			}
		})
	}
}

func TestPageCSPAllowsOnlySameOriginForms(t *testing.T) {
	// Search, Details and Back are all same-origin form submissions.
	if !strings.Contains(pageCSP, "form-action 'self'") {
		t.Fatalf("page CSP must allow same-origin forms: %q", pageCSP)
	}
	if strings.Contains(apiCSP, "form-action") {
		t.Fatalf("api CSP should not mention forms: %q", apiCSP)
	}
}

