package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.HasPrefix(seen, "req_") || len(seen) != len("req_")+8 {
		t.Fatalf("unexpected generated id %q", seen)
	}
	if rr.Header().Get("X-Request-ID") != seen {
		t.Fatalf("response header %q does not match context id %q", rr.Header().Get("X-Request-ID"), seen)
	}
}

func TestRequestID_ReusesInboundHeader(t *testing.T) {
	tests := []struct {
		name    string
		inbound string
		reuse   bool
	}{
		{"short id", "trace-123", true},
		{"too long", strings.Repeat("x", maxInboundRequestID+1), false},
		{"blank", "   ", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", tc.inbound)
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got := seen == tc.inbound; got != tc.reuse {
				t.Fatalf("reused=%v, want %v (id %q)", got, tc.reuse, seen)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name       string
		allowed    string
		origin     string
		method     string
		wantStatus int
		wantOrigin string
	}{
		{"matching origin", "https://me.dev", "https://me.dev", http.MethodPost, http.StatusTeapot, "https://me.dev"},
		{"foreign origin", "https://me.dev", "https://evil.dev", http.MethodPost, http.StatusTeapot, ""},
		{"wildcard", "*", "https://any.dev", http.MethodPost, http.StatusTeapot, "https://any.dev"},
		{"preflight", "https://me.dev", "https://me.dev", http.MethodOptions, http.StatusNoContent, "https://me.dev"},
		{"preflight from foreign origin", "https://me.dev", "https://evil.dev", http.MethodOptions, http.StatusNoContent, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/chat", nil)
			req.Header.Set("Origin", tc.origin)
			rr := httptest.NewRecorder()

			CORS(tc.allowed)(next).ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Fatalf("allow origin = %q, want %q", got, tc.wantOrigin)
			}
		})
	}
}

func TestLogger_PassesThrough(t *testing.T) {
	h := RequestID(Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("ok"))
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/chat", nil))

	if rr.Code != http.StatusCreated || rr.Body.String() != "ok" {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Body.String())
	}
}
