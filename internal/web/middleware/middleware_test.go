package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/refcheck/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		header     map[string]string
		want       string
	}{
		{
			name:       "untrusted proxy keeps connection address",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "203.0.113.5:4000",
			header:     map[string]string{"X-Real-IP": "1.2.3.4"},
			want:       "203.0.113.5:4000",
		},
		{
			name:       "trusted proxy X-Real-IP",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:4000",
			header:     map[string]string{"X-Real-IP": "1.2.3.4"},
			want:       "1.2.3.4",
		},
		{
			name:       "trusted proxy first forwarded address",
			trusted:    []string{"127.0.0.1"},
			remoteAddr: "127.0.0.1:4000",
			header:     map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"},
			want:       "1.2.3.4",
		},
		{
			name:       "garbage header ignored",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:4000",
			header:     map[string]string{"X-Real-IP": "not-an-ip"},
			want:       "10.1.2.3:4000",
		},
		{
			name:       "invalid trusted entries skipped",
			trusted:    []string{"bogus", ""},
			remoteAddr: "10.1.2.3:4000",
			header:     map[string]string{"X-Real-IP": "1.2.3.4"},
			want:       "10.1.2.3:4000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name   string
		cfg    config.SecurityConfig
		header map[string]string
		want   int
	}{
		{name: "disabled", cfg: config.SecurityConfig{}, want: http.StatusNoContent},
		{name: "missing", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}, want: http.StatusUnauthorized},
		{name: "wrong", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}},
			header: map[string]string{"X-API-Key": "k2"}, want: http.StatusForbidden},
		{name: "second key", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}},
			header: map[string]string{"X-API-Key": "k2"}, want: http.StatusNoContent},
		{name: "bearer", cfg: config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}},
			header: map[string]string{"Authorization": "Bearer k1"}, want: http.StatusNoContent},
		{name: "no keys configured", cfg: config.SecurityConfig{RequireAPIKey: true},
			header: map[string]string{"X-API-Key": ""}, want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			req := httptest.NewRequest(http.MethodPost, "/api/checks", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			APIKeyAuth(&cfg)(ok).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestLogger_PassesStatusThrough(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}
