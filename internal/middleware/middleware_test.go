package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yanizio/autoconfig/internal/requestinfo"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
})

func TestForceHTTPS(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		enabled  bool
		host     string
		tls      bool
		proto    string
		redirect bool
	}{
		{"disabled", false, "autoconfig.example.com", false, "", false},
		{"plain http", true, "autoconfig.example.com", false, "", true},
		{"already tls", true, "autoconfig.example.com", true, "", false},
		{"proxy https", true, "autoconfig.example.com", false, "https", false},
		{"localhost", true, "localhost:8080", false, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/mail/config-v1.1.xml?emailaddress=a@b", nil)
			r.Host = tc.host
			if tc.tls {
				r.TLS = &tls.ConnectionState{}
			}
			if tc.proto != "" {
				r.Header.Set("X-Forwarded-Proto", tc.proto)
			}
			rec := httptest.NewRecorder()
			ForceHTTPS(tc.enabled)(ok).ServeHTTP(rec, r)

			if tc.redirect {
				assert.Equal(t, http.StatusPermanentRedirect, rec.Code)
				assert.Equal(t, "https://"+tc.host+"/mail/config-v1.1.xml?emailaddress=a@b",
					rec.Header().Get("Location"))
				return
			}
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestStripPort(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "localhost", stripPort("localhost:8080"))
	assert.Equal(t, "example.com", stripPort("example.com"))
	assert.Equal(t, "[::1]", stripPort("[::1]"))
	assert.Equal(t, "[::1]", stripPort("[::1]:443"))
}

func TestSecurity(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Security(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core).Sugar()

	h := requestinfo.Enrich(AccessLog(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})))

	r := httptest.NewRequest(http.MethodGet, "/mail/config-v1.1.xml?emailaddress=alice@example.com", nil)
	r.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:115.0) Gecko/20100101 Thunderbird/115.3.1")
	h.ServeHTTP(httptest.NewRecorder(), r)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "request", entry.Message)
	fields := entry.ContextMap()
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
	assert.Equal(t, "alice@example.com", fields["emailaddress"])
	assert.Equal(t, "Thunderbird", fields["client"])
}
