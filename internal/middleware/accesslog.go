// internal/middleware/accesslog.go
//
// One structured line per request.
//
// The status and byte count come from chi's WrapResponseWriter; client
// attributes come from requestinfo, so Enrich must run first.  The
// queried address is logged because operators debug autoconfig by
// asking “what did we answer for x@y?”.
package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/autoconfig/internal/requestinfo"
)

// AccessLog logs method, path, status, size, latency, and client.
func AccessLog(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.S()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"took", time.Since(start),
				"request_id", chimw.GetReqID(r.Context()),
			}
			if addr := r.URL.Query().Get("emailaddress"); addr != "" {
				fields = append(fields, "emailaddress", addr)
			}
			if info := requestinfo.FromContext(r.Context()); info != nil {
				fields = append(fields,
					"ip", info.Geo.IP,
					"country", info.Geo.CountryISO,
					"client", info.UA.Client,
				)
			}

			if ww.Status() >= http.StatusInternalServerError {
				log.Warnw("request", fields...)
				return
			}
			log.Infow("request", fields...)
		})
	}
}
