package http

import (
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-markmap/internal/domain"
	"github.com/goliatone/go-markmap/internal/logging"
	"github.com/goliatone/go-markmap/internal/storage"
	"github.com/google/uuid"
)

const maxRequestIDLength = 64

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// accessLog assigns a request id and logs one line per request.
func (api *API) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		ctx := logging.ContextWithFields(r.Context(), map[string]any{"request_id": requestID})
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		logger := api.logger.WithContext(ctx)
		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", rec.bytes,
			"duration_ms", time.Since(started).Milliseconds(),
			"request_id", requestID,
		}
		if status >= http.StatusInternalServerError {
			logger.Error("http.request", args...)
			return
		}
		logger.Info("http.request", args...)
	})
}

// guardArtifactPath rejects artifact ids that could leave the store namespace
// before routing, so cleaned or redirected paths never reach a handler.
func guardArtifactPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rest, ok := strings.CutPrefix(r.URL.Path, "/artifact/")
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		id := strings.TrimSuffix(rest, path.Ext(rest))
		if strings.Contains(rest, "..") || strings.ContainsAny(rest, `/\`) {
			writeError(w, domain.InvalidID(id))
			return
		}
		if err := storage.ValidateID(id); err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// admit applies the access gate. The credential is read from the X-API-Key
// header, falling back to the apiKey query parameter.
func (api *API) admit(next http.Handler) http.Handler {
	if api.gate == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := strings.TrimSpace(r.Header.Get(credentialHeader))
		if credential == "" {
			credential = strings.TrimSpace(r.URL.Query().Get(credentialQuery))
		}

		decision := api.gate.Admit(credential, r.URL.Path)
		if !decision.Bypassed {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		}
		if !decision.Admitted {
			if decision.RetryAfter > 0 {
				seconds := int((decision.RetryAfter + time.Second - 1) / time.Second)
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
			}
			writeError(w, decision.Reason)
			return
		}
		next.ServeHTTP(w, r)
	})
}
