package idempotency

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/splitledger/internal/metrics"
)

const (
	// Header is the request header carrying the client's key.
	Header = "Idempotency-Key"
	// ReplayedHeader is set on responses served from the store.
	ReplayedHeader = "Idempotent-Replayed"

	maxBodyBytes = 1 << 20
)

// Middleware replays stored responses for requests that repeat an
// Idempotency-Key. Requests without the header pass straight through.
// Responses with a 5xx status, and handlers that panic, are not stored, so
// the client may retry.
// If the store is unreachable the request runs without protection.
func Middleware(store Store, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := r.Header.Get(Header)
			if clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
			if err != nil {
				writeMessage(w, http.StatusBadRequest, "Failed to read request body")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := r.Method + " " + r.URL.Path + " " + clientKey
			fingerprint := fingerprintOf(r.Method, r.URL.Path, body)

			rec, claimed, err := store.Begin(r.Context(), key, ttl)
			switch {
			case errors.Is(err, ErrInFlight):
				writeMessage(w, http.StatusConflict, "A request with this Idempotency-Key is already in progress")
				return
			case err != nil:
				slog.WarnContext(r.Context(), "Idempotency store unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			case !claimed:
				if rec.Fingerprint != fingerprint {
					writeMessage(w, http.StatusUnprocessableEntity, "Idempotency-Key reused with a different request")
					return
				}
				metrics.IdempotentReplays.Inc()
				if rec.ContentType != "" {
					w.Header().Set("Content-Type", rec.ContentType)
				}
				w.Header().Set(ReplayedHeader, "true")
				w.WriteHeader(rec.Status)
				_, _ = w.Write(rec.Body)
				return
			}

			ctx := context.WithoutCancel(r.Context())
			rw := &recorder{ResponseWriter: w, status: http.StatusOK}
			func() {
				// A panicking handler must not leave the key in flight until it expires.
				defer func() {
					if p := recover(); p != nil {
						if err := store.Release(ctx, key); err != nil {
							slog.WarnContext(ctx, "Idempotency release failed", "error", err)
						}
						panic(p)
					}
				}()
				next.ServeHTTP(rw, r)
			}()

			if rw.status >= http.StatusInternalServerError {
				if err := store.Release(ctx, key); err != nil {
					slog.WarnContext(ctx, "Idempotency release failed", "error", err)
				}
				return
			}
			err = store.Complete(ctx, key, Record{
				Status:      rw.status,
				ContentType: rw.Header().Get("Content-Type"),
				Body:        rw.body.Bytes(),
				Fingerprint: fingerprint,
			}, ttl)
			if err != nil {
				slog.WarnContext(ctx, "Idempotency record failed", "error", err)
			}
		})
	}
}

func fingerprintOf(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// recorder passes the response through while keeping a copy.
type recorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (r *recorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
