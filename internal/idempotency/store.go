// Package idempotency lets clients safely retry POST requests.
//
// A request carrying an Idempotency-Key header is executed at most once per
// key; later requests with the same key get the stored response back. Keys
// expire after a TTL.
package idempotency

import (
	"context"
	"errors"
	"time"
)

// ErrInFlight is returned by Begin when another request holds the key.
var ErrInFlight = errors.New("request with this idempotency key is in progress")

// Record is a stored response.
type Record struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
	// Fingerprint identifies the request that produced the response, so a
	// key reused for a different request can be rejected.
	Fingerprint string `json:"fingerprint"`
}

// Store keeps idempotency keys and their responses.
type Store interface {
	// Begin claims key for a new request. If the key already has a completed
	// response it is returned with claimed=false. If another request holds
	// the key, ErrInFlight is returned.
	Begin(ctx context.Context, key string, ttl time.Duration) (rec *Record, claimed bool, err error)

	// Complete stores the response for a claimed key.
	Complete(ctx context.Context, key string, rec Record, ttl time.Duration) error

	// Release drops a claimed key without a response so the request can be retried.
	Release(ctx context.Context, key string) error
}
