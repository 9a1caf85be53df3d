// Package httpapi serves the REST API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/contracts"
	"github.com/mmynk/splitledger/internal/idempotency"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/service"
)

// RouterDeps are the collaborators the router needs.
type RouterDeps struct {
	Services *service.Services

	// JWT guards every API route when non-nil.
	JWT *auth.JWTManager

	// Idempotency stores replayable POST responses. Nil disables replay.
	Idempotency    idempotency.Store
	IdempotencyTTL time.Duration

	// RPCPath and RPC mount the Connect surface, which authenticates itself.
	RPCPath string
	RPC     http.Handler
}

// NewRouter builds the HTTP handler for the whole server.
func NewRouter(deps RouterDeps) http.Handler {
	h := &handlers{svc: deps.Services}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Authorization", "Content-Type", idempotency.Header, middleware.RequestIDHeader,
			"Connect-Protocol-Version", "Connect-Timeout-Ms",
		},
		ExposedHeaders: []string{middleware.RequestIDHeader, idempotency.ReplayedHeader, "Connect-Protocol-Version"},
		MaxAge:         300,
	}))

	r.NotFound(routeNotFound)
	r.MethodNotAllowed(routeNotFound)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Expense Sharing API is running"))
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, contracts.HealthResponse{Status: "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	if deps.RPC != nil {
		r.Handle(deps.RPCPath+"*", deps.RPC)
	}

	idem := func(next http.Handler) http.Handler { return next }
	if deps.Idempotency != nil {
		idem = idempotency.Middleware(deps.Idempotency, deps.IdempotencyTTL)
	}

	r.Group(func(r chi.Router) {
		if deps.JWT != nil {
			r.Use(middleware.Authenticate(deps.JWT))
		}

		r.Route("/users", func(r chi.Router) {
			r.Post("/", h.createUser)
			r.Get("/", h.listUsers)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", h.createGroup)
			r.Get("/{groupId}", h.getGroup)
			r.Post("/{groupId}/add-member", h.addMember)
			r.Get("/{groupId}/expenses", h.listExpenses)
		})

		r.With(idem).Post("/expenses", h.createExpense)

		r.Route("/balances", func(r chi.Router) {
			r.Get("/", h.groupBalances)
			r.Get("/{groupId}", h.groupBalances)
			r.Get("/{groupId}/simplified", h.simplifiedDebts)
		})

		r.With(idem).Post("/settlements", h.settle)
	})

	return r
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Route not found")
}
