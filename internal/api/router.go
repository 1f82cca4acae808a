package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/paystream/internal/api/handlers"
	"github.com/baharkarakas/paystream/internal/auth"
	"github.com/baharkarakas/paystream/internal/authz"
	"github.com/baharkarakas/paystream/internal/config"
	"github.com/baharkarakas/paystream/internal/metrics"
	"github.com/baharkarakas/paystream/internal/middleware"
	"github.com/baharkarakas/paystream/internal/services"
)

type RouterDeps struct {
	Cfg      config.Config
	Log      *slog.Logger
	Tokens   *auth.TokenManager
	TxnSvc   *services.TransactionService
	BankSvc  *services.BankService
	AuditSvc *services.AuditService
}

func NewRouter(d RouterDeps) http.Handler {
	txh := handlers.NewTransactionHandler(d.TxnSvc, d.Log)
	bh := handlers.NewBankHandler(d.BankSvc, d.Log)
	ah := handlers.NewAuditHandler(d.AuditSvc, d.Log)
	authH := handlers.NewAuthHandler(d.Tokens, d.Cfg.Env, d.Log)
	authMw := middleware.NewAuthMiddleware(d.Tokens, d.Cfg.IdentityMode)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover(d.Log), middleware.HTTPMetrics(d.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.HeaderRequestID},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth ----------
		r.Post("/auth/token", authH.Token)
		r.Post("/auth/refresh", authH.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(authMw.Auth, middleware.RateLimit(d.Cfg.RateRPS))

			// ---------- transactions ----------
			r.Route("/transactions", func(r chi.Router) {
				r.With(middleware.Require(authz.OpCreate)).Post("/", txh.Create)
				r.With(middleware.Require(authz.OpCreateBulk)).Post("/bulk", txh.CreateBulk)

				r.Group(func(r chi.Router) {
					r.Use(middleware.Require(authz.OpRead))
					r.Get("/", txh.List)
					r.Get("/status/{status}", txh.ListByStatus)
					r.Get("/batch/{batchId}", txh.ListByBatch)
					r.Get("/{id}", txh.Get)
				})

				r.With(middleware.Require(authz.OpApprove)).Put("/{id}/approve", txh.Approve)
				r.With(middleware.Require(authz.OpReject)).Put("/{id}/reject", txh.Reject)
				r.With(middleware.Require(authz.OpBatchApprove)).Put("/batch/{batchId}/approve", txh.BatchApprove)
				r.With(middleware.Require(authz.OpBatchReject)).Put("/batch/{batchId}/reject", txh.BatchReject)
			})

			// ---------- banks ----------
			r.Route("/banks", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.Require(authz.OpBankRead))
					r.Get("/", bh.List)
					r.Get("/active", bh.ListActive)
					r.Get("/{id}", bh.Get)
				})
				r.Group(func(r chi.Router) {
					r.Use(middleware.Require(authz.OpBankManage))
					r.Post("/", bh.Create)
					r.Put("/{id}", bh.Update)
					r.Put("/{id}/toggle-status", bh.ToggleStatus)
					r.Delete("/{id}", bh.Delete)
				})
			})

			// ---------- audit ----------
			r.Route("/audit", func(r chi.Router) {
				r.Use(middleware.Require(authz.OpAuditRead))
				r.Get("/", ah.List)
				r.Get("/verify", ah.Verify)
			})
		})
	})

	return r
}
