package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"freelance-marketplace/internal/config"
	"freelance-marketplace/internal/domain/model"
	"freelance-marketplace/internal/domain/ports/adapter"
	red "freelance-marketplace/internal/infra/redis"
	"freelance-marketplace/internal/usecase"
)

// Server wires the payment routes. The webhook route is the only one that
// needs the raw request body; everything else is ordinary JSON.
type Server struct {
	paymentUC      usecase.PaymentUseCase
	webhookUC      usecase.WebhookUseCase
	verifier       adapter.WebhookVerifier
	auth           *AuthManager
	limiter        *red.RateLimiter
	rateCfg        config.RateLimitConfig
	log            *zerolog.Logger
	processTimeout time.Duration

	server *http.Server
}

func NewServer(
	cfg *config.Config,
	paymentUC usecase.PaymentUseCase,
	webhookUC usecase.WebhookUseCase,
	verifier adapter.WebhookVerifier,
	auth *AuthManager,
	limiter *red.RateLimiter,
	logger *zerolog.Logger,
) *Server {
	s := &Server{
		paymentUC:      paymentUC,
		webhookUC:      webhookUC,
		verifier:       verifier,
		auth:           auth,
		limiter:        limiter,
		rateCfg:        cfg.RateLimit,
		log:            logger,
		processTimeout: 30 * time.Second,
	}
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      s.routes(cfg.HTTP.RequestTimeout),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
	}
	return s
}

func (s *Server) routes(requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(traceID(s.log))
	r.Use(recoverer(s.log))
	r.Use(requestLog(s.log))

	r.Route("/payment", func(r chi.Router) {
		// The timeout middleware stays off the webhook route: its handler
		// acknowledges immediately and must never be cut short by a
		// request-scoped deadline racing the ack.
		r.Post("/webhook", s.handleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(timeout(requestTimeout))

			r.With(s.requireRole(model.RoleFreelancer), s.rateLimit("checkout")).
				Post("/checkout-session", s.handleCreateCheckoutSession)

			r.With(s.rateLimit("verify")).
				Post("/verify-session", s.handleVerifySession)

			r.With(s.requireRole(model.RoleFreelancer, model.RoleClient)).
				Get("/my-payments", s.handleMyPayments)

			r.With(s.requireRole(model.RoleAdmin)).
				Get("/history", s.handlePaymentHistory)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
