// Package api предоставляет маршруты приложения биллинга.
package api

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/inventory-billing/internal/config"
	"github.com/magabrotheeeer/inventory-billing/internal/http/handlers/health"
	"github.com/magabrotheeeer/inventory-billing/internal/http/handlers/notify/ping"
	"github.com/magabrotheeeer/inventory-billing/internal/http/handlers/notify/report"
	"github.com/magabrotheeeer/inventory-billing/internal/http/handlers/notify/sale"
	"github.com/magabrotheeeer/inventory-billing/internal/http/handlers/notify/settings"
	"github.com/magabrotheeeer/inventory-billing/internal/http/handlers/payment/callback"
	"github.com/magabrotheeeer/inventory-billing/internal/http/handlers/payment/check"
	"github.com/magabrotheeeer/inventory-billing/internal/http/handlers/payment/initiate"
	"github.com/magabrotheeeer/inventory-billing/internal/http/handlers/payment/list"
	"github.com/magabrotheeeer/inventory-billing/internal/http/handlers/payment/webhook"
	"github.com/magabrotheeeer/inventory-billing/internal/http/handlers/trial/activate"
	"github.com/magabrotheeeer/inventory-billing/internal/http/middlewarectx"
	notifierservice "github.com/magabrotheeeer/inventory-billing/internal/services/notifier"
	paymentservice "github.com/magabrotheeeer/inventory-billing/internal/services/payment"
	"github.com/magabrotheeeer/inventory-billing/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	db *repository.Storage, paymentService *paymentservice.Service,
	notifierService *notifierservice.Service, verifyQueue webhook.Queue,
	tokenParser middlewarectx.TokenParser) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(tokenParser, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/payments/initiate", initiate.New(logger, paymentService).ServeHTTP)
			r.Get("/payments/check/{tx_ref}", check.New(logger, paymentService).ServeHTTP)
			r.Get("/payments/list", list.New(logger, db).ServeHTTP)
			r.Post("/trial/activate", activate.New(logger, db, cfg.TrialDays).ServeHTTP)
			r.Post("/notifications/sale", sale.New(logger, db, notifierService).ServeHTTP)
			r.Post("/notifications/report", report.New(logger, db, notifierService).ServeHTTP)
			r.Post("/notifications/ping", ping.New(logger, db, notifierService).ServeHTTP)
			r.Put("/notifications/settings", settings.New(logger, db).ServeHTTP)
		})

		// Webhook endpoint (без аутентификации, подпись проверяется внутри)
		r.Post("/payments/webhook", webhook.New(logger, verifyQueue, paymentService, cfg.WebhookSecret).ServeHTTP)
	})

	// Redirect платежного шлюза после оплаты
	r.Get("/payment/callback", callback.New(logger, paymentService, cfg.PaymentResultURL).ServeHTTP)

	r.Get("/health", health.New(logger, db).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
