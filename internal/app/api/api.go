// Package api собирает HTTP приложение биллинга: хранилище, кеш,
// брокер очередей, клиент шлюза и все обработчики.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/inventory-billing/internal/cache"
	"github.com/magabrotheeeer/inventory-billing/internal/config"
	"github.com/magabrotheeeer/inventory-billing/internal/gateway"
	jwtlib "github.com/magabrotheeeer/inventory-billing/internal/lib/jwt"
	"github.com/magabrotheeeer/inventory-billing/internal/lib/pdf"
	smtplib "github.com/magabrotheeeer/inventory-billing/internal/lib/smtp"
	"github.com/magabrotheeeer/inventory-billing/internal/migrations"
	"github.com/magabrotheeeer/inventory-billing/internal/rabbitmq"
	notifierservice "github.com/magabrotheeeer/inventory-billing/internal/services/notifier"
	paymentservice "github.com/magabrotheeeer/inventory-billing/internal/services/payment"
	"github.com/magabrotheeeer/inventory-billing/internal/storage/repository"
)

type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	amqpConn *amqp.Connection
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	amqpConn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(amqpConn, rabbitmq.GetBillingQueues())
	if err != nil {
		return nil, err
	}
	verifyQueue := rabbitmq.NewVerifyPublisher(ch)

	gatewayClient := gateway.NewClient(
		cfg.GatewaySecretKey, cfg.GatewayAPIURL, cfg.GatewayTimeout, cfg.GatewayMaxRetries)

	paymentSvc := paymentservice.New(db, gatewayClient, cacheRedis, paymentservice.Billing{
		UnitPrice:   cfg.UnitPrice,
		Currency:    cfg.Currency,
		CallbackURL: cfg.CallbackBaseURL + "/payment/callback",
	}, logger)

	transport := smtplib.NewTransport(cfg.SMTP, logger)
	notifierSvc := notifierservice.New(transport, pdf.NewGenerator(), cfg.SendMaxRetries, logger)

	tokenMaker := jwtlib.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, db, paymentSvc, notifierSvc, verifyQueue, tokenMaker)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		amqpConn: amqpConn,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.amqpConn.Close(); closeErr != nil {
			a.logger.Error("failed to close rabbitmq connection", slog.Any("err", closeErr))
		}
		a.db.DB.Close()
		return err
	}
}
