// Package verifyworker собирает воркер верификации платежей: потребляет
// ссылки из очереди, поставленные webhook-обработчиком, и выполняет
// единую процедуру подтверждения. Транзиентная ошибка возвращает
// сообщение в очередь, брокер доставит его повторно.
package verifyworker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/inventory-billing/internal/cache"
	"github.com/magabrotheeeer/inventory-billing/internal/config"
	"github.com/magabrotheeeer/inventory-billing/internal/gateway"
	"github.com/magabrotheeeer/inventory-billing/internal/lib/sl"
	"github.com/magabrotheeeer/inventory-billing/internal/rabbitmq"
	paymentservice "github.com/magabrotheeeer/inventory-billing/internal/services/payment"
	"github.com/magabrotheeeer/inventory-billing/internal/storage/repository"
)

type App struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	paymentSvc *paymentservice.Service
	logger     *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetBillingQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	gatewayClient := gateway.NewClient(
		cfg.GatewaySecretKey, cfg.GatewayAPIURL, cfg.GatewayTimeout, cfg.GatewayMaxRetries)

	paymentSvc := paymentservice.New(db, gatewayClient, cacheRedis, paymentservice.Billing{
		UnitPrice:   cfg.UnitPrice,
		Currency:    cfg.Currency,
		CallbackURL: cfg.CallbackBaseURL + "/payment/callback",
	}, logger)

	return &App{
		conn:       conn,
		ch:         ch,
		paymentSvc: paymentSvc,
		logger:     logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.VerifyQueue, a.handleVerifyTask(ctx))
	if err != nil {
		a.logger.Error("failed to start verify queue consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("verify worker shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}

// handleVerifyTask возвращает обработчик сообщения очереди. Ошибка
// обработчика приводит к возврату сообщения в очередь, поэтому
// невосстановимые случаи (битый JSON, неизвестная ссылка) отбрасываются
// с записью в лог.
func (a *App) handleVerifyTask(ctx context.Context) func([]byte) error {
	return func(body []byte) error {
		var task rabbitmq.VerifyTask
		if err := json.Unmarshal(body, &task); err != nil {
			a.logger.Error("failed to unmarshal verify task, dropping", sl.Err(err))
			return nil
		}
		if task.Reference == "" {
			a.logger.Error("verify task without reference, dropping")
			return nil
		}

		rec, err := a.paymentSvc.Confirm(ctx, task.Reference)
		if err != nil {
			if errors.Is(err, repository.ErrPaymentNotFound) {
				a.logger.Error("payment not found, dropping task",
					slog.String("reference", task.Reference))
				return nil
			}
			a.logger.Error("verification failed, message will be requeued",
				slog.String("reference", task.Reference), sl.Err(err))
			return err
		}

		a.logger.Info("verification completed",
			slog.String("reference", task.Reference),
			slog.String("status", rec.Status))
		return nil
	}
}
