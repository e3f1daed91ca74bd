// Package payment содержит бизнес-логику платежного контура: инициацию
// платежа и единую процедуру верификации, к которой сходятся опрос
// статуса, redirect-callback шлюза и асинхронный webhook.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/magabrotheeeer/inventory-billing/internal/gateway"
	"github.com/magabrotheeeer/inventory-billing/internal/lib/sl"
	"github.com/magabrotheeeer/inventory-billing/internal/lib/txref"
	"github.com/magabrotheeeer/inventory-billing/internal/metrics"
	"github.com/magabrotheeeer/inventory-billing/internal/models"
	"github.com/magabrotheeeer/inventory-billing/internal/storage/repository"
)

// Ошибки уровня сервиса.
var (
	// ErrEmailMismatch почта из запроса не совпадает с почтой в леджере.
	ErrEmailMismatch = errors.New("asserted email does not match identity record")
	// ErrAccessDenied попытка чтения чужого платежа.
	ErrAccessDenied = errors.New("payment belongs to another user")
)

// Ledger описывает методы леджера, нужные платежному контуру.
type Ledger interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateSubscriptionWindow(ctx context.Context, userUID string, start, end time.Time) error
	CreatePayment(ctx context.Context, p models.Payment) (int, error)
	GetPayment(ctx context.Context, reference string) (*models.Payment, error)
	MarkPaymentSuccessful(ctx context.Context, reference string, amount float64, verifiedAt time.Time) (int, error)
	MarkPaymentFailed(ctx context.Context, reference, reason string, verifiedAt time.Time) (int, error)
	SetPaymentError(ctx context.Context, reference, message string) error
}

// GatewayClient описывает клиент платежного шлюза.
type GatewayClient interface {
	Charge(ctx context.Context, req gateway.ChargeRequest) (*gateway.ChargeResponse, error)
	Verify(ctx context.Context, reference string) (*gateway.VerifyResult, error)
}

// Cache описывает методы для кэширования данных. Кешируются только
// терминальные записи, поэтому инвалидация не требуется.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
}

// Billing тарифные настройки: цена одного расчетного периода (месяца)
// и валюта по умолчанию.
type Billing struct {
	UnitPrice   float64
	Currency    string
	CallbackURL string
}

// Service реализует платежный контур поверх леджера и клиента шлюза.
type Service struct {
	ledger  Ledger
	gateway GatewayClient
	cache   Cache
	billing Billing
	log     *slog.Logger
}

// New создает новый Service.
func New(ledger Ledger, gw GatewayClient, cache Cache, billing Billing, log *slog.Logger) *Service {
	return &Service{
		ledger:  ledger,
		gateway: gw,
		cache:   cache,
		billing: billing,
		log:     log,
	}
}

// InitiateCharge создает платеж у шлюза и запись pending в леджере.
// Почта из запроса обязана совпадать с почтой пользователя в леджере.
func (s *Service) InitiateCharge(ctx context.Context, userUID, assertedEmail string, amount float64, currency string) (*models.Payment, error) {
	const op = "payment.InitiateCharge"

	// Владелец ищется по заявленной почте: несуществующий адрес и чужой
	// адрес одинаково означают несовпадение с учетной записью.
	user, err := s.ledger.GetUserByEmail(ctx, assertedEmail)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailMismatch)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.UID != userUID {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailMismatch)
	}

	if amount <= 0 {
		amount = s.billing.UnitPrice
	}
	if currency == "" {
		currency = s.billing.Currency
	}

	reference := txref.New(userUID)
	chargeResp, err := s.gateway.Charge(ctx, gateway.ChargeRequest{
		Reference:   reference,
		Amount:      amount,
		Currency:    currency,
		RedirectURL: s.billing.CallbackURL,
		Customer: gateway.Customer{
			Email: user.Email,
			Name:  user.Username,
		},
		// uid дублируется в метаданных, ссылка остается лишь подсказкой.
		Meta: map[string]string{"user_uid": userUID},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p := models.Payment{
		Reference:   reference,
		UserUID:     userUID,
		Amount:      amount,
		Currency:    currency,
		CheckoutURL: chargeResp.CheckoutURL,
		Status:      models.PaymentStatusPending,
	}
	if _, err := s.ledger.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.PaymentsInitiated.Inc()
	s.log.Info("payment initiated",
		slog.String("reference", reference), slog.String("user_uid", userUID))
	return &p, nil
}

// Poll возвращает статус платежа для владельца или администратора.
// Терминальные записи отдаются из кеша или леджера без обращения к
// шлюзу, pending дополнительно перепроверяется.
func (s *Service) Poll(ctx context.Context, userUID, role, reference string) (*models.Payment, error) {
	const op = "payment.Poll"

	cacheKey := "payment:" + reference
	var cached *models.Payment
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read payment from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found && cached != nil {
		if cached.UserUID != userUID && role != models.RoleAdmin {
			return nil, fmt.Errorf("%s: %w", op, ErrAccessDenied)
		}
		return cached, nil
	}

	rec, err := s.ledger.GetPayment(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if rec.UserUID != userUID && role != models.RoleAdmin {
		return nil, fmt.Errorf("%s: %w", op, ErrAccessDenied)
	}
	if rec.IsTerminal() {
		s.cachePayment(rec)
		return rec, nil
	}

	confirmed, err := s.Confirm(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return confirmed, nil
}

// ConfirmFromCallback обрабатывает redirect шлюза. Статус из параметров
// redirect не учитывается: uid из ссылки - только подсказка, которая
// сверяется с записью леджера, исход определяет повторная верификация.
func (s *Service) ConfirmFromCallback(ctx context.Context, reference string) (*models.Payment, error) {
	const op = "payment.ConfirmFromCallback"

	hintUID, err := txref.Parse(reference)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rec, err := s.ledger.GetPayment(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if rec.UserUID != hintUID {
		s.log.Error("reference hint does not match ledger owner",
			slog.String("reference", reference),
			slog.String("hint_uid", hintUID),
			slog.String("owner_uid", rec.UserUID))
		return nil, fmt.Errorf("%s: %w", op, ErrAccessDenied)
	}
	return s.Confirm(ctx, reference)
}

// Confirm - единая процедура верификации, к которой сходятся все три
// точки входа. Переход в терминальный статус выполняется условным
// обновлением pending-записи, поэтому повторный вызов для той же ссылки
// не продлевает подписку второй раз.
func (s *Service) Confirm(ctx context.Context, reference string) (*models.Payment, error) {
	const op = "payment.Confirm"

	rec, err := s.ledger.GetPayment(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if rec.IsTerminal() {
		return rec, nil
	}

	user, err := s.ledger.GetUser(ctx, rec.UserUID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Повторы на этом уровне не нужны, они уже были в клиенте шлюза.
			return s.reject(ctx, rec, "invalid user id")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		if recErr := s.ledger.SetPaymentError(ctx, reference, err.Error()); recErr != nil {
			s.log.Error("failed to record verification error", sl.Err(recErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch res.Outcome {
	case gateway.OutcomeSuccess:
		return s.credit(ctx, rec, user, res)
	case gateway.OutcomeFailed:
		reason := res.Message
		if reason == "" {
			reason = "payment failed"
		}
		return s.reject(ctx, rec, reason)
	default:
		metrics.PaymentVerifications.WithLabelValues("pending").Inc()
		s.log.Info("payment still pending", slog.String("reference", reference))
		return rec, nil
	}
}

// credit начисляет подписку за подтвержденный платеж. Продление
// выполняет только запрос, выигравший переход pending -> successful.
func (s *Service) credit(ctx context.Context, rec *models.Payment, user *models.User, res *gateway.VerifyResult) (*models.Payment, error) {
	const op = "payment.credit"

	months := int(math.Floor(res.Amount / s.billing.UnitPrice))
	if months < 1 {
		return s.reject(ctx, rec, "amount below unit price")
	}

	now := time.Now()
	rows, err := s.ledger.MarkPaymentSuccessful(ctx, rec.Reference, res.Amount, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		// Конкурентный callback или webhook успел первым.
		s.log.Info("payment already credited, skipping extension",
			slog.String("reference", rec.Reference))
		current, err := s.ledger.GetPayment(ctx, rec.Reference)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return current, nil
	}

	// Лапсированное окно продлевается от текущего момента, не от
	// устаревшей даты окончания.
	base := now
	if user.SubscriptionEndDate != nil && user.SubscriptionEndDate.After(now) {
		base = *user.SubscriptionEndDate
	}
	newEnd := base.AddDate(0, months, 0)
	if err := s.ledger.UpdateSubscriptionWindow(ctx, user.UID, base, newEnd); err != nil {
		// Платеж уже терминален и повторная верификация окно не продлит,
		// поэтому сбой фиксируется на записи для ручного разбора.
		if recErr := s.ledger.SetPaymentError(ctx, rec.Reference,
			"subscription extension failed: "+err.Error()); recErr != nil {
			s.log.Error("failed to record extension error", sl.Err(recErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rec.Status = models.PaymentStatusSuccessful
	rec.Amount = res.Amount
	rec.VerifiedAt = &now
	rec.LastError = nil
	s.cachePayment(rec)

	metrics.PaymentVerifications.WithLabelValues("success").Inc()
	s.log.Info("subscription extended",
		slog.String("user_uid", user.UID),
		slog.String("reference", rec.Reference),
		slog.Int("months", months),
		slog.Time("new_end", newEnd))
	return rec, nil
}

func (s *Service) reject(ctx context.Context, rec *models.Payment, reason string) (*models.Payment, error) {
	const op = "payment.reject"

	now := time.Now()
	rows, err := s.ledger.MarkPaymentFailed(ctx, rec.Reference, reason, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		current, err := s.ledger.GetPayment(ctx, rec.Reference)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return current, nil
	}

	rec.Status = models.PaymentStatusFailed
	rec.VerifiedAt = &now
	rec.LastError = &reason
	s.cachePayment(rec)

	metrics.PaymentVerifications.WithLabelValues("failed").Inc()
	s.log.Info("payment rejected",
		slog.String("reference", rec.Reference), slog.String("reason", reason))
	return rec, nil
}

// RecordProcessingError фиксирует внутреннюю ошибку обработки на записи
// платежа. Используется webhook/callback, которые обязаны подтвердить
// получение даже при сбое.
func (s *Service) RecordProcessingError(ctx context.Context, reference string, procErr error) {
	if err := s.ledger.SetPaymentError(ctx, reference, procErr.Error()); err != nil {
		s.log.Error("failed to record processing error",
			slog.String("reference", reference), sl.Err(err))
	}
}

func (s *Service) cachePayment(p *models.Payment) {
	cacheKey := "payment:" + p.Reference
	if err := s.cache.Set(cacheKey, p, time.Hour); err != nil {
		s.log.Warn("failed to cache payment", slog.String("key", cacheKey), sl.Err(err))
	}
}
