package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/inventory-billing/internal/models"
)

// CreatePayment вставляет новую запись платежа в статусе pending
// и возвращает её ID.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (int, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (reference, user_uid, amount, currency, checkout_url, status, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW())
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		p.Reference, p.UserUID, p.Amount, p.Currency, p.CheckoutURL,
		models.PaymentStatusPending).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetPayment возвращает запись платежа по транзакционной ссылке.
func (s *Storage) GetPayment(ctx context.Context, reference string) (*models.Payment, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, reference, user_uid, amount, currency, checkout_url, status,
			      created_at, verified_at, last_error
			  FROM payments
			  WHERE reference = $1`
	row := s.DB.QueryRowContext(ctx, query, reference)

	p := &models.Payment{}
	var verifiedAt sql.NullTime
	var lastError sql.NullString
	if err := row.Scan(&p.ID, &p.Reference, &p.UserUID, &p.Amount, &p.Currency,
		&p.CheckoutURL, &p.Status, &p.CreatedAt, &verifiedAt, &lastError); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if verifiedAt.Valid {
		p.VerifiedAt = &verifiedAt.Time
	}
	if lastError.Valid {
		p.LastError = &lastError.String
	}
	return p, nil
}

// MarkPaymentSuccessful переводит платеж из pending в successful.
// Возвращает количество измененных строк: 0 означает, что переход уже
// выполнен конкурентным запросом и начислять подписку повторно нельзя.
func (s *Storage) MarkPaymentSuccessful(ctx context.Context, reference string, amount float64, verifiedAt time.Time) (int, error) {
	const op = "storage.MarkPaymentSuccessful"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments
			  SET status = $1, amount = $2, verified_at = $3, last_error = NULL
			  WHERE reference = $4
			    AND status = $5`
	res, err := s.DB.ExecContext(ctx, query,
		models.PaymentStatusSuccessful, amount, verifiedAt, reference, models.PaymentStatusPending)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// MarkPaymentFailed переводит платеж из pending в failed с причиной
// отказа от шлюза. Терминальные записи не изменяются.
func (s *Storage) MarkPaymentFailed(ctx context.Context, reference, reason string, verifiedAt time.Time) (int, error) {
	const op = "storage.MarkPaymentFailed"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments
			  SET status = $1, verified_at = $2, last_error = $3
			  WHERE reference = $4
			    AND status = $5`
	res, err := s.DB.ExecContext(ctx, query,
		models.PaymentStatusFailed, verifiedAt, reason, reference, models.PaymentStatusPending)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// SetPaymentError записывает последнюю внутреннюю ошибку обработки,
// не меняя статус платежа.
func (s *Storage) SetPaymentError(ctx context.Context, reference, message string) error {
	const op = "storage.SetPaymentError"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments
			  SET last_error = $1
			  WHERE reference = $2`
	_, err := s.DB.ExecContext(ctx, query, message, reference)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListPaymentsByUser возвращает платежи пользователя с пагинацией.
func (s *Storage) ListPaymentsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error) {
	const op = "storage.ListPaymentsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, reference, user_uid, amount, currency, checkout_url, status,
			      created_at, verified_at, last_error
			  FROM payments
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		var p models.Payment
		var verifiedAt sql.NullTime
		var lastError sql.NullString
		if err := rows.Scan(&p.ID, &p.Reference, &p.UserUID, &p.Amount, &p.Currency,
			&p.CheckoutURL, &p.Status, &p.CreatedAt, &verifiedAt, &lastError); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if verifiedAt.Valid {
			p.VerifiedAt = &verifiedAt.Time
		}
		if lastError.Valid {
			p.LastError = &lastError.String
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
