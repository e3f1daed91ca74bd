package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/inventory-billing/internal/models"
)

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, role, email_notifications, inventory_alerts,
			      subscription_start_date, subscription_end_date, has_used_trial
			  FROM users
			  WHERE uid = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, userUID), op)
}

// GetUserByEmail возвращает пользователя по адресу электронной почты.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, role, email_notifications, inventory_alerts,
			      subscription_start_date, subscription_end_date, has_used_trial
			  FROM users
			  WHERE email = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, email), op)
}

func (s *Storage) scanUser(row *sql.Row, op string) (*models.User, error) {
	u := &models.User{}
	var startDate, endDate sql.NullTime
	if err := row.Scan(&u.UID, &u.Email, &u.Username, &u.Role,
		&u.Settings.EmailNotifications, &u.Settings.InventoryAlerts,
		&startDate, &endDate, &u.HasUsedTrial); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if startDate.Valid {
		u.SubscriptionStartDate = &startDate.Time
	}
	if endDate.Valid {
		u.SubscriptionEndDate = &endDate.Time
	}
	return u, nil
}

// UpdateSubscriptionWindow записывает новое окно подписки пользователя.
func (s *Storage) UpdateSubscriptionWindow(ctx context.Context, userUID string, start, end time.Time) error {
	const op = "storage.UpdateSubscriptionWindow"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_start_date = $1,
			      subscription_end_date = $2
			  WHERE uid = $3`
	res, err := s.DB.ExecContext(ctx, query, start, end, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// ActivateTrial включает пробный период: окно подписки выставляется
// единственный раз, повторная активация возвращает ErrTrialAlreadyUsed.
func (s *Storage) ActivateTrial(ctx context.Context, userUID string, start, end time.Time) error {
	const op = "storage.ActivateTrial"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_start_date = $1,
			      subscription_end_date = $2,
			      has_used_trial = TRUE
			  WHERE uid = $3
			    AND has_used_trial = FALSE`
	res, err := s.DB.ExecContext(ctx, query, start, end, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		if _, err := s.GetUser(ctx, userUID); err != nil {
			return err
		}
		return fmt.Errorf("%s: %w", op, ErrTrialAlreadyUsed)
	}
	return nil
}

// UpdateNotificationSettings обновляет настройки уведомлений пользователя.
func (s *Storage) UpdateNotificationSettings(ctx context.Context, userUID string, settings models.NotificationSettings) error {
	const op = "storage.UpdateNotificationSettings"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET email_notifications = $1,
			      inventory_alerts = $2
			  WHERE uid = $3`
	res, err := s.DB.ExecContext(ctx, query, settings.EmailNotifications, settings.InventoryAlerts, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}
