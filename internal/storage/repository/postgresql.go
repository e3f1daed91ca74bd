// Package repository реализует леджер на основе PostgreSQL: профили
// пользователей с окном подписки и записи платежей по транзакционной
// ссылке. Терминальные переходы статуса платежа выполняются условными
// UPDATE, что делает повторное применение безопасным.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Ошибки уровня хранилища.
var (
	// ErrUserNotFound пользователь не найден в леджере.
	ErrUserNotFound = errors.New("user not found")
	// ErrPaymentNotFound платеж с такой ссылкой не найден.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrTrialAlreadyUsed пробный период уже активировался ранее.
	ErrTrialAlreadyUsed = errors.New("trial already used")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'payments'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table payments missing or query error: %w", err)
	}
	return nil
}
