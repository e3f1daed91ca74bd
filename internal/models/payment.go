package models

import "time"

// Статусы жизненного цикла платежа. Запись создается в статусе pending
// и ровно один раз переходит в терминальный successful или failed.
const (
	PaymentStatusPending    = "pending"
	PaymentStatusSuccessful = "successful"
	PaymentStatusFailed     = "failed"
)

// Payment представляет запись о платеже в леджере, ключ - транзакционная
// ссылка, выданная при инициации платежа.
type Payment struct {
	ID          int        `json:"id"`
	Reference   string     `json:"reference"` // Уникальная ссылка транзакции
	UserUID     string     `json:"user_uid"`  // Владелец платежа
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	CheckoutURL string     `json:"checkout_url"` // Ссылка на страницу оплаты у шлюза
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	LastError   *string    `json:"last_error,omitempty"`
}

// IsTerminal сообщает, достиг ли платеж терминального статуса.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusSuccessful || p.Status == PaymentStatusFailed
}
