// Package models содержит доменные модели пользователя и платежа.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// NotificationSettings настройки уведомлений пользователя.
type NotificationSettings struct {
	EmailNotifications bool `json:"email_notifications"` // Письма о продажах и платежах
	InventoryAlerts    bool `json:"inventory_alerts"`    // Отчеты и предупреждения по складу
}

// User представляет пользователя системы. Учетная запись заводится
// внешним identity-провайдером, здесь хранится профиль и окно подписки.
type User struct {
	UID                   string               `json:"uid"`      // Идентификатор, выданный identity-провайдером
	Email                 string               `json:"email"`    // Электронная почта
	Username              string               `json:"username"` // Отображаемое имя
	Role                  string               `json:"role"`     // Роль пользователя, admin или user
	Settings              NotificationSettings `json:"settings"`
	SubscriptionStartDate *time.Time           `json:"subscription_start_date"` // Начало оплаченного окна подписки
	SubscriptionEndDate   *time.Time           `json:"subscription_end_date"`   // Конец оплаченного окна подписки
	HasUsedTrial          bool                 `json:"has_used_trial"`
}

// HasActiveSubscription сообщает, действует ли подписка на момент now.
func (u *User) HasActiveSubscription(now time.Time) bool {
	return u.SubscriptionEndDate != nil && u.SubscriptionEndDate.After(now)
}

// RoleAdmin и RoleUser - допустимые роли пользователя.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)
