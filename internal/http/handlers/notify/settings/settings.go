// Package settings обрабатывает изменение настроек уведомлений.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/inventory-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/inventory-billing/internal/http/response"
	"github.com/magabrotheeeer/inventory-billing/internal/lib/sl"
	"github.com/magabrotheeeer/inventory-billing/internal/models"
	"github.com/magabrotheeeer/inventory-billing/internal/storage/repository"
)

// UpdateSettingsRequest новые значения настроек уведомлений.
type UpdateSettingsRequest struct {
	EmailNotifications bool `json:"email_notifications"`
	InventoryAlerts    bool `json:"inventory_alerts"`
}

// Ledger определяет доступ к настройкам пользователя.
type Ledger interface {
	UpdateNotificationSettings(ctx context.Context, userUID string, settings models.NotificationSettings) error
}

// Handler обрабатывает запросы на обновление настроек уведомлений.
type Handler struct {
	log    *slog.Logger // Логгер для записи информации и ошибок
	ledger Ledger
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, ledger Ledger) *Handler {
	return &Handler{
		log:    log,
		ledger: ledger,
	}
}

// ServeHTTP godoc
// @Summary Обновить настройки уведомлений
// @Description Включает или отключает почтовые уведомления и отчеты по складу
// @Tags Notifications
// @Accept  json
// @Produce  json
// @Param request body UpdateSettingsRequest true "Новые настройки"
// @Success 200 {object} response.Response "Настройки сохранены"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /notifications/settings [put]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notify.settings"
	log := h.log.With(slog.String("op", op))

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user UID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	settings := models.NotificationSettings{
		EmailNotifications: req.EmailNotifications,
		InventoryAlerts:    req.InventoryAlerts,
	}
	if err := h.ledger.UpdateNotificationSettings(r.Context(), userUID, settings); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Error("user not found", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to update notification settings", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("notification settings updated",
		slog.String("user_uid", userUID),
		slog.Bool("email_notifications", settings.EmailNotifications),
		slog.Bool("inventory_alerts", settings.InventoryAlerts))
	render.JSON(w, r, response.StatusOKWithData(settings))
}
