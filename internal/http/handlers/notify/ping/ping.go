// Package ping обрабатывает отправку отладочного письма.
package ping

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/inventory-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/inventory-billing/internal/http/response"
	"github.com/magabrotheeeer/inventory-billing/internal/lib/sl"
	"github.com/magabrotheeeer/inventory-billing/internal/models"
)

// Ledger определяет доступ к данным пользователя.
type Ledger interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Service определяет интерфейс сервиса уведомлений.
type Service interface {
	SendPing(user *models.User) error
}

// Handler обрабатывает запросы на отправку отладочного письма.
type Handler struct {
	log      *slog.Logger // Логгер для записи информации и ошибок
	ledger   Ledger
	notifier Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, ledger Ledger, ns Service) *Handler {
	return &Handler{
		log:      log,
		ledger:   ledger,
		notifier: ns,
	}
}

// ServeHTTP godoc
// @Summary Отправить отладочное письмо
// @Description Отправляет тестовое письмо на почту пользователя для проверки SMTP транспорта
// @Tags Notifications
// @Produce  json
// @Success 200 {object} response.Response "Письмо отправлено"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Сбой доставки письма"
// @Router /notifications/ping [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notify.ping"
	log := h.log.With(slog.String("op", op))

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user UID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	user, err := h.ledger.GetUser(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	if err := h.notifier.SendPing(user); err != nil {
		log.Error("failed to send ping email", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to send email"))
		return
	}

	log.Info("ping email sent", slog.String("user_uid", userUID))
	render.JSON(w, r, response.StatusOKWithData(map[string]string{"result": "sent"}))
}
