// Package sale обрабатывает отправку чека о продаже на почту владельца.
package sale

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/inventory-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/inventory-billing/internal/http/response"
	"github.com/magabrotheeeer/inventory-billing/internal/lib/sl"
	"github.com/magabrotheeeer/inventory-billing/internal/models"
	"github.com/magabrotheeeer/inventory-billing/internal/services/notifier"
)

// Ledger определяет доступ к данным пользователя.
type Ledger interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Service определяет интерфейс сервиса уведомлений.
type Service interface {
	SendSaleReceipt(user *models.User, sale notifier.SaleEvent) error
}

// Handler обрабатывает запросы на отправку чека о продаже.
type Handler struct {
	log      *slog.Logger // Логгер для записи информации и ошибок
	ledger   Ledger
	notifier Service
	validate *validator.Validate // Валидатор структуры входящих данных
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, ledger Ledger, ns Service) *Handler {
	return &Handler{
		log:      log,
		ledger:   ledger,
		notifier: ns,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Отправить чек о продаже
// @Description Отправляет чек о продаже на почту владельца, если уведомления включены
// @Tags Notifications
// @Accept  json
// @Produce  json
// @Param request body notifier.SaleEvent true "Данные о продаже"
// @Success 200 {object} response.Response "Письмо отправлено или уведомления отключены"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Сбой доставки письма"
// @Router /notifications/sale [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notify.sale"
	log := h.log.With(slog.String("op", op))

	var req notifier.SaleEvent
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

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

	if err := h.notifier.SendSaleReceipt(user, req); err != nil {
		if errors.Is(err, notifier.ErrNotificationsDisabled) {
			render.JSON(w, r, response.StatusOKWithData(map[string]string{"result": "notifications disabled"}))
			return
		}
		log.Error("failed to send sale receipt", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to send email"))
		return
	}

	log.Info("sale receipt sent", slog.String("user_uid", userUID), slog.String("sale_id", req.SaleID))
	render.JSON(w, r, response.StatusOKWithData(map[string]string{"result": "sent"}))
}
