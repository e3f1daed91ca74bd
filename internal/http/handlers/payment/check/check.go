// Package check обрабатывает опрос статуса платежа владельцем.
package check

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/inventory-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/inventory-billing/internal/http/response"
	"github.com/magabrotheeeer/inventory-billing/internal/lib/sl"
	"github.com/magabrotheeeer/inventory-billing/internal/models"
	"github.com/magabrotheeeer/inventory-billing/internal/services/payment"
	"github.com/magabrotheeeer/inventory-billing/internal/storage/repository"
)

// CheckResponse статус платежа для клиента.
type CheckResponse struct {
	Reference string  `json:"reference"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Error     string  `json:"error,omitempty"`
}

// Service определяет интерфейс платежного сервиса.
type Service interface {
	Poll(ctx context.Context, userUID, role, reference string) (*models.Payment, error)
}

// Handler обрабатывает запросы на проверку статуса платежа.
type Handler struct {
	log            *slog.Logger // Логгер для записи информации и ошибок
	paymentService Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, ps Service) *Handler {
	return &Handler{
		log:            log,
		paymentService: ps,
	}
}

// ServeHTTP godoc
// @Summary Проверить статус платежа
// @Description Возвращает статус платежа по ссылке; pending-платеж перепроверяется у шлюза
// @Tags Payments
// @Produce  json
// @Param tx_ref path string true "Ссылка платежа"
// @Success 200 {object} CheckResponse "Статус платежа"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Платеж не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера или платежного шлюза"
// @Router /payments/check/{tx_ref} [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.check"
	log := h.log.With(slog.String("op", op))

	reference := chi.URLParam(r, "tx_ref")
	if reference == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing tx_ref"))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user UID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	role, _ := r.Context().Value(middlewarectx.Role).(string)

	rec, err := h.paymentService.Poll(r.Context(), userUID, role, reference)
	if err != nil {
		// Чужой платеж не отличим от несуществующего, чтобы не
		// раскрывать валидность ссылок.
		if errors.Is(err, payment.ErrAccessDenied) || errors.Is(err, repository.ErrPaymentNotFound) {
			log.Error("payment not found or not owned", slog.String("reference", reference))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("payment not found"))
			return
		}
		log.Error("failed to check payment", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to check payment"))
		return
	}

	resp := CheckResponse{
		Reference: rec.Reference,
		Status:    rec.Status,
		Amount:    rec.Amount,
		Currency:  rec.Currency,
	}
	if rec.LastError != nil {
		resp.Error = *rec.LastError
	}
	render.JSON(w, r, response.StatusOKWithData(resp))
}
