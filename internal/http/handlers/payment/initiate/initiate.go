// Package initiate обрабатывает запросы на создание платежа у шлюза.
package initiate

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
	"github.com/magabrotheeeer/inventory-billing/internal/services/payment"
)

// InitiateChargeRequest представляет запрос на инициацию платежа.
// Amount опционален: при нуле используется цена одного месяца.
type InitiateChargeRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// InitiateChargeResponse данные для перенаправления клиента на оплату.
type InitiateChargeResponse struct {
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkout_url"`
	Status      string `json:"status"`
}

// Service определяет интерфейс платежного сервиса.
type Service interface {
	InitiateCharge(ctx context.Context, userUID, assertedEmail string, amount float64, currency string) (*models.Payment, error)
}

// Handler обрабатывает запросы на инициацию платежей.
type Handler struct {
	log            *slog.Logger // Логгер для записи информации и ошибок
	paymentService Service
	validate       *validator.Validate // Валидатор структуры входящих данных
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, ps Service) *Handler {
	return &Handler{
		log:            log,
		paymentService: ps,
		validate:       validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Инициировать платеж
// @Description Создает платеж у платежного шлюза и возвращает ссылку на страницу оплаты
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body InitiateChargeRequest true "Данные для инициации платежа"
// @Success 200 {object} InitiateChargeResponse "Платеж создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Почта не совпадает с учетной записью"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера или платежного шлюза"
// @Router /payments/initiate [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.initiate"
	log := h.log.With(slog.String("op", op))

	var req InitiateChargeRequest
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

	rec, err := h.paymentService.InitiateCharge(r.Context(), userUID, req.Email, req.Amount, req.Currency)
	if err != nil {
		if errors.Is(err, payment.ErrEmailMismatch) {
			log.Error("asserted email does not match identity record", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("email does not match account"))
			return
		}
		log.Error("failed to initiate charge", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to initiate payment"))
		return
	}

	log.Info("payment initiated", slog.String("reference", rec.Reference))
	render.JSON(w, r, response.StatusOKWithData(InitiateChargeResponse{
		Reference:   rec.Reference,
		CheckoutURL: rec.CheckoutURL,
		Status:      rec.Status,
	}))
}
