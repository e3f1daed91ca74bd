// Package activate обрабатывает активацию пробного периода подписки.
package activate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/inventory-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/inventory-billing/internal/http/response"
	"github.com/magabrotheeeer/inventory-billing/internal/lib/sl"
	"github.com/magabrotheeeer/inventory-billing/internal/storage/repository"
)

// TrialActivateResponse окно активированного пробного периода.
type TrialActivateResponse struct {
	SubscriptionStartDate time.Time `json:"subscription_start_date"`
	SubscriptionEndDate   time.Time `json:"subscription_end_date"`
}

// Ledger определяет методы леджера для активации пробного периода.
type Ledger interface {
	ActivateTrial(ctx context.Context, userUID string, start, end time.Time) error
}

// Handler обрабатывает запросы на активацию пробного периода.
type Handler struct {
	log       *slog.Logger // Логгер для записи информации и ошибок
	ledger    Ledger
	trialDays int
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, ledger Ledger, trialDays int) *Handler {
	return &Handler{
		log:       log,
		ledger:    ledger,
		trialDays: trialDays,
	}
}

// ServeHTTP godoc
// @Summary Активировать пробный период
// @Description Включает пробный период подписки, доступен каждому пользователю один раз
// @Tags Trial
// @Produce  json
// @Success 200 {object} TrialActivateResponse "Пробный период активирован"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.ErrorResponse "Пробный период уже использован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /trial/activate [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.trial.activate"
	log := h.log.With(slog.String("op", op))

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user UID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	start := time.Now()
	end := start.AddDate(0, 0, h.trialDays)
	if err := h.ledger.ActivateTrial(r.Context(), userUID, start, end); err != nil {
		if errors.Is(err, repository.ErrTrialAlreadyUsed) {
			log.Info("trial already used", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("trial already used"))
			return
		}
		log.Error("failed to activate trial", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("trial activated", slog.String("user_uid", userUID), slog.Time("end", end))
	render.JSON(w, r, response.StatusOKWithData(TrialActivateResponse{
		SubscriptionStartDate: start,
		SubscriptionEndDate:   end,
	}))
}
