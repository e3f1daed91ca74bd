// Package callback обрабатывает redirect платежного шлюза после оплаты.
//
// Статус из параметров redirect никогда не используется как исход:
// платеж всегда перепроверяется у шлюза. Пользователь в любом случае
// перенаправляется на страницу результата, исход передается параметрами.
package callback

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/magabrotheeeer/inventory-billing/internal/lib/sl"
	"github.com/magabrotheeeer/inventory-billing/internal/models"
)

// Service определяет интерфейс платежного сервиса.
type Service interface {
	ConfirmFromCallback(ctx context.Context, reference string) (*models.Payment, error)
	RecordProcessingError(ctx context.Context, reference string, procErr error)
}

// Handler обрабатывает redirect платежного шлюза.
type Handler struct {
	log       *slog.Logger // Логгер для записи информации и ошибок
	service   Service
	resultURL string // Страница результата оплаты на фронтенде
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, resultURL string) *Handler {
	return &Handler{
		log:       log,
		service:   service,
		resultURL: resultURL,
	}
}

// ServeHTTP godoc
// @Summary Callback платежного шлюза
// @Description Принимает redirect после оплаты, перепроверяет платеж и перенаправляет на страницу результата
// @Tags Payments
// @Param tx_ref query string true "Ссылка платежа"
// @Param status query string false "Статус из redirect, игнорируется"
// @Success 303 "Перенаправление на страницу результата"
// @Router /payment/callback [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.callback"
	log := h.log.With(slog.String("op", op))

	reference := r.URL.Query().Get("tx_ref")
	if reference == "" {
		log.Error("callback without tx_ref")
		h.redirect(w, r, "failed", "missing transaction reference")
		return
	}

	rec, err := h.service.ConfirmFromCallback(r.Context(), reference)
	if err != nil {
		log.Error("failed to confirm payment from callback",
			slog.String("reference", reference), sl.Err(err))
		h.service.RecordProcessingError(r.Context(), reference, err)
		h.redirect(w, r, "failed", "payment verification failed")
		return
	}

	log.Info("callback processed",
		slog.String("reference", reference), slog.String("status", rec.Status))
	errMsg := ""
	if rec.LastError != nil {
		errMsg = *rec.LastError
	}
	h.redirect(w, r, rec.Status, errMsg)
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, status, errMsg string) {
	q := url.Values{}
	q.Set("status", status)
	if errMsg != "" {
		q.Set("error", errMsg)
	}
	http.Redirect(w, r, h.resultURL+"?"+q.Encode(), http.StatusSeeOther)
}
