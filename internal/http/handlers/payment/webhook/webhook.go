// Package webhook принимает асинхронные уведомления платежного шлюза.
//
// Статус из payload не используется как исход платежа. Обработчик
// проверяет подпись, ставит ссылку в очередь верификации и сразу
// подтверждает получение, чтобы шлюз не повторял доставку. Верификацию
// со своим циклом повторов выполняет отдельный воркер.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/inventory-billing/internal/lib/sl"
)

// Queue описывает очередь заданий верификации.
type Queue interface {
	EnqueueVerification(reference string) error
}

// Service определяет методы платежного сервиса, нужные webhook.
type Service interface {
	RecordProcessingError(ctx context.Context, reference string, procErr error)
}

// Handler обрабатывает webhook платежного шлюза.
type Handler struct {
	log           *slog.Logger // Логгер для записи информации и ошибок
	queue         Queue
	service       Service
	webhookSecret string // Секрет для проверки подписи
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, queue Queue, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		queue:         queue,
		service:       service,
		webhookSecret: secret,
	}
}

// Payload тело уведомления шлюза. Статус присутствует, но служит
// только для логов.
type Payload struct {
	Event string `json:"event"`
	Data  struct {
		TxRef  string `json:"tx_ref"`
		Status string `json:"status"`
	} `json:"data"`
}

// Проверка подписи webhook (X-Api-Signature)
func (h *Handler) verifySignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

// ServeHTTP godoc
// @Summary Webhook платежного шлюза
// @Description Принимает уведомление о платеже, проверяет подпись и ставит платеж в очередь верификации
// @Tags Payments
// @Accept  json
// @Success 200 "Уведомление принято"
// @Failure 400 "Некорректное тело запроса"
// @Failure 401 "Неверная подпись"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Проверка подписи (в заголовке X-Api-Signature)
	signature := r.Header.Get("X-Api-Signature")
	if signature == "" || !h.verifySignature(h.webhookSecret, body, signature) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if payload.Data.TxRef == "" {
		log.Error("webhook payload without tx_ref", slog.String("event", payload.Event))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.queue.EnqueueVerification(payload.Data.TxRef); err != nil {
		// Получение все равно подтверждается: шлюз повторит доставку
		// сам, а сбой остается на записи платежа.
		log.Error("failed to enqueue verification", sl.Err(err))
		h.service.RecordProcessingError(r.Context(), payload.Data.TxRef, err)
		w.WriteHeader(http.StatusOK)
		return
	}

	log.Info("webhook accepted",
		slog.String("event", payload.Event),
		slog.String("reference", payload.Data.TxRef),
		slog.String("reported_status", payload.Data.Status))
	w.WriteHeader(http.StatusOK)
}
