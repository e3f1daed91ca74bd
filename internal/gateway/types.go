package gateway

import "fmt"

// Исходы верификации транзакции.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomePending = "pending"
)

// ChargeRequest параметры создания платежа у шлюза.
type ChargeRequest struct {
	Reference   string            `json:"tx_ref"`
	Amount      float64           `json:"amount"`
	Currency    string            `json:"currency"`
	RedirectURL string            `json:"redirect_url"`
	Customer    Customer          `json:"customer"`
	Meta        map[string]string `json:"meta,omitempty"`
}

// Customer данные плательщика, попадают на страницу оплаты.
type Customer struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ChargeResponse ответ шлюза на создание платежа.
type ChargeResponse struct {
	Reference   string // Ссылка транзакции, как ее знает шлюз
	CheckoutURL string // Страница оплаты для пользователя
}

// VerifyResult итог верификации транзакции по ссылке.
type VerifyResult struct {
	Outcome  string            // success, failed или pending
	Amount   float64           // Подтвержденная шлюзом сумма
	Currency string            // Подтвержденная шлюзом валюта
	Message  string            // Сообщение шлюза, для failed - причина
	Meta     map[string]string // Метаданные, переданные при создании платежа
}

// GatewayError ошибка платежного шлюза после исчерпания повторов
// либо немедленная для неповторяемых статусов.
type GatewayError struct {
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error: status %d: %s", e.Status, e.Message)
}

// apiEnvelope общий конверт ответов шлюза.
type apiEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link     string            `json:"link"`
		TxRef    string            `json:"tx_ref"`
		Status   string            `json:"status"`
		Amount   float64           `json:"amount"`
		Currency string            `json:"currency"`
		Meta     map[string]string `json:"meta"`
	} `json:"data"`
}
