// Package gateway реализует клиент платежного шлюза: создание платежа
// и верификацию транзакции по ссылке.
//
// Повторы выполняются только для временных сбоев - HTTP 429 и сетевых
// таймаутов - с экспоненциальной задержкой и ограничением числа попыток.
// Бизнес-ошибки (4xx) и 5xx не повторяются и отдаются сразу.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Сообщение шлюза о несуществующей транзакции. Повторять такой запрос
// бессмысленно, исход терминальный failed.
const msgNoTransactionFound = "no transaction was found"

// Client клиент платежного шлюза.
type Client struct {
	secretKey  string
	apiURL     string
	maxRetries uint64
	httpClient *http.Client
}

// NewClient создает новый клиент шлюза. Таймаут HTTP-клиента обязателен,
// нулевое значение заменяется на 10 секунд.
func NewClient(secretKey, apiURL string, timeout time.Duration, maxRetries int) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		secretKey:  secretKey,
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		maxRetries: uint64(maxRetries),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Charge отправляет запрос на создание платежа и возвращает ссылку
// на страницу оплаты.
func (c *Client) Charge(ctx context.Context, reqParams ChargeRequest) (*ChargeResponse, error) {
	const op = "gateway.Charge"

	body, err := json.Marshal(reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	env, err := c.doWithRetry(ctx, http.MethodPost, "/payments", body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if env.Data.Link == "" {
		return nil, fmt.Errorf("%s: %w", op, &GatewayError{
			Status:  http.StatusBadGateway,
			Message: "gateway returned no checkout link",
		})
	}
	return &ChargeResponse{
		Reference:   reqParams.Reference,
		CheckoutURL: env.Data.Link,
	}, nil
}

// Verify запрашивает статус транзакции по ссылке. Ответ шлюза о
// несуществующей транзакции трактуется как терминальный failed,
// а не как повод для повторов.
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	const op = "gateway.Verify"

	path := "/transactions/verify_by_reference?tx_ref=" + reference
	env, err := c.doWithRetry(ctx, http.MethodGet, path, nil)
	if err != nil {
		var gwErr *GatewayError
		if errors.As(err, &gwErr) && strings.Contains(strings.ToLower(gwErr.Message), msgNoTransactionFound) {
			return &VerifyResult{Outcome: OutcomeFailed, Message: gwErr.Message}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := &VerifyResult{
		Amount:   env.Data.Amount,
		Currency: env.Data.Currency,
		Message:  env.Message,
		Meta:     env.Data.Meta,
	}
	switch strings.ToLower(env.Data.Status) {
	case "successful":
		res.Outcome = OutcomeSuccess
	case "failed":
		res.Outcome = OutcomeFailed
	default:
		res.Outcome = OutcomePending
	}
	return res, nil
}

// doWithRetry выполняет запрос с повторами для временных сбоев.
func (c *Client) doWithRetry(ctx context.Context, method, path string, body []byte) (*apiEnvelope, error) {
	var env *apiEnvelope

	operation := func() error {
		var err error
		env, err = c.do(ctx, method, path, body)
		if err == nil {
			return nil
		}
		if isRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 15 * time.Second
	bo.MaxElapsedTime = 0

	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx)); err != nil {
		return nil, err
	}
	return env, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*apiEnvelope, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env apiEnvelope
	if len(raw) > 0 {
		// Тело ошибки тоже приходит в общем конверте, поэтому ошибку
		// парсинга при неуспешном статусе не считаем фатальной.
		if jsonErr := json.Unmarshal(raw, &env); jsonErr != nil && resp.StatusCode < http.StatusMultipleChoices {
			return nil, jsonErr
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := env.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &GatewayError{Status: resp.StatusCode, Message: msg}
	}
	return &env, nil
}

// isRetryable сообщает, стоит ли повторять запрос после ошибки.
func isRetryable(err error) bool {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Status == http.StatusTooManyRequests
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
