package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChargeReturnsCheckoutLink(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"success","data":{"link":"https://checkout.example/abc"}}`))
	}))
	defer srv.Close()

	client := NewClient("sk_test", srv.URL, 0, 3)
	resp, err := client.Charge(context.Background(), ChargeRequest{
		Reference: "ref-1",
		Amount:    4500,
		Currency:  "NGN",
		Customer:  Customer{Email: "user@example.com", Name: "Test User"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/abc", resp.CheckoutURL)
	assert.Equal(t, "ref-1", resp.Reference)
	assert.Equal(t, "Bearer sk_test", gotAuth)
}

func TestRetryOnRateLimitIsBounded(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":"error","message":"too many requests"}`))
	}))
	defer srv.Close()

	const maxRetries = 2
	client := NewClient("sk_test", srv.URL, 0, maxRetries)
	_, err := client.Verify(context.Background(), "ref-1")
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusTooManyRequests, gwErr.Status)
	// Первая попытка плюс ровно maxRetries повторов.
	assert.Equal(t, int32(1+maxRetries), attempts.Load())
}

func TestNoRetryOnBusinessError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"error","message":"invalid currency"}`))
	}))
	defer srv.Close()

	client := NewClient("sk_test", srv.URL, 0, 3)
	_, err := client.Charge(context.Background(), ChargeRequest{Reference: "ref-1"})
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusBadRequest, gwErr.Status)
	assert.Equal(t, "invalid currency", gwErr.Message)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestVerifyOutcomeMapping(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantOutcome string
		wantAmount  float64
	}{
		{
			name:        "успешная транзакция",
			body:        `{"status":"success","data":{"status":"successful","amount":9000,"currency":"NGN","tx_ref":"ref-1"}}`,
			wantOutcome: OutcomeSuccess,
			wantAmount:  9000,
		},
		{
			name:        "отклоненная транзакция",
			body:        `{"status":"success","message":"card declined","data":{"status":"failed"}}`,
			wantOutcome: OutcomeFailed,
		},
		{
			name:        "транзакция в обработке",
			body:        `{"status":"success","data":{"status":"pending"}}`,
			wantOutcome: OutcomePending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("sk_test", srv.URL, 0, 0)
			res, err := client.Verify(context.Background(), "ref-1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.Equal(t, tt.wantAmount, res.Amount)
		})
	}
}

func TestVerifyUnknownTransactionIsTerminalFailure(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":"error","message":"No transaction was found for this id"}`))
	}))
	defer srv.Close()

	client := NewClient("sk_test", srv.URL, 0, 3)
	res, err := client.Verify(context.Background(), "ref-missing")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, int32(1), attempts.Load())
}
