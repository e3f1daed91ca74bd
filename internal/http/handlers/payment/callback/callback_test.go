package callback

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/inventory-billing/internal/models"
)

const resultURL = "https://app.example.com/payment/result"

// MockService реализует интерфейс callback.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) ConfirmFromCallback(ctx context.Context, reference string) (*models.Payment, error) {
	args := m.Called(ctx, reference)
	if res := args.Get(0); res != nil {
		return res.(*models.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) RecordProcessingError(ctx context.Context, reference string, procErr error) {
	m.Called(ctx, reference, procErr)
}

func TestCallbackHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	failReason := "card declined"

	tests := []struct {
		name         string
		query        string
		setupMock    func(*MockService)
		wantStatus   string
		wantErrParam string
	}{
		{
			name:  "успешный платеж",
			query: "?tx_ref=ref-1&status=successful",
			setupMock: func(m *MockService) {
				m.On("ConfirmFromCallback", mock.Anything, "ref-1").
					Return(&models.Payment{Reference: "ref-1", Status: models.PaymentStatusSuccessful}, nil)
			},
			wantStatus: "successful",
		},
		{
			name: "redirect-статус игнорируется, исход берется из верификации",
			// Шлюз сообщает successful, но верификация дает failed.
			query: "?tx_ref=ref-2&status=successful",
			setupMock: func(m *MockService) {
				m.On("ConfirmFromCallback", mock.Anything, "ref-2").
					Return(&models.Payment{
						Reference: "ref-2",
						Status:    models.PaymentStatusFailed,
						LastError: &failReason,
					}, nil)
			},
			wantStatus:   "failed",
			wantErrParam: "card declined",
		},
		{
			name:         "отсутствует tx_ref",
			query:        "",
			setupMock:    func(_ *MockService) {},
			wantStatus:   "failed",
			wantErrParam: "missing transaction reference",
		},
		{
			name:  "ошибка верификации фиксируется на платеже",
			query: "?tx_ref=ref-3",
			setupMock: func(m *MockService) {
				m.On("ConfirmFromCallback", mock.Anything, "ref-3").
					Return(nil, errors.New("gateway unavailable"))
				m.On("RecordProcessingError", mock.Anything, "ref-3", mock.Anything).Return()
			},
			wantStatus:   "failed",
			wantErrParam: "payment verification failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService, resultURL)

			req := httptest.NewRequest(http.MethodGet, "/payment/callback"+tt.query, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			// Пользователь всегда перенаправляется на страницу результата.
			assert.Equal(t, http.StatusSeeOther, w.Code)

			loc, err := url.Parse(w.Header().Get("Location"))
			require.NoError(t, err)
			assert.Equal(t, "app.example.com", loc.Host)
			assert.Equal(t, tt.wantStatus, loc.Query().Get("status"))
			if tt.wantErrParam != "" {
				assert.Equal(t, tt.wantErrParam, loc.Query().Get("error"))
			}

			mockService.AssertExpectations(t)
		})
	}
}
