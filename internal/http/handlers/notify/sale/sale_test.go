package sale

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/inventory-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/inventory-billing/internal/models"
	"github.com/magabrotheeeer/inventory-billing/internal/services/notifier"
)

// MockLedger реализует интерфейс sale.Ledger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if res := args.Get(0); res != nil {
		return res.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockNotifier реализует интерфейс sale.Service
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendSaleReceipt(user *models.User, sale notifier.SaleEvent) error {
	args := m.Called(user, sale)
	return args.Error(0)
}

func TestSaleHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	user := &models.User{UID: "user-1", Email: "owner@example.com", Username: "owner"}

	validBody := `{"sale_id":"sale-1","item_name":"Bolt","quantity":2,"total_amount":500}`

	tests := []struct {
		name           string
		body           string
		userUID        string
		setupMocks     func(*MockLedger, *MockNotifier)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "чек отправлен",
			body:    validBody,
			userUID: "user-1",
			setupMocks: func(l *MockLedger, n *MockNotifier) {
				l.On("GetUser", mock.Anything, "user-1").Return(user, nil)
				n.On("SendSaleReceipt", user, mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"result":"sent"`,
		},
		{
			name:    "уведомления отключены - успех с пометкой",
			body:    validBody,
			userUID: "user-1",
			setupMocks: func(l *MockLedger, n *MockNotifier) {
				l.On("GetUser", mock.Anything, "user-1").Return(user, nil)
				n.On("SendSaleReceipt", user, mock.Anything).Return(notifier.ErrNotificationsDisabled)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"result":"notifications disabled"`,
		},
		{
			name:           "отсутствуют обязательные поля",
			body:           `{"sale_id":"sale-1"}`,
			userUID:        "user-1",
			setupMocks:     func(_ *MockLedger, _ *MockNotifier) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `required field`,
		},
		{
			name:    "сбой доставки после повторов",
			body:    validBody,
			userUID: "user-1",
			setupMocks: func(l *MockLedger, n *MockNotifier) {
				l.On("GetUser", mock.Anything, "user-1").Return(user, nil)
				n.On("SendSaleReceipt", user, mock.Anything).Return(errors.New("smtp unavailable"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"failed to send email"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockLedger := new(MockLedger)
			mockNotifier := new(MockNotifier)
			tt.setupMocks(mockLedger, mockNotifier)

			handler := New(logger, mockLedger, mockNotifier)

			req := httptest.NewRequest(http.MethodPost, "/notifications/sale", strings.NewReader(tt.body))
			if tt.userUID != "" {
				ctx := context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID)
				req = req.WithContext(ctx)
			}

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockLedger.AssertExpectations(t)
			mockNotifier.AssertExpectations(t)
		})
	}
}
