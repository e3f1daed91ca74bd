package settings

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
	"github.com/magabrotheeeer/inventory-billing/internal/storage/repository"
)

// MockLedger реализует интерфейс settings.Ledger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) UpdateNotificationSettings(ctx context.Context, userUID string, settings models.NotificationSettings) error {
	args := m.Called(ctx, userUID, settings)
	return args.Error(0)
}

func TestSettingsHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		body           string
		userUID        string
		setupMock      func(*MockLedger)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "настройки сохранены",
			body:    `{"email_notifications":true,"inventory_alerts":false}`,
			userUID: "user-1",
			setupMock: func(m *MockLedger) {
				m.On("UpdateNotificationSettings", mock.Anything, "user-1",
					models.NotificationSettings{EmailNotifications: true, InventoryAlerts: false}).
					Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"email_notifications":true`,
		},
		{
			name:           "некорректный JSON",
			body:           `{"email_notifications":`,
			userUID:        "user-1",
			setupMock:      func(_ *MockLedger) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid request body"`,
		},
		{
			name:           "нет uid в контексте",
			body:           `{"email_notifications":true,"inventory_alerts":true}`,
			userUID:        "",
			setupMock:      func(_ *MockLedger) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"unauthorized"`,
		},
		{
			name:    "пользователь не найден",
			body:    `{"email_notifications":false,"inventory_alerts":false}`,
			userUID: "ghost",
			setupMock: func(m *MockLedger) {
				m.On("UpdateNotificationSettings", mock.Anything, "ghost", mock.Anything).
					Return(repository.ErrUserNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"user not found"`,
		},
		{
			name:    "ошибка хранилища",
			body:    `{"email_notifications":true,"inventory_alerts":true}`,
			userUID: "user-1",
			setupMock: func(m *MockLedger) {
				m.On("UpdateNotificationSettings", mock.Anything, "user-1", mock.Anything).
					Return(errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"internal error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockLedger := new(MockLedger)
			tt.setupMock(mockLedger)

			handler := New(logger, mockLedger)

			req := httptest.NewRequest(http.MethodPut, "/notifications/settings", strings.NewReader(tt.body))
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
		})
	}
}
