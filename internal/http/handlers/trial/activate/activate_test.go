package activate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/inventory-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/inventory-billing/internal/storage/repository"
)

// MockLedger реализует интерфейс activate.Ledger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) ActivateTrial(ctx context.Context, userUID string, start, end time.Time) error {
	args := m.Called(ctx, userUID, start, end)
	return args.Error(0)
}

func TestActivateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		userUID        string
		setupMock      func(*MockLedger)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "успешная активация пробного периода",
			userUID: "user-1",
			setupMock: func(m *MockLedger) {
				m.On("ActivateTrial", mock.Anything, "user-1", mock.Anything, mock.Anything).
					Run(func(args mock.Arguments) {
						start := args.Get(2).(time.Time)
						end := args.Get(3).(time.Time)
						assert.Equal(t, start.AddDate(0, 0, 14), end)
					}).
					Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"subscription_end_date"`,
		},
		{
			name:    "пробный период уже использован",
			userUID: "user-2",
			setupMock: func(m *MockLedger) {
				m.On("ActivateTrial", mock.Anything, "user-2", mock.Anything, mock.Anything).
					Return(repository.ErrTrialAlreadyUsed)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"error":"trial already used"`,
		},
		{
			name:           "нет uid в контексте",
			userUID:        "",
			setupMock:      func(_ *MockLedger) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"unauthorized"`,
		},
		{
			name:    "ошибка хранилища",
			userUID: "user-3",
			setupMock: func(m *MockLedger) {
				m.On("ActivateTrial", mock.Anything, "user-3", mock.Anything, mock.Anything).
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

			handler := New(logger, mockLedger, 14)

			req := httptest.NewRequest(http.MethodPost, "/trial/activate", nil)
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
