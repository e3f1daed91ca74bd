// Package txref кодирует и разбирает транзакционные ссылки платежей.
//
// Формат: "<hex(userUID)>-<unix>-<rand>". Идентификатор пользователя
// кодируется в hex, поэтому разделитель "-" не может встретиться внутри
// поля и разбор остается однозначным при любом содержимом uid.
//
// Извлеченный из ссылки uid - только подсказка: владельцем платежа
// считается запись в леджере, расхождение трактуется как ошибка.
package txref

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrMalformed возвращается для ссылок, не соответствующих формату.
var ErrMalformed = errors.New("malformed transaction reference")

// New генерирует уникальную ссылку транзакции для пользователя.
func New(userUID string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%d-%s", hex.EncodeToString([]byte(userUID)), time.Now().Unix(), suffix)
}

// Parse извлекает uid пользователя из ссылки транзакции.
func Parse(reference string) (string, error) {
	parts := strings.Split(reference, "-")
	if len(parts) < 3 || parts[0] == "" {
		return "", ErrMalformed
	}
	raw, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrMalformed, "user id field is not hex")
	}
	return string(raw), nil
}
