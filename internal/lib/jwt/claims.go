package jwt

import "github.com/golang-jwt/jwt/v5"

// CustomClaims описывает данные пользователя, хранящиеся в токене
// identity-провайдера.
type CustomClaims struct {
	UID                  string `json:"uid"`   // Идентификатор пользователя
	Email                string `json:"email"` // Электронная почта
	Role                 string `json:"role"`  // Роль пользователя
	jwt.RegisteredClaims        // Встроенные стандартные claims JWT (ExpiresAt, IssuedAt и пр.)
}

// Maker описывает интерфейс генерации и проверки токенов.
type Maker interface {
	GenerateToken(uid, email, role string) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}
