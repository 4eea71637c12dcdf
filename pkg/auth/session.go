package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"

	apperrors "github.com/ItsBenaYT/starryevents/internal/pkg/errors"
)

// SessionClaims содержит пользовательские поля сессионного токена
type SessionClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// SessionService выпускает и проверяет сессионные токены (HS256).
// Сессия создаётся после успешного логина у внешнего OIDC-провайдера и
// живёт в httpOnly-куке; проверка учетных данных здесь не выполняется.
type SessionService struct {
	signingKey []byte
	lifetime   time.Duration
	cookieName string
	production bool
}

// NewSessionService создает новый сервис сессий
func NewSessionService(signingKey string, lifetimeHrs int, cookieName string, production bool) (*SessionService, error) {
	if signingKey == "" {
		return nil, fmt.Errorf("signing key is required for SessionService")
	}
	if lifetimeHrs <= 0 {
		lifetimeHrs = 168 // Неделя по умолчанию
	}
	if cookieName == "" {
		cookieName = "starry_session"
	}
	return &SessionService{
		signingKey: []byte(signingKey),
		lifetime:   time.Duration(lifetimeHrs) * time.Hour,
		cookieName: cookieName,
		production: production,
	}, nil
}

// CookieName возвращает имя сессионной куки
func (s *SessionService) CookieName() string {
	return s.cookieName
}

// GenerateToken выпускает сессионный токен для пользователя
func (s *SessionService) GenerateToken(userID, email string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок действия токена и возвращает claims
func (s *SessionService) ParseToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	return claims, nil
}

// SetCookie устанавливает сессионную куку в ответ
func (s *SessionService) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.lifetime.Seconds()),
		HttpOnly: true,
		Secure:   s.production,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie удаляет сессионную куку
func (s *SessionService) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.production,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest достаёт сессионный токен из куки запроса
func (s *SessionService) TokenFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil || cookie.Value == "" {
		return "", apperrors.ErrUnauthorized
	}
	return cookie.Value, nil
}
