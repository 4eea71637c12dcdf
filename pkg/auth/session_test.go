package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ItsBenaYT/starryevents/internal/pkg/errors"
)

func newTestSessionService(t *testing.T) *SessionService {
	t.Helper()
	svc, err := NewSessionService("test-signing-key", 1, "test_session", false)
	require.NoError(t, err)
	return svc
}

func TestSessionService_GenerateAndParse(t *testing.T) {
	// Arrange
	svc := newTestSessionService(t)

	// Act
	token, err := svc.GenerateToken("user-1", "player@example.com")
	require.NoError(t, err)

	claims, err := svc.ParseToken(token)

	// Assert
	require.NoError(t, err, "Свежий токен должен проходить проверку")
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "player@example.com", claims.Email)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestSessionService_ParseToken_WrongKey(t *testing.T) {
	// Arrange
	svc := newTestSessionService(t)
	other, err := NewSessionService("another-signing-key", 1, "test_session", false)
	require.NoError(t, err)

	token, err := svc.GenerateToken("user-1", "")
	require.NoError(t, err)

	// Act
	claims, err := other.ParseToken(token)

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "Чужая подпись — это unauthorized")
	assert.Nil(t, claims)
}

func TestSessionService_ParseToken_Garbage(t *testing.T) {
	svc := newTestSessionService(t)

	claims, err := svc.ParseToken("not.a.token")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Nil(t, claims)
}

func TestSessionService_RequiresSigningKey(t *testing.T) {
	svc, err := NewSessionService("", 1, "test_session", false)

	require.Error(t, err)
	assert.Nil(t, svc)
}

func TestSessionService_CookieRoundTrip(t *testing.T) {
	// Arrange
	svc := newTestSessionService(t)
	token, err := svc.GenerateToken("user-1", "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	svc.SetCookie(w, token)

	// Переносим Set-Cookie из ответа в новый запрос
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}

	// Act
	got, err := svc.TokenFromRequest(req)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, token, got)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly, "Сессионная кука должна быть httpOnly")
	assert.False(t, cookies[0].Secure, "Вне production кука не Secure")
}

func TestSessionService_TokenFromRequest_NoCookie(t *testing.T) {
	svc := newTestSessionService(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := svc.TokenFromRequest(req)

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
