package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ItsBenaYT/starryevents/internal/handler/dto"
	apperrors "github.com/ItsBenaYT/starryevents/internal/pkg/errors"
	"github.com/ItsBenaYT/starryevents/internal/service"
	"github.com/ItsBenaYT/starryevents/pkg/auth"
)

// AuthHandler обрабатывает логин через внешнего OIDC-провайдера
// и управление сессионной кукой. Проверка учетных данных целиком
// на стороне провайдера.
type AuthHandler struct {
	oidcService *service.OIDCService
	userService *service.UserService
	sessions    *auth.SessionService
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(
	oidcService *service.OIDCService,
	userService *service.UserService,
	sessions *auth.SessionService,
) *AuthHandler {
	return &AuthHandler{
		oidcService: oidcService,
		userService: userService,
		sessions:    sessions,
	}
}

// Login перенаправляет пользователя на страницу авторизации провайдера
func (h *AuthHandler) Login(c *gin.Context) {
	authURL, err := h.oidcService.AuthURL(c.Request.Context())
	if err != nil {
		log.Printf("[AuthHandler.Login] Не удалось построить URL авторизации: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Login is temporarily unavailable"})
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

// Callback завершает логин: обменивает код провайдера на профиль,
// создаёт/обновляет пользователя и выставляет сессионную куку
func (h *AuthHandler) Callback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		log.Printf("[AuthHandler.Callback] Провайдер вернул ошибку: %s", errParam)
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Login was cancelled or rejected"})
		return
	}

	code := c.Query("code")
	state := c.Query("state")

	user, err := h.oidcService.HandleCallback(c.Request.Context(), code, state)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	email := ""
	if user.Email != nil {
		email = *user.Email
	}

	token, err := h.sessions.GenerateToken(user.ID, email)
	if err != nil {
		log.Printf("[AuthHandler.Callback] Не удалось выпустить сессию для %s: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create session"})
		return
	}

	h.sessions.SetCookie(c.Writer, token)
	c.Redirect(http.StatusFound, "/")
}

// Logout снимает сессионную куку и перенаправляет на logout провайдера
func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.ClearCookie(c.Writer)
	c.Redirect(http.StatusFound, h.oidcService.LogoutURL(c.Request.Context()))
}

// GetCurrentUser возвращает профиль аутентифицированного пользователя
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID := c.GetString("user_id")

	user, err := h.userService.GetUser(userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized), errors.Is(err, service.ErrTokenVerificationFailed):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Login failed"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	default:
		log.Printf("ERROR: Internal server error in AuthHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}
