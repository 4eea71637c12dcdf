package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ItsBenaYT/starryevents/internal/domain/repository"
	"github.com/ItsBenaYT/starryevents/pkg/auth"
)

// AuthMiddleware обеспечивает аутентификацию для защищенных маршрутов
type AuthMiddleware struct {
	sessions *auth.SessionService
	userRepo repository.UserRepository
}

// NewAuthMiddleware создает новый middleware аутентификации
func NewAuthMiddleware(sessions *auth.SessionService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		userRepo: userRepo,
	}
}

// RequireAuth проверяет, аутентифицирован ли пользователь.
// Токен берётся из сессионной куки; заголовок Authorization: Bearer
// поддерживается для неинтерактивных клиентов.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := m.sessions.TokenFromRequest(c.Request)
		if err != nil {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
				c.Abort()
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"message": "Authorization header format must be Bearer {token}"})
				c.Abort()
				return
			}
			token = parts[1]
		}

		claims, err := m.sessions.ParseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired session"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)

		c.Next()
	}
}

// AdminOnly проверяет, является ли пользователь администратором.
// Флаг is_admin читается из БД, а не из токена, чтобы отзыв прав
// действовал немедленно, без ожидания истечения сессии.
func (m *AuthMiddleware) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			c.Abort()
			return
		}

		user, err := m.userRepo.GetByID(userID.(string))
		if err != nil {
			log.Printf("[AuthMiddleware.AdminOnly] Ошибка при получении пользователя %v: %v", userID, err)
			c.JSON(http.StatusForbidden, gin.H{"message": "Admin rights required"})
			c.Abort()
			return
		}

		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"message": "Admin rights required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
