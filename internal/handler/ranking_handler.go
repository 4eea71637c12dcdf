package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ItsBenaYT/starryevents/internal/handler/dto"
	"github.com/ItsBenaYT/starryevents/internal/service"
)

// RankingHandler обрабатывает запросы рейтинга игроков
type RankingHandler struct {
	userService *service.UserService
}

// NewRankingHandler создает новый обработчик рейтинга
func NewRankingHandler(userService *service.UserService) *RankingHandler {
	return &RankingHandler{
		userService: userService,
	}
}

// GetRankings возвращает топ игроков по накопленным наградам.
// Невалидный limit не является ошибкой — используется значение по умолчанию.
func (h *RankingHandler) GetRankings(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultRankingsLimit)))
	if err != nil {
		limit = service.DefaultRankingsLimit
	}

	users, err := h.userService.GetTopPlayers(limit)
	if err != nil {
		log.Printf("[RankingHandler] Ошибка при получении рейтинга: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, dto.NewRankingResponse(users))
}
