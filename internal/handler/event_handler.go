package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/ItsBenaYT/starryevents/internal/domain/entity"
	"github.com/ItsBenaYT/starryevents/internal/domain/repository"
	"github.com/ItsBenaYT/starryevents/internal/handler/dto"
	apperrors "github.com/ItsBenaYT/starryevents/internal/pkg/errors"
	"github.com/ItsBenaYT/starryevents/internal/service"
)

// EventHandler обрабатывает запросы, связанные с ивентами:
// публичный каталог, CRUD администратора, шлюз участия и награды
type EventHandler struct {
	eventService  *service.EventService
	winnerService *service.WinnerService
}

// NewEventHandler создает новый обработчик ивентов
func NewEventHandler(eventService *service.EventService, winnerService *service.WinnerService) *EventHandler {
	return &EventHandler{
		eventService:  eventService,
		winnerService: winnerService,
	}
}

// CreateEventRequest представляет запрос на создание ивента
type CreateEventRequest struct {
	Title           string    `json:"title" binding:"required,min=1,max=255"`
	Description     string    `json:"description" binding:"omitempty,max=5000"`
	GameURL         string    `json:"game_url" binding:"omitempty,url,max=512"`
	ImageURL        string    `json:"image_url" binding:"omitempty,url,max=512"`
	RobuxPrize      int       `json:"robux_prize"`
	StartTime       time.Time `json:"start_time" binding:"required"`
	EndTime         time.Time `json:"end_time" binding:"required"`
	MaxParticipants *int      `json:"max_participants"`
	IsActive        *bool     `json:"is_active"`
}

// UpdateEventRequest представляет частичное обновление ивента.
// Отсутствующее поле не изменяется.
type UpdateEventRequest struct {
	Title           *string    `json:"title" binding:"omitempty,min=1,max=255"`
	Description     *string    `json:"description" binding:"omitempty,max=5000"`
	GameURL         *string    `json:"game_url" binding:"omitempty,max=512"`
	ImageURL        *string    `json:"image_url" binding:"omitempty,max=512"`
	RobuxPrize      *int       `json:"robux_prize"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	MaxParticipants *int       `json:"max_participants"`
	IsActive        *bool      `json:"is_active"`
}

// AwardWinnerRequest представляет запрос на награждение победителя
type AwardWinnerRequest struct {
	UserID       string `json:"user_id" binding:"required"`
	Position     int    `json:"position" binding:"required,min=1"`
	RobuxAwarded int    `json:"robux_awarded" binding:"min=0"`
}

// ListEvents возвращает все ивенты, новые первыми
func (h *EventHandler) ListEvents(c *gin.Context) {
	events, err := h.eventService.ListEvents()
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListEventResponse(events, time.Now()))
}

// ListActiveEvents возвращает ивенты, активные в момент запроса
func (h *EventHandler) ListActiveEvents(c *gin.Context) {
	events, err := h.eventService.ListActiveEvents()
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListEventResponse(events, time.Now()))
}

// ListScheduledEvents возвращает запланированные ивенты
func (h *EventHandler) ListScheduledEvents(c *gin.Context) {
	events, err := h.eventService.ListScheduledEvents()
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListEventResponse(events, time.Now()))
}

// GetEvent возвращает ивент по ID
func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID := c.MustGet("eventID").(string) // Получаем из контекста

	event, err := h.eventService.GetEvent(eventID)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewEventResponse(event, time.Now()))
}

// CreateEvent обрабатывает запрос на создание ивента
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	userID := c.GetString("user_id")

	event, err := h.eventService.CreateEvent(service.CreateEventInput{
		Title:           req.Title,
		Description:     req.Description,
		GameURL:         req.GameURL,
		ImageURL:        req.ImageURL,
		RobuxPrize:      req.RobuxPrize,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		MaxParticipants: req.MaxParticipants,
		IsActive:        req.IsActive,
	}, userID)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewEventResponse(event, time.Now()))
}

// UpdateEvent обрабатывает частичное обновление ивента
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	eventID := c.MustGet("eventID").(string)

	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	event, err := h.eventService.UpdateEvent(eventID, service.UpdateEventInput{
		Title:           req.Title,
		Description:     req.Description,
		GameURL:         req.GameURL,
		ImageURL:        req.ImageURL,
		RobuxPrize:      req.RobuxPrize,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		MaxParticipants: req.MaxParticipants,
		IsActive:        req.IsActive,
	})
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewEventResponse(event, time.Now()))
}

// DeleteEvent обрабатывает удаление ивента
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	eventID := c.MustGet("eventID").(string)

	if err := h.eventService.DeleteEvent(eventID); err != nil {
		h.handleEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}

// JoinEvent проводит аутентифицированного пользователя через шлюз участия
func (h *EventHandler) JoinEvent(c *gin.Context) {
	eventID := c.MustGet("eventID").(string)
	userID := c.GetString("user_id")

	participant, err := h.eventService.JoinEvent(eventID, userID)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewParticipantResponse(participant))
}

// GetEventParticipants возвращает участников ивента в порядке присоединения
func (h *EventHandler) GetEventParticipants(c *gin.Context) {
	eventID := c.MustGet("eventID").(string)

	participants, err := h.eventService.GetEventParticipants(eventID)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListParticipantResponse(participants))
}

// GetEventWinners возвращает награждения ивента по позициям
func (h *EventHandler) GetEventWinners(c *gin.Context) {
	eventID := c.MustGet("eventID").(string)

	winners, err := h.winnerService.GetEventWinners(eventID)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListWinnerResponse(winners))
}

// AwardWinner выдаёт награду победителю ивента (только администратор)
func (h *EventHandler) AwardWinner(c *gin.Context) {
	eventID := c.MustGet("eventID").(string)

	var req AwardWinnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	winner, err := h.winnerService.AwardWinner(eventID, req.UserID, req.Position, req.RobuxAwarded)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewWinnerResponse(winner))
}

// ExportParticipants выгружает участников ивента в CSV или Excel
// (query-параметр format=csv|xlsx, по умолчанию csv)
func (h *EventHandler) ExportParticipants(c *gin.Context) {
	eventID := c.MustGet("eventID").(string)
	format := c.DefaultQuery("format", "csv")

	event, err := h.eventService.GetEvent(eventID)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	participants, err := h.eventService.GetEventParticipants(eventID)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	filename := fmt.Sprintf("event_%s_participants_%s", eventID, time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, event, participants, filename)
	default:
		h.exportCSV(c, participants, filename)
	}
}

// exportCSV экспортирует участников в CSV с правильным экранированием спецсимволов
func (h *EventHandler) exportCSV(c *gin.Context, participants []entity.EventParticipant, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	// Используем encoding/csv для правильного экранирования запятых/кавычек
	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"№", "ID участия", "ID пользователя", "Время присоединения"})

	for i, p := range participants {
		writer.Write([]string{
			strconv.Itoa(i + 1),
			sanitizeForExcel(p.ID),
			sanitizeForExcel(p.UserID),
			p.JoinedAt.Format(time.RFC3339),
		})
	}
}

// exportXLSX экспортирует участников в Excel с использованием StreamWriter
func (h *EventHandler) exportXLSX(c *gin.Context, event *entity.Event, participants []entity.EventParticipant, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Участники"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[EventHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create Excel file"})
		return
	}

	headers := []interface{}{"№", "ID участия", "ID пользователя", "Время присоединения", "Ивент"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[EventHandler] Ошибка записи заголовков: %v", err)
	}

	for i, p := range participants {
		rowNum := i + 2 // Начинаем с 2 строки (1 - заголовки)
		cell := fmt.Sprintf("A%d", rowNum)

		row := []interface{}{
			i + 1,
			sanitizeForExcel(p.ID),
			sanitizeForExcel(p.UserID),
			p.JoinedAt.Format(time.RFC3339),
			sanitizeForExcel(event.Title),
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[EventHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[EventHandler] Ошибка при Flush: %v", err)
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[EventHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

// handleEventError преобразует доменные ошибки в HTTP-статусы.
// Отклонения шлюза участия — это 400: запрос сформирован верно,
// но не проходит по состоянию ивента.
func (h *EventHandler) handleEventError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, repository.ErrEventNotJoinable),
		errors.Is(err, repository.ErrEventFull),
		errors.Is(err, repository.ErrAlreadyJoined):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error()})
	default:
		log.Printf("ERROR: Internal server error in EventHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}
