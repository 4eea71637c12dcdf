package dto

import (
	"time"

	"github.com/ItsBenaYT/starryevents/internal/domain/entity"
)

// EventResponse представляет ивент в формате для ответа клиенту.
// Поле Status вычисляется от текущего времени в момент ответа
// и не хранится в БД.
type EventResponse struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Description         string    `json:"description,omitempty"`
	GameURL             string    `json:"game_url,omitempty"`
	ImageURL            string    `json:"image_url,omitempty"`
	RobuxPrize          int       `json:"robux_prize"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	Status              string    `json:"status"`
	IsActive            bool      `json:"is_active"`
	MaxParticipants     *int      `json:"max_participants,omitempty"`
	CurrentParticipants int       `json:"current_participants"`
	CreatedBy           *string   `json:"created_by,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ParticipantResponse представляет запись участия в формате для клиента
type ParticipantResponse struct {
	ID       string    `json:"id"`
	EventID  string    `json:"event_id"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// WinnerResponse представляет запись о награждении в формате для клиента
type WinnerResponse struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	UserID       string    `json:"user_id"`
	Position     int       `json:"position"`
	RobuxAwarded int       `json:"robux_awarded"`
	AwardedAt    time.Time `json:"awarded_at"`
}

// NewEventResponse создает DTO для ивента, вычисляя состояние на момент now
func NewEventResponse(event *entity.Event, now time.Time) *EventResponse {
	return &EventResponse{
		ID:                  event.ID,
		Title:               event.Title,
		Description:         event.Description,
		GameURL:             event.GameURL,
		ImageURL:            event.ImageURL,
		RobuxPrize:          event.RobuxPrize,
		StartTime:           event.StartTime,
		EndTime:             event.EndTime,
		Status:              event.StatusAt(now),
		IsActive:            event.IsActive,
		MaxParticipants:     event.MaxParticipants,
		CurrentParticipants: event.CurrentParticipants,
		CreatedBy:           event.CreatedBy,
		CreatedAt:           event.CreatedAt,
		UpdatedAt:           event.UpdatedAt,
	}
}

// NewListEventResponse создает список DTO ивентов; состояние всех
// элементов вычисляется от одного момента времени
func NewListEventResponse(events []entity.Event, now time.Time) []*EventResponse {
	responses := make([]*EventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, NewEventResponse(&events[i], now))
	}
	return responses
}

// NewParticipantResponse создает DTO для записи участия
func NewParticipantResponse(p *entity.EventParticipant) *ParticipantResponse {
	return &ParticipantResponse{
		ID:       p.ID,
		EventID:  p.EventID,
		UserID:   p.UserID,
		JoinedAt: p.JoinedAt,
	}
}

// NewListParticipantResponse создает список DTO записей участия
func NewListParticipantResponse(participants []entity.EventParticipant) []*ParticipantResponse {
	responses := make([]*ParticipantResponse, 0, len(participants))
	for i := range participants {
		responses = append(responses, NewParticipantResponse(&participants[i]))
	}
	return responses
}

// NewWinnerResponse создает DTO для записи о награждении
func NewWinnerResponse(w *entity.EventWinner) *WinnerResponse {
	return &WinnerResponse{
		ID:           w.ID,
		EventID:      w.EventID,
		UserID:       w.UserID,
		Position:     w.Position,
		RobuxAwarded: w.RobuxAwarded,
		AwardedAt:    w.AwardedAt,
	}
}

// NewListWinnerResponse создает список DTO награждений
func NewListWinnerResponse(winners []entity.EventWinner) []*WinnerResponse {
	responses := make([]*WinnerResponse, 0, len(winners))
	for i := range winners {
		responses = append(responses, NewWinnerResponse(&winners[i]))
	}
	return responses
}
