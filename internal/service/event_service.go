package service

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ItsBenaYT/starryevents/internal/domain/entity"
	"github.com/ItsBenaYT/starryevents/internal/domain/repository"
	apperrors "github.com/ItsBenaYT/starryevents/internal/pkg/errors"
	ws "github.com/ItsBenaYT/starryevents/internal/websocket"
)

// Notifier рассылает уведомления подключенным клиентам.
// Реализуется websocket.Hub; в тестах подменяется заглушкой.
type Notifier interface {
	Notify(notificationType string, payload interface{})
}

// NoopNotifier — заглушка, когда рассылка уведомлений не нужна
type NoopNotifier struct{}

func (NoopNotifier) Notify(notificationType string, payload interface{}) {}

// EventService предоставляет методы для работы с ивентами:
// CRUD с валидацией и шлюз участия
type EventService struct {
	eventRepo       repository.EventRepository
	participantRepo repository.ParticipantRepository
	notifier        Notifier
}

// NewEventService создает новый сервис ивентов
func NewEventService(
	eventRepo repository.EventRepository,
	participantRepo repository.ParticipantRepository,
	notifier Notifier,
) *EventService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &EventService{
		eventRepo:       eventRepo,
		participantRepo: participantRepo,
		notifier:        notifier,
	}
}

// CreateEventInput — проверенные поля для создания ивента
type CreateEventInput struct {
	Title           string
	Description     string
	GameURL         string
	ImageURL        string
	RobuxPrize      int
	StartTime       time.Time
	EndTime         time.Time
	MaxParticipants *int
	IsActive        *bool
}

// UpdateEventInput — частичное обновление: nil-поле не изменяется
type UpdateEventInput struct {
	Title           *string
	Description     *string
	GameURL         *string
	ImageURL        *string
	RobuxPrize      *int
	StartTime       *time.Time
	EndTime         *time.Time
	MaxParticipants *int
	IsActive        *bool
}

// CreateEvent валидирует поля и создает ивент
func (s *EventService) CreateEvent(input CreateEventInput, createdBy string) (*entity.Event, error) {
	event := &entity.Event{
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		GameURL:         input.GameURL,
		ImageURL:        input.ImageURL,
		RobuxPrize:      input.RobuxPrize,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
		IsActive:        true,
		MaxParticipants: input.MaxParticipants,
	}
	if input.IsActive != nil {
		event.IsActive = *input.IsActive
	}
	if createdBy != "" {
		event.CreatedBy = &createdBy
	}

	if err := validateEvent(event); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Create(event); err != nil {
		log.Printf("[EventService.CreateEvent] Ошибка при создании ивента %q: %v", event.Title, err)
		return nil, err
	}

	s.notifier.Notify(ws.NotificationEventCreated, event)

	return event, nil
}

// GetEvent возвращает ивент по ID
func (s *EventService) GetEvent(id string) (*entity.Event, error) {
	return s.eventRepo.GetByID(id)
}

// ListEvents возвращает все ивенты, новые первыми
func (s *EventService) ListEvents() ([]entity.Event, error) {
	return s.eventRepo.List()
}

// ListActiveEvents возвращает ивенты, активные на текущий момент.
// Состояние пересчитывается на каждом запросе от текущего времени.
func (s *EventService) ListActiveEvents() ([]entity.Event, error) {
	return s.eventRepo.ListActive(time.Now())
}

// ListScheduledEvents возвращает запланированные ивенты
func (s *EventService) ListScheduledEvents() ([]entity.Event, error) {
	return s.eventRepo.ListScheduled(time.Now())
}

// UpdateEvent применяет частичное обновление. Валидация выполняется
// после мёржа с сохранённой строкой, поэтому невозможно получить
// ивент с end_time раньше start_time никакой комбинацией патчей.
func (s *EventService) UpdateEvent(id string, input UpdateEventInput) (*entity.Event, error) {
	event, err := s.eventRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		event.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		event.Description = *input.Description
	}
	if input.GameURL != nil {
		event.GameURL = *input.GameURL
	}
	if input.ImageURL != nil {
		event.ImageURL = *input.ImageURL
	}
	if input.RobuxPrize != nil {
		event.RobuxPrize = *input.RobuxPrize
	}
	if input.StartTime != nil {
		event.StartTime = *input.StartTime
	}
	if input.EndTime != nil {
		event.EndTime = *input.EndTime
	}
	if input.MaxParticipants != nil {
		event.MaxParticipants = input.MaxParticipants
	}
	if input.IsActive != nil {
		event.IsActive = *input.IsActive
	}

	if err := validateEvent(event); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Update(event); err != nil {
		log.Printf("[EventService.UpdateEvent] Ошибка при обновлении ивента %s: %v", id, err)
		return nil, err
	}

	s.notifier.Notify(ws.NotificationEventUpdated, event)

	return event, nil
}

// DeleteEvent выполняет жёсткое удаление ивента
func (s *EventService) DeleteEvent(id string) error {
	if err := s.eventRepo.Delete(id); err != nil {
		return err
	}

	s.notifier.Notify(ws.NotificationEventDeleted, map[string]string{"id": id})

	return nil
}

// JoinEvent проводит пользователя через шлюз участия.
// Проверки (существование → состояние → лимит → дубликат) и оба эффекта
// (запись участия + инкремент счётчика) выполняются атомарно в репозитории.
func (s *EventService) JoinEvent(eventID, userID string) (*entity.EventParticipant, error) {
	participant, err := s.eventRepo.Join(eventID, userID, time.Now())
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ws.NotificationParticipantJoined, participant)

	return participant, nil
}

// GetEventParticipants возвращает записи участия для ивента
func (s *EventService) GetEventParticipants(eventID string) ([]entity.EventParticipant, error) {
	// Сначала убеждаемся, что ивент существует, чтобы отличить
	// "нет участников" от "нет ивента"
	if _, err := s.eventRepo.GetByID(eventID); err != nil {
		return nil, err
	}
	return s.participantRepo.ListByEvent(eventID)
}

// validateEvent проверяет инварианты ивента.
// Ивент с end_time < start_time не имеет определённого временного
// состояния, поэтому отклоняется здесь, а не в классификаторе.
func validateEvent(event *entity.Event) error {
	if event.Title == "" {
		return fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if event.RobuxPrize < 0 {
		return fmt.Errorf("%w: robux_prize must be non-negative", apperrors.ErrValidation)
	}
	if event.StartTime.IsZero() || event.EndTime.IsZero() {
		return fmt.Errorf("%w: start_time and end_time are required", apperrors.ErrValidation)
	}
	if event.EndTime.Before(event.StartTime) {
		return fmt.Errorf("%w: end_time must not be before start_time", apperrors.ErrValidation)
	}
	if event.MaxParticipants != nil && *event.MaxParticipants <= 0 {
		return fmt.Errorf("%w: max_participants must be positive when set", apperrors.ErrValidation)
	}
	// Лимит нельзя опустить ниже уже набранных участников: счётчик
	// не должен превышать лимит ни в каком сохранённом состоянии
	if event.MaxParticipants != nil && *event.MaxParticipants < event.CurrentParticipants {
		return fmt.Errorf("%w: max_participants cannot be below current participant count", apperrors.ErrValidation)
	}
	return nil
}
