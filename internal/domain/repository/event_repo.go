package repository

import (
	"time"

	"github.com/ItsBenaYT/starryevents/internal/domain/entity"
)

// EventRepository определяет методы для работы с ивентами
type EventRepository interface {
	Create(event *entity.Event) error
	GetByID(id string) (*entity.Event, error)
	// List возвращает все ивенты, новые первыми
	List() ([]entity.Event, error)
	// ListActive возвращает ивенты в состоянии active на момент now,
	// отсортированные по end_time
	ListActive(now time.Time) ([]entity.Event, error)
	// ListScheduled возвращает ивенты в состоянии scheduled на момент now,
	// отсортированные по start_time
	ListScheduled(now time.Time) ([]entity.Event, error)
	Update(event *entity.Event) error
	Delete(id string) error

	// Join атомарно проводит пользователя через шлюз участия: под блокировкой
	// строки ивента проверяет состояние, лимит и отсутствие дубликата, затем
	// вставляет запись участия и инкрементирует current_participants.
	// Возвращает apperrors.ErrNotFound, ErrEventNotJoinable, ErrEventFull
	// или ErrAlreadyJoined при отклонении.
	Join(eventID, userID string, now time.Time) (*entity.EventParticipant, error)
}

// ParticipantRepository определяет методы чтения записей участия
type ParticipantRepository interface {
	ListByEvent(eventID string) ([]entity.EventParticipant, error)
	Exists(eventID, userID string) (bool, error)
}
