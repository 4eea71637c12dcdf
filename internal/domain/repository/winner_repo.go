package repository

import (
	"github.com/ItsBenaYT/starryevents/internal/domain/entity"
)

// WinnerRepository определяет методы для работы с записями о награждениях
type WinnerRepository interface {
	// Award в одной транзакции вставляет запись о награждении и увеличивает
	// total_robux_earned и events_won награждённого пользователя.
	// Дубликат позиции или пользователя в рамках ивента → apperrors.ErrConflict.
	Award(winner *entity.EventWinner) error
	// ListByEvent возвращает награждения ивента, отсортированные по позиции
	ListByEvent(eventID string) ([]entity.EventWinner, error)
}
