package repository

import (
	"github.com/ItsBenaYT/starryevents/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	GetByID(id string) (*entity.User, error)
	// Upsert создаёт пользователя или обновляет профиль по ID (subject провайдера).
	// Счётчики наград при обновлении не затрагиваются.
	Upsert(user *entity.User) (*entity.User, error)
	Update(user *entity.User) error
	// GetTopPlayers возвращает пользователей для рейтинга, отсортированных по
	// total_robux_earned DESC, events_won DESC, id ASC.
	GetTopPlayers(limit int) ([]entity.User, error)
}
