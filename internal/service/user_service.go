package service

import (
	"log"

	"github.com/ItsBenaYT/starryevents/internal/domain/entity"
	"github.com/ItsBenaYT/starryevents/internal/domain/repository"
)

const (
	// DefaultRankingsLimit используется, когда limit не задан или невалиден
	DefaultRankingsLimit = 10
	// MaxRankingsLimit — верхняя граница limit
	MaxRankingsLimit = 100
)

// UserService предоставляет методы для работы с пользователями и рейтингом
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService создает новый сервис пользователей
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// GetUser возвращает пользователя по ID
func (s *UserService) GetUser(id string) (*entity.User, error) {
	return s.userRepo.GetByID(id)
}

// UpsertUser создаёт или обновляет пользователя по профилю провайдера.
// Вызывается на каждом успешном логине.
func (s *UserService) UpsertUser(user *entity.User) (*entity.User, error) {
	saved, err := s.userRepo.Upsert(user)
	if err != nil {
		log.Printf("[UserService.UpsertUser] Ошибка при upsert пользователя %s: %v", user.ID, err)
		return nil, err
	}
	return saved, nil
}

// GetTopPlayers возвращает рейтинг игроков.
// limit <= 0 заменяется значением по умолчанию (10) и ограничивается сверху.
func (s *UserService) GetTopPlayers(limit int) ([]entity.User, error) {
	if limit <= 0 {
		limit = DefaultRankingsLimit
	}
	if limit > MaxRankingsLimit {
		limit = MaxRankingsLimit
	}

	users, err := s.userRepo.GetTopPlayers(limit)
	if err != nil {
		log.Printf("[UserService.GetTopPlayers] Ошибка при получении рейтинга: %v", err)
		return nil, err
	}
	return users, nil
}
