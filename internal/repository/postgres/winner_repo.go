package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/ItsBenaYT/starryevents/internal/domain/entity"
	apperrors "github.com/ItsBenaYT/starryevents/internal/pkg/errors"
)

// WinnerRepo реализует repository.WinnerRepository
type WinnerRepo struct {
	db *gorm.DB
}

// NewWinnerRepo создает новый репозиторий награждений
func NewWinnerRepo(db *gorm.DB) *WinnerRepo {
	return &WinnerRepo{db: db}
}

// Award в одной транзакции вставляет запись о награждении и увеличивает
// счётчики награждённого пользователя. Без транзакции рейтинг разошёлся бы
// с журналом наград при сбое между двумя записями.
func (r *WinnerRepo) Award(winner *entity.EventWinner) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(winner).Error; err != nil {
			// Позиция или пользователь уже награждены в этом ивенте
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: event %s position %d or user %s already awarded",
					apperrors.ErrConflict, winner.EventID, winner.Position, winner.UserID)
			}
			return err
		}

		result := tx.Model(&entity.User{}).
			Where("id = ?", winner.UserID).
			UpdateColumns(map[string]interface{}{
				"total_robux_earned": gorm.Expr("total_robux_earned + ?", winner.RobuxAwarded),
				"events_won":         gorm.Expr("events_won + ?", 1),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: user %s", apperrors.ErrNotFound, winner.UserID)
		}

		return nil
	})
}

// ListByEvent возвращает награждения ивента, отсортированные по позиции
func (r *WinnerRepo) ListByEvent(eventID string) ([]entity.EventWinner, error) {
	var winners []entity.EventWinner
	err := r.db.
		Where("event_id = ?", eventID).
		Order("position ASC").
		Find(&winners).Error
	return winners, err
}
