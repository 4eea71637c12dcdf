package postgres

import (
	"gorm.io/gorm"

	"github.com/ItsBenaYT/starryevents/internal/domain/entity"
)

// ParticipantRepo реализует repository.ParticipantRepository
type ParticipantRepo struct {
	db *gorm.DB
}

// NewParticipantRepo создает новый репозиторий записей участия
func NewParticipantRepo(db *gorm.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// ListByEvent возвращает записи участия для ивента в порядке присоединения
func (r *ParticipantRepo) ListByEvent(eventID string) ([]entity.EventParticipant, error) {
	var participants []entity.EventParticipant
	err := r.db.
		Where("event_id = ?", eventID).
		Order("joined_at ASC").
		Find(&participants).Error
	return participants, err
}

// Exists проверяет, есть ли запись участия для пары (event, user)
func (r *ParticipantRepo) Exists(eventID, userID string) (bool, error) {
	var count int64
	err := r.db.Model(&entity.EventParticipant{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error
	return count > 0, err
}
