package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventParticipant представляет запись об участии пользователя в ивенте.
// Пара (event_id, user_id) уникальна — повторное присоединение невозможно.
type EventParticipant struct {
	ID       string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	EventID  string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_event_user" json:"event_id"`
	UserID   string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_event_user" json:"user_id"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`
}

// TableName определяет имя таблицы для GORM
func (EventParticipant) TableName() string {
	return "event_participants"
}

// BeforeCreate генерирует UUID и фиксирует время присоединения
func (p *EventParticipant) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now()
	}
	return nil
}
