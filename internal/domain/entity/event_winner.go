package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventWinner представляет запись о награждении: пользователь, ивент,
// занятое место и выданная сумма Robux. Запись неизменяема после создания.
// Позиция уникальна в рамках ивента, как и сам награждённый пользователь.
type EventWinner struct {
	ID           string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	EventID      string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_winner_event_position,priority:1;uniqueIndex:idx_winner_event_user,priority:1" json:"event_id"`
	UserID       string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_winner_event_user,priority:2" json:"user_id"`
	Position     int       `gorm:"not null;uniqueIndex:idx_winner_event_position,priority:2" json:"position"`
	RobuxAwarded int       `gorm:"not null" json:"robux_awarded"`
	AwardedAt    time.Time `gorm:"not null" json:"awarded_at"`
}

// TableName определяет имя таблицы для GORM
func (EventWinner) TableName() string {
	return "event_winners"
}

// BeforeCreate генерирует UUID и фиксирует время награждения
func (w *EventWinner) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.AwardedAt.IsZero() {
		w.AwardedAt = time.Now()
	}
	return nil
}
