package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Константы временных состояний ивента.
// Состояние не хранится в БД, а выводится из start_time/end_time/is_active
// на каждом чтении (см. StatusAt).
const (
	EventStatusScheduled = "scheduled"
	EventStatusActive    = "active"
	EventStatusEnded     = "ended"
)

// Event представляет ивент — соревнование с призовым фондом в Robux,
// ограниченное по времени
type Event struct {
	ID                  string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Title               string    `gorm:"size:255;not null" json:"title"`
	Description         string    `gorm:"type:text;not null;default:''" json:"description"`
	GameURL             string    `gorm:"size:512;not null;default:''" json:"game_url"`
	ImageURL            string    `gorm:"size:512;not null;default:''" json:"image_url"`
	RobuxPrize          int       `gorm:"not null" json:"robux_prize"`
	StartTime           time.Time `gorm:"not null;index" json:"start_time"`
	EndTime             time.Time `gorm:"not null;index" json:"end_time"`
	IsActive            bool      `gorm:"not null;default:true" json:"is_active"`
	MaxParticipants     *int      `gorm:"" json:"max_participants,omitempty"`
	CurrentParticipants int       `gorm:"not null;default:0" json:"current_participants"`
	CreatedBy           *string   `gorm:"type:varchar(64);index" json:"created_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Event) TableName() string {
	return "events"
}

// BeforeCreate генерирует UUID для нового ивента
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// StatusAt выводит временное состояние ивента на момент now.
// Состояния взаимоисключающие и покрывают любой момент времени
// (для валидного ивента start_time <= end_time):
//   - ended: флаг is_active снят, либо now > end_time
//   - scheduled: now < start_time
//   - active: start_time <= now <= end_time (границы включительно)
//
// Функция чистая и пересчитывается на каждом чтении — состояние
// не кешируется, т.к. зависит от текущего времени.
func (e *Event) StatusAt(now time.Time) string {
	if !e.IsActive || now.After(e.EndTime) {
		return EventStatusEnded
	}
	if now.Before(e.StartTime) {
		return EventStatusScheduled
	}
	return EventStatusActive
}

// IsJoinableAt проверяет, можно ли присоединиться к ивенту в момент now
func (e *Event) IsJoinableAt(now time.Time) bool {
	return e.StatusAt(now) == EventStatusActive
}

// IsFull проверяет, достигнут ли лимит участников.
// Ивент без лимита (max_participants IS NULL) не бывает заполнен.
func (e *Event) IsFull() bool {
	return e.MaxParticipants != nil && e.CurrentParticipants >= *e.MaxParticipants
}
