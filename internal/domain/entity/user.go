package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User представляет пользователя в системе.
// Учетные данные не хранятся: аутентификация полностью делегирована
// внешнему OIDC-провайдеру, ID пользователя равен subject провайдера.
type User struct {
	ID               string     `gorm:"type:varchar(64);primaryKey" json:"id"`
	Email            *string    `gorm:"size:255;uniqueIndex" json:"email,omitempty"`
	FirstName        string     `gorm:"size:100;not null;default:''" json:"first_name"`
	LastName         string     `gorm:"size:100;not null;default:''" json:"last_name"`
	ProfileImageURL  string     `gorm:"size:512;not null;default:''" json:"profile_image_url"`
	DiscordID        *string    `gorm:"size:64;uniqueIndex" json:"discord_id,omitempty"`
	DiscordUsername  string     `gorm:"size:100;not null;default:''" json:"discord_username"`
	RobloxUsername   string     `gorm:"size:100;not null;default:''" json:"roblox_username"`
	TotalRobuxEarned int        `gorm:"not null;default:0;index:idx_users_rankings" json:"total_robux_earned"`
	EventsWon        int        `gorm:"not null;default:0;index:idx_users_rankings" json:"events_won"`
	IsAdmin          bool       `gorm:"not null;default:false" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// BeforeCreate генерирует UUID, если ID не задан провайдером
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
