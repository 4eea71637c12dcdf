package dto

import (
	"time"

	"github.com/ItsBenaYT/starryevents/internal/domain/entity"
)

// UserResponse представляет пользователя в формате для ответа клиенту
type UserResponse struct {
	ID               string    `json:"id"`
	Email            string    `json:"email,omitempty"`
	FirstName        string    `json:"first_name,omitempty"`
	LastName         string    `json:"last_name,omitempty"`
	ProfileImageURL  string    `json:"profile_image_url,omitempty"`
	DiscordUsername  string    `json:"discord_username,omitempty"`
	RobloxUsername   string    `json:"roblox_username,omitempty"`
	TotalRobuxEarned int       `json:"total_robux_earned"`
	EventsWon        int       `json:"events_won"`
	IsAdmin          bool      `json:"is_admin"`
	CreatedAt        time.Time `json:"created_at"`
}

// RankingEntry представляет строку рейтинга игроков
type RankingEntry struct {
	Rank             int    `json:"rank"`
	UserID           string `json:"user_id"`
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	ProfileImageURL  string `json:"profile_image_url,omitempty"`
	RobloxUsername   string `json:"roblox_username,omitempty"`
	TotalRobuxEarned int    `json:"total_robux_earned"`
	EventsWon        int    `json:"events_won"`
}

// NewUserResponse создает DTO для пользователя.
// Email и флаг администратора отдаются только самому пользователю,
// поэтому DTO строится из записи, полученной по аутентифицированному ID.
func NewUserResponse(user *entity.User) *UserResponse {
	resp := &UserResponse{
		ID:               user.ID,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		ProfileImageURL:  user.ProfileImageURL,
		DiscordUsername:  user.DiscordUsername,
		RobloxUsername:   user.RobloxUsername,
		TotalRobuxEarned: user.TotalRobuxEarned,
		EventsWon:        user.EventsWon,
		IsAdmin:          user.IsAdmin,
		CreatedAt:        user.CreatedAt,
	}
	if user.Email != nil {
		resp.Email = *user.Email
	}
	return resp
}

// NewRankingResponse создает рейтинг из отсортированного списка.
// Позиция — порядковый номер строки; равные счётчики не делят место.
func NewRankingResponse(users []entity.User) []*RankingEntry {
	entries := make([]*RankingEntry, 0, len(users))
	for i := range users {
		u := &users[i]
		entries = append(entries, &RankingEntry{
			Rank:             i + 1,
			UserID:           u.ID,
			FirstName:        u.FirstName,
			LastName:         u.LastName,
			ProfileImageURL:  u.ProfileImageURL,
			RobloxUsername:   u.RobloxUsername,
			TotalRobuxEarned: u.TotalRobuxEarned,
			EventsWon:        u.EventsWon,
		})
	}
	return entries
}
