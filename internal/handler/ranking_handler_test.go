package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ItsBenaYT/starryevents/internal/domain/entity"
	"github.com/ItsBenaYT/starryevents/internal/service"
)

// mockUserRepo — мок repository.UserRepository для тестов рейтинга
type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetByID(id string) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *mockUserRepo) Upsert(user *entity.User) (*entity.User, error) {
	args := m.Called(user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *mockUserRepo) Update(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *mockUserRepo) GetTopPlayers(limit int) ([]entity.User, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

func TestGetRankings_LimitHandling(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantLimit int
	}{
		{name: "без limit используется дефолт", query: "", wantLimit: service.DefaultRankingsLimit},
		{name: "нечисловой limit не ошибка", query: "?limit=abc", wantLimit: service.DefaultRankingsLimit},
		{name: "валидный limit передается", query: "?limit=25", wantLimit: 25},
		{name: "сверх максимума обрезается", query: "?limit=9999", wantLimit: service.MaxRankingsLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := new(mockUserRepo)
			userRepo.On("GetTopPlayers", tt.wantLimit).Return([]entity.User{}, nil)

			handler := NewRankingHandler(service.NewUserService(userRepo))

			c, w := newTestGinContext("GET", "/api/rankings"+tt.query, nil)
			handler.GetRankings(c)

			assert.Equal(t, http.StatusOK, w.Code)
			userRepo.AssertExpectations(t)
		})
	}
}

func TestGetRankings_RanksAssignedByRowOrder(t *testing.T) {
	// Равные счётчики не делят место — позиция равна номеру строки
	userRepo := new(mockUserRepo)
	userRepo.On("GetTopPlayers", 3).Return([]entity.User{
		{ID: "a", TotalRobuxEarned: 1000, EventsWon: 3},
		{ID: "b", TotalRobuxEarned: 1000, EventsWon: 1},
		{ID: "c", TotalRobuxEarned: 500, EventsWon: 5},
	}, nil)

	handler := NewRankingHandler(service.NewUserService(userRepo))

	c, w := newTestGinContext("GET", "/api/rankings?limit=3", nil)
	handler.GetRankings(c)

	require.Equal(t, http.StatusOK, w.Code)

	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, float64(1), entries[0]["rank"])
	assert.Equal(t, "a", entries[0]["user_id"])
	assert.Equal(t, float64(2), entries[1]["rank"])
	assert.Equal(t, float64(3), entries[2]["rank"])
	assert.Equal(t, "c", entries[2]["user_id"])
}
