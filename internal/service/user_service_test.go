package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ItsBenaYT/starryevents/internal/domain/entity"
)

// ============================================================================
// Тесты для UserService
// Моки — в event_service_test.go (MockUserRepository)
// ============================================================================

func TestUserService_GetTopPlayers_DefaultLimit(t *testing.T) {
	testCases := []struct {
		name          string
		requested     int
		expectedLimit int
	}{
		{name: "ноль заменяется дефолтом", requested: 0, expectedLimit: DefaultRankingsLimit},
		{name: "отрицательный заменяется дефолтом", requested: -5, expectedLimit: DefaultRankingsLimit},
		{name: "валидный передается как есть", requested: 25, expectedLimit: 25},
		{name: "сверх максимума обрезается", requested: 1000, expectedLimit: MaxRankingsLimit},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockUserRepo := new(MockUserRepository)
			mockUserRepo.On("GetTopPlayers", tc.expectedLimit).Return([]entity.User{}, nil)

			userService := NewUserService(mockUserRepo)

			// Act
			_, err := userService.GetTopPlayers(tc.requested)

			// Assert
			require.NoError(t, err)
			mockUserRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_GetTopPlayers_ReturnsRepositoryOrder(t *testing.T) {
	// Arrange: репозиторий отвечает за сортировку
	// (total_robux_earned DESC, events_won DESC, id ASC),
	// сервис не должен её менять
	mockUserRepo := new(MockUserRepository)
	ranked := []entity.User{
		{ID: "a", TotalRobuxEarned: 1000, EventsWon: 3},
		{ID: "b", TotalRobuxEarned: 1000, EventsWon: 1},
		{ID: "c", TotalRobuxEarned: 500, EventsWon: 5},
	}
	mockUserRepo.On("GetTopPlayers", 3).Return(ranked, nil)

	userService := NewUserService(mockUserRepo)

	// Act
	got, err := userService.GetTopPlayers(3)

	// Assert
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "c", got[2].ID)
}

func TestUserService_GetTopPlayers_RepositoryError(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepository)
	repoErr := errors.New("connection refused")
	mockUserRepo.On("GetTopPlayers", DefaultRankingsLimit).Return(nil, repoErr)

	userService := NewUserService(mockUserRepo)

	// Act
	got, err := userService.GetTopPlayers(0)

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, repoErr)
	assert.Nil(t, got)
}

func TestUserService_UpsertUser_Success(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepository)
	email := "player@example.com"
	incoming := &entity.User{ID: "sub-123", Email: &email, FirstName: "Иван"}
	saved := &entity.User{ID: "sub-123", Email: &email, FirstName: "Иван", TotalRobuxEarned: 1500, EventsWon: 2}

	mockUserRepo.On("Upsert", incoming).Return(saved, nil)

	userService := NewUserService(mockUserRepo)

	// Act
	got, err := userService.UpsertUser(incoming)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1500, got.TotalRobuxEarned, "Upsert не должен затирать накопленные счётчики")
	assert.Equal(t, 2, got.EventsWon)
	mockUserRepo.AssertExpectations(t)
}
