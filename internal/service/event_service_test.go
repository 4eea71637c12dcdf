package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ItsBenaYT/starryevents/internal/domain/entity"
	"github.com/ItsBenaYT/starryevents/internal/domain/repository"
	apperrors "github.com/ItsBenaYT/starryevents/internal/pkg/errors"
	ws "github.com/ItsBenaYT/starryevents/internal/websocket"
)

// ============================================================================
// Общие моки для тестов сервисов.
// MockUserRepository и MockWinnerRepository используются также
// в user_service_test.go и winner_service_test.go.
// ============================================================================

// helper для создания pointer
func intPtr(v int) *int          { return &v }
func strPtr(v string) *string    { return &v }
func timePtr(v time.Time) *time.Time { return &v }

// MockEventRepository реализует repository.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(event *entity.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockEventRepository) GetByID(id string) (*entity.Event, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Event), args.Error(1)
}

func (m *MockEventRepository) List() ([]entity.Event, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Event), args.Error(1)
}

func (m *MockEventRepository) ListActive(now time.Time) ([]entity.Event, error) {
	args := m.Called(now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Event), args.Error(1)
}

func (m *MockEventRepository) ListScheduled(now time.Time) ([]entity.Event, error) {
	args := m.Called(now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Event), args.Error(1)
}

func (m *MockEventRepository) Update(event *entity.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockEventRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockEventRepository) Join(eventID, userID string, now time.Time) (*entity.EventParticipant, error) {
	args := m.Called(eventID, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.EventParticipant), args.Error(1)
}

// MockParticipantRepository реализует repository.ParticipantRepository
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) ListByEvent(eventID string) ([]entity.EventParticipant, error) {
	args := m.Called(eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.EventParticipant), args.Error(1)
}

func (m *MockParticipantRepository) Exists(eventID, userID string) (bool, error) {
	args := m.Called(eventID, userID)
	return args.Bool(0), args.Error(1)
}

// MockUserRepository реализует repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(id string) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) Upsert(user *entity.User) (*entity.User, error) {
	args := m.Called(user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetTopPlayers(limit int) ([]entity.User, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

// MockWinnerRepository реализует repository.WinnerRepository
type MockWinnerRepository struct {
	mock.Mock
}

func (m *MockWinnerRepository) Award(winner *entity.EventWinner) error {
	args := m.Called(winner)
	return args.Error(0)
}

func (m *MockWinnerRepository) ListByEvent(eventID string) ([]entity.EventWinner, error) {
	args := m.Called(eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.EventWinner), args.Error(1)
}

// recordingNotifier запоминает все отправленные уведомления
type recordingNotifier struct {
	notifications []recordedNotification
}

type recordedNotification struct {
	Type    string
	Payload interface{}
}

func (r *recordingNotifier) Notify(notificationType string, payload interface{}) {
	r.notifications = append(r.notifications, recordedNotification{Type: notificationType, Payload: payload})
}

// ============================================================================
// Тесты для EventService
// ============================================================================

func TestEventService_CreateEvent_Success(t *testing.T) {
	// Arrange
	mockEventRepo := new(MockEventRepository)
	notifier := &recordingNotifier{}
	start := time.Now().Add(1 * time.Hour)
	end := start.Add(24 * time.Hour)

	mockEventRepo.On("Create", mock.AnythingOfType("*entity.Event")).Return(nil)

	eventService := NewEventService(mockEventRepo, new(MockParticipantRepository), notifier)

	// Act
	event, err := eventService.CreateEvent(CreateEventInput{
		Title:      "  Летний турнир  ",
		RobuxPrize: 1000,
		StartTime:  start,
		EndTime:    end,
	}, "admin-1")

	// Assert
	require.NoError(t, err, "Создание ивента должно быть успешным")
	require.NotNil(t, event)
	assert.Equal(t, "Летний турнир", event.Title, "Заголовок должен быть очищен от пробелов")
	assert.True(t, event.IsActive, "По умолчанию ивент опубликован")
	require.NotNil(t, event.CreatedBy)
	assert.Equal(t, "admin-1", *event.CreatedBy)
	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, ws.NotificationEventCreated, notifier.notifications[0].Type)
	mockEventRepo.AssertExpectations(t)
}

func TestEventService_CreateEvent_ValidationErrors(t *testing.T) {
	start := time.Now()
	end := start.Add(time.Hour)

	testCases := []struct {
		name  string
		input CreateEventInput
	}{
		{
			name:  "пустой заголовок",
			input: CreateEventInput{Title: "   ", RobuxPrize: 100, StartTime: start, EndTime: end},
		},
		{
			name:  "отрицательный приз",
			input: CreateEventInput{Title: "Ивент", RobuxPrize: -1, StartTime: start, EndTime: end},
		},
		{
			name:  "не заданы времена",
			input: CreateEventInput{Title: "Ивент", RobuxPrize: 100},
		},
		{
			name:  "конец раньше начала",
			input: CreateEventInput{Title: "Ивент", RobuxPrize: 100, StartTime: end, EndTime: start},
		},
		{
			name:  "нулевой лимит участников",
			input: CreateEventInput{Title: "Ивент", RobuxPrize: 100, StartTime: start, EndTime: end, MaxParticipants: intPtr(0)},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockEventRepo := new(MockEventRepository)
			eventService := NewEventService(mockEventRepo, new(MockParticipantRepository), nil)

			// Act
			event, err := eventService.CreateEvent(tc.input, "admin-1")

			// Assert
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrValidation, "Должна быть ошибка валидации")
			assert.Nil(t, event)
			mockEventRepo.AssertNotCalled(t, "Create")
		})
	}
}

func TestEventService_CreateEvent_EqualStartAndEnd(t *testing.T) {
	// Arrange: мгновенный ивент (start == end) допустим
	mockEventRepo := new(MockEventRepository)
	moment := time.Now().Add(time.Hour)

	mockEventRepo.On("Create", mock.AnythingOfType("*entity.Event")).Return(nil)

	eventService := NewEventService(mockEventRepo, new(MockParticipantRepository), nil)

	// Act
	event, err := eventService.CreateEvent(CreateEventInput{
		Title:     "Мгновенный ивент",
		StartTime: moment,
		EndTime:   moment,
	}, "")

	// Assert
	require.NoError(t, err)
	assert.Nil(t, event.CreatedBy, "Пустой создатель не должен сохраняться")
	mockEventRepo.AssertExpectations(t)
}

func TestEventService_UpdateEvent_PartialMerge(t *testing.T) {
	// Arrange
	mockEventRepo := new(MockEventRepository)
	notifier := &recordingNotifier{}
	start := time.Now().Add(1 * time.Hour)
	end := start.Add(24 * time.Hour)

	existing := &entity.Event{
		ID:         "event-1",
		Title:      "Старое название",
		RobuxPrize: 500,
		StartTime:  start,
		EndTime:    end,
		IsActive:   true,
	}

	mockEventRepo.On("GetByID", "event-1").Return(existing, nil)
	mockEventRepo.On("Update", mock.AnythingOfType("*entity.Event")).Return(nil)

	eventService := NewEventService(mockEventRepo, new(MockParticipantRepository), notifier)

	// Act: меняем только заголовок и приз
	updated, err := eventService.UpdateEvent("event-1", UpdateEventInput{
		Title:      strPtr("Новое название"),
		RobuxPrize: intPtr(750),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Новое название", updated.Title)
	assert.Equal(t, 750, updated.RobuxPrize)
	assert.Equal(t, start, updated.StartTime, "Незатронутые поля не должны меняться")
	assert.Equal(t, end, updated.EndTime)
	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, ws.NotificationEventUpdated, notifier.notifications[0].Type)
	mockEventRepo.AssertExpectations(t)
}

func TestEventService_UpdateEvent_InvalidAfterMerge(t *testing.T) {
	// Arrange: патч одного поля делает окно времени вырожденным
	mockEventRepo := new(MockEventRepository)
	start := time.Now().Add(1 * time.Hour)
	end := start.Add(24 * time.Hour)

	existing := &entity.Event{
		ID:        "event-1",
		Title:     "Ивент",
		StartTime: start,
		EndTime:   end,
		IsActive:  true,
	}

	mockEventRepo.On("GetByID", "event-1").Return(existing, nil)

	eventService := NewEventService(mockEventRepo, new(MockParticipantRepository), nil)

	// Act: новый end_time раньше сохранённого start_time
	updated, err := eventService.UpdateEvent("event-1", UpdateEventInput{
		EndTime: timePtr(start.Add(-time.Minute)),
	})

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Nil(t, updated)
	mockEventRepo.AssertNotCalled(t, "Update")
}

func TestEventService_UpdateEvent_MaxBelowCurrentParticipants(t *testing.T) {
	// Arrange: в ивенте уже 5 участников
	mockEventRepo := new(MockEventRepository)
	start := time.Now().Add(-1 * time.Hour)
	end := start.Add(24 * time.Hour)

	existing := &entity.Event{
		ID:                  "event-1",
		Title:               "Ивент",
		StartTime:           start,
		EndTime:             end,
		IsActive:            true,
		CurrentParticipants: 5,
	}

	mockEventRepo.On("GetByID", "event-1").Return(existing, nil)

	eventService := NewEventService(mockEventRepo, new(MockParticipantRepository), nil)

	// Act: пытаемся опустить лимит ниже текущего числа участников
	updated, err := eventService.UpdateEvent("event-1", UpdateEventInput{
		MaxParticipants: intPtr(1),
	})

	// Assert
	require.Error(t, err, "Лимит ниже текущего числа участников должен отклоняться")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Nil(t, updated)
	mockEventRepo.AssertNotCalled(t, "Update")
}

func TestEventService_UpdateEvent_MaxEqualToCurrentParticipants(t *testing.T) {
	// Arrange: лимит ровно по числу участников допустим (ивент просто заполнен)
	mockEventRepo := new(MockEventRepository)
	start := time.Now().Add(-1 * time.Hour)
	end := start.Add(24 * time.Hour)

	existing := &entity.Event{
		ID:                  "event-1",
		Title:               "Ивент",
		StartTime:           start,
		EndTime:             end,
		IsActive:            true,
		CurrentParticipants: 5,
	}

	mockEventRepo.On("GetByID", "event-1").Return(existing, nil)
	mockEventRepo.On("Update", mock.AnythingOfType("*entity.Event")).Return(nil)

	eventService := NewEventService(mockEventRepo, new(MockParticipantRepository), nil)

	// Act
	updated, err := eventService.UpdateEvent("event-1", UpdateEventInput{
		MaxParticipants: intPtr(5),
	})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, updated.MaxParticipants)
	assert.Equal(t, 5, *updated.MaxParticipants)
	mockEventRepo.AssertExpectations(t)
}

func TestEventService_UpdateEvent_NotFound(t *testing.T) {
	// Arrange
	mockEventRepo := new(MockEventRepository)
	mockEventRepo.On("GetByID", "missing").Return(nil, apperrors.ErrNotFound)

	eventService := NewEventService(mockEventRepo, new(MockParticipantRepository), nil)

	// Act
	updated, err := eventService.UpdateEvent("missing", UpdateEventInput{Title: strPtr("X")})

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, updated)
}

func TestEventService_DeleteEvent_Success(t *testing.T) {
	// Arrange
	mockEventRepo := new(MockEventRepository)
	notifier := &recordingNotifier{}
	mockEventRepo.On("Delete", "event-1").Return(nil)

	eventService := NewEventService(mockEventRepo, new(MockParticipantRepository), notifier)

	// Act
	err := eventService.DeleteEvent("event-1")

	// Assert
	require.NoError(t, err)
	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, ws.NotificationEventDeleted, notifier.notifications[0].Type)
	mockEventRepo.AssertExpectations(t)
}

func TestEventService_DeleteEvent_NotFound(t *testing.T) {
	// Arrange
	mockEventRepo := new(MockEventRepository)
	notifier := &recordingNotifier{}
	mockEventRepo.On("Delete", "missing").Return(apperrors.ErrNotFound)

	eventService := NewEventService(mockEventRepo, new(MockParticipantRepository), notifier)

	// Act
	err := eventService.DeleteEvent("missing")

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Empty(t, notifier.notifications, "Уведомление не отправляется при ошибке")
}

func TestEventService_JoinEvent_Success(t *testing.T) {
	// Arrange
	mockEventRepo := new(MockEventRepository)
	notifier := &recordingNotifier{}

	participant := &entity.EventParticipant{
		ID:      "p-1",
		EventID: "event-1",
		UserID:  "user-1",
	}
	mockEventRepo.On("Join", "event-1", "user-1", mock.AnythingOfType("time.Time")).Return(participant, nil)

	eventService := NewEventService(mockEventRepo, new(MockParticipantRepository), notifier)

	// Act
	got, err := eventService.JoinEvent("event-1", "user-1")

	// Assert
	require.NoError(t, err, "Присоединение должно быть успешным")
	assert.Equal(t, participant, got)
	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, ws.NotificationParticipantJoined, notifier.notifications[0].Type)
	mockEventRepo.AssertExpectations(t)
}

func TestEventService_JoinEvent_GateRejections(t *testing.T) {
	testCases := []struct {
		name    string
		gateErr error
	}{
		{name: "ивент не найден", gateErr: apperrors.ErrNotFound},
		{name: "ивент не активен", gateErr: repository.ErrEventNotJoinable},
		{name: "ивент заполнен", gateErr: repository.ErrEventFull},
		{name: "повторное присоединение", gateErr: repository.ErrAlreadyJoined},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockEventRepo := new(MockEventRepository)
			notifier := &recordingNotifier{}
			mockEventRepo.On("Join", "event-1", "user-1", mock.AnythingOfType("time.Time")).Return(nil, tc.gateErr)

			eventService := NewEventService(mockEventRepo, new(MockParticipantRepository), notifier)

			// Act
			got, err := eventService.JoinEvent("event-1", "user-1")

			// Assert
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.gateErr), "Ошибка шлюза должна дойти до вызывающего")
			assert.Nil(t, got)
			assert.Empty(t, notifier.notifications, "Отклонение шлюза не рассылается")
		})
	}
}

func TestEventService_GetEventParticipants_Success(t *testing.T) {
	// Arrange
	mockEventRepo := new(MockEventRepository)
	mockParticipantRepo := new(MockParticipantRepository)

	participants := []entity.EventParticipant{
		{ID: "p-1", EventID: "event-1", UserID: "user-1"},
		{ID: "p-2", EventID: "event-1", UserID: "user-2"},
	}
	mockEventRepo.On("GetByID", "event-1").Return(&entity.Event{ID: "event-1"}, nil)
	mockParticipantRepo.On("ListByEvent", "event-1").Return(participants, nil)

	eventService := NewEventService(mockEventRepo, mockParticipantRepo, nil)

	// Act
	got, err := eventService.GetEventParticipants("event-1")

	// Assert
	require.NoError(t, err)
	assert.Len(t, got, 2)
	mockEventRepo.AssertExpectations(t)
	mockParticipantRepo.AssertExpectations(t)
}

func TestEventService_GetEventParticipants_EventNotFound(t *testing.T) {
	// Arrange
	mockEventRepo := new(MockEventRepository)
	mockParticipantRepo := new(MockParticipantRepository)
	mockEventRepo.On("GetByID", "missing").Return(nil, apperrors.ErrNotFound)

	eventService := NewEventService(mockEventRepo, mockParticipantRepo, nil)

	// Act
	got, err := eventService.GetEventParticipants("missing")

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "Отсутствие ивента отличается от пустого списка участников")
	assert.Nil(t, got)
	mockParticipantRepo.AssertNotCalled(t, "ListByEvent")
}
