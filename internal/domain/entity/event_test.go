package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// makeEvent создаёт валидный активный ивент на интервале [start, start+1h]
func makeEvent(start time.Time) *Event {
	return &Event{
		ID:         "event-1",
		Title:      "Obby Race",
		RobuxPrize: 1000,
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
		IsActive:   true,
	}
}

func TestEvent_StatusAt_BeforeStart(t *testing.T) {
	// Arrange
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	event := makeEvent(start)

	// Act & Assert: до начала ивент запланирован
	assert.Equal(t, EventStatusScheduled, event.StatusAt(start.Add(-time.Second)),
		"До start_time ивент должен быть scheduled")
	assert.Equal(t, EventStatusScheduled, event.StatusAt(start.Add(-24*time.Hour)),
		"Задолго до start_time ивент должен быть scheduled")
}

func TestEvent_StatusAt_BoundariesAreActive(t *testing.T) {
	// Arrange
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	event := makeEvent(start)

	// Act & Assert: границы интервала включительно
	assert.Equal(t, EventStatusActive, event.StatusAt(start),
		"В момент start_time ивент уже активен")
	assert.Equal(t, EventStatusActive, event.StatusAt(event.EndTime),
		"В момент end_time ивент ещё активен")
	assert.Equal(t, EventStatusEnded, event.StatusAt(event.EndTime.Add(time.Millisecond)),
		"Через 1мс после end_time ивент завершён")
}

func TestEvent_StatusAt_DuringEvent(t *testing.T) {
	// Arrange
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	event := makeEvent(start)

	// Act & Assert
	assert.Equal(t, EventStatusActive, event.StatusAt(start.Add(30*time.Minute)))
}

func TestEvent_StatusAt_InactiveFlagWinsOverTime(t *testing.T) {
	// Arrange: ивент в середине интервала, но снят с публикации
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	event := makeEvent(start)
	event.IsActive = false

	// Act & Assert: is_active=false означает ended в любой момент времени
	assert.Equal(t, EventStatusEnded, event.StatusAt(start.Add(30*time.Minute)),
		"Снятый с публикации ивент считается завершённым")
	assert.Equal(t, EventStatusEnded, event.StatusAt(start.Add(-time.Hour)),
		"Снятый с публикации ивент завершён даже до start_time")
}

func TestEvent_StatusAt_ExactlyOneState(t *testing.T) {
	// Arrange: проверяем взаимоисключаемость состояний на сетке моментов
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	event := makeEvent(start)

	moments := []time.Time{
		start.Add(-time.Hour),
		start.Add(-time.Nanosecond),
		start,
		start.Add(time.Minute),
		event.EndTime,
		event.EndTime.Add(time.Nanosecond),
		event.EndTime.Add(time.Hour),
	}

	for _, now := range moments {
		// Act
		status := event.StatusAt(now)

		// Assert: всегда ровно одно из трёх состояний
		assert.Contains(t,
			[]string{EventStatusScheduled, EventStatusActive, EventStatusEnded},
			status, "StatusAt должен вернуть одно из трёх состояний")
	}
}

func TestEvent_IsJoinableAt(t *testing.T) {
	// Arrange
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	event := makeEvent(start)

	// Act & Assert: присоединяться можно только к активному ивенту
	assert.False(t, event.IsJoinableAt(start.Add(-time.Second)), "До начала join запрещён")
	assert.True(t, event.IsJoinableAt(start), "С момента начала join разрешён")
	assert.True(t, event.IsJoinableAt(event.EndTime), "До конца включительно join разрешён")
	assert.False(t, event.IsJoinableAt(event.EndTime.Add(time.Second)), "После конца join запрещён")
}

func TestEvent_IsFull(t *testing.T) {
	// Arrange
	limit := 2

	testCases := []struct {
		name     string
		max      *int
		current  int
		expected bool
	}{
		{"без лимита ивент не заполняется", nil, 1000, false},
		{"ниже лимита", &limit, 1, false},
		{"на лимите", &limit, 2, true},
		{"выше лимита (не должно случаться, но считается full)", &limit, 3, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			event := &Event{MaxParticipants: tc.max, CurrentParticipants: tc.current}
			assert.Equal(t, tc.expected, event.IsFull())
		})
	}
}
