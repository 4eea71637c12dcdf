package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ItsBenaYT/starryevents/internal/domain/entity"
	"github.com/ItsBenaYT/starryevents/internal/domain/repository"
	apperrors "github.com/ItsBenaYT/starryevents/internal/pkg/errors"
)

// EventRepo реализует repository.EventRepository
type EventRepo struct {
	db *gorm.DB
}

// NewEventRepo создает новый репозиторий ивентов
func NewEventRepo(db *gorm.DB) *EventRepo {
	return &EventRepo{db: db}
}

// Create создает новый ивент
func (r *EventRepo) Create(event *entity.Event) error {
	return r.db.Create(event).Error
}

// GetByID возвращает ивент по ID
func (r *EventRepo) GetByID(id string) (*entity.Event, error) {
	var event entity.Event
	err := r.db.First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &event, nil
}

// List возвращает все ивенты, новые первыми
func (r *EventRepo) List() ([]entity.Event, error) {
	var events []entity.Event
	err := r.db.Order("created_at DESC").Find(&events).Error
	return events, err
}

// ListActive возвращает ивенты в состоянии active на момент now.
// Условие повторяет Event.StatusAt: is_active и start_time <= now <= end_time,
// границы включительно.
func (r *EventRepo) ListActive(now time.Time) ([]entity.Event, error) {
	var events []entity.Event
	err := r.db.
		Where("is_active = ? AND start_time <= ? AND end_time >= ?", true, now, now).
		Order("end_time ASC").
		Find(&events).Error
	return events, err
}

// ListScheduled возвращает ивенты в состоянии scheduled на момент now
// (строго до start_time — в момент старта ивент уже active)
func (r *EventRepo) ListScheduled(now time.Time) ([]entity.Event, error) {
	var events []entity.Event
	err := r.db.
		Where("is_active = ? AND start_time > ?", true, now).
		Order("start_time ASC").
		Find(&events).Error
	return events, err
}

// Update сохраняет ивент целиком (сервис мёржит частичное обновление)
func (r *EventRepo) Update(event *entity.Event) error {
	return r.db.Save(event).Error
}

// Delete выполняет жёсткое удаление ивента
func (r *EventRepo) Delete(id string) error {
	result := r.db.Delete(&entity.Event{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Join атомарно проводит пользователя через шлюз участия.
// Вся последовательность проверок выполняется в одной транзакции под
// SELECT ... FOR UPDATE на строке ивента, чтобы конкурентные join не
// перешагнули лимит и счётчик не разошёлся с числом строк участия.
// Порядок проверок фиксирован: существование → состояние → лимит → дубликат.
func (r *EventRepo) Join(eventID, userID string, now time.Time) (*entity.EventParticipant, error) {
	var participant *entity.EventParticipant

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var event entity.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&event, "id = ?", eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: event %s", apperrors.ErrNotFound, eventID)
			}
			return err
		}

		if !event.IsJoinableAt(now) {
			return fmt.Errorf("%w: event %s is %s",
				repository.ErrEventNotJoinable, event.ID, event.StatusAt(now))
		}

		if event.IsFull() {
			return fmt.Errorf("%w: event %s", repository.ErrEventFull, event.ID)
		}

		var count int64
		if err := tx.Model(&entity.EventParticipant{}).
			Where("event_id = ? AND user_id = ?", eventID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: event %s", repository.ErrAlreadyJoined, event.ID)
		}

		p := &entity.EventParticipant{
			EventID:  eventID,
			UserID:   userID,
			JoinedAt: now,
		}
		if err := tx.Create(p).Error; err != nil {
			// Уникальный индекс (event_id, user_id) — страховка на случай
			// гонки вне блокировки строки ивента
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: event %s", repository.ErrAlreadyJoined, event.ID)
			}
			return err
		}

		if err := tx.Model(&entity.Event{}).
			Where("id = ?", eventID).
			UpdateColumn("current_participants", gorm.Expr("current_participants + ?", 1)).
			Error; err != nil {
			return err
		}

		participant = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return participant, nil
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
