package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ItsBenaYT/starryevents/internal/domain/entity"
	"github.com/ItsBenaYT/starryevents/internal/domain/repository"
	apperrors "github.com/ItsBenaYT/starryevents/internal/pkg/errors"
	ws "github.com/ItsBenaYT/starryevents/internal/websocket"
)

// WinnerService предоставляет методы журнала наград: выдача награды
// администратором и чтение результатов ивента
type WinnerService struct {
	winnerRepo repository.WinnerRepository
	eventRepo  repository.EventRepository
	userRepo   repository.UserRepository
	email      EmailService
	notifier   Notifier
}

// NewWinnerService создает новый сервис наград
func NewWinnerService(
	winnerRepo repository.WinnerRepository,
	eventRepo repository.EventRepository,
	userRepo repository.UserRepository,
	email EmailService,
	notifier Notifier,
) *WinnerService {
	if email == nil {
		email = &NoopEmailService{}
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &WinnerService{
		winnerRepo: winnerRepo,
		eventRepo:  eventRepo,
		userRepo:   userRepo,
		email:      email,
		notifier:   notifier,
	}
}

// AwardWinner выдаёт награду: создаёт запись о награждении и атомарно
// увеличивает накопленные счётчики пользователя (запись и инкремент —
// одна транзакция в репозитории). После фиксации best-effort рассылаются
// уведомления; их сбой не откатывает награду.
func (s *WinnerService) AwardWinner(eventID, userID string, position, robuxAwarded int) (*entity.EventWinner, error) {
	if position < 1 {
		return nil, fmt.Errorf("%w: position must be a positive integer", apperrors.ErrValidation)
	}
	if robuxAwarded < 0 {
		return nil, fmt.Errorf("%w: robux_awarded must be non-negative", apperrors.ErrValidation)
	}

	event, err := s.eventRepo.GetByID(eventID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	winner := &entity.EventWinner{
		EventID:      eventID,
		UserID:       userID,
		Position:     position,
		RobuxAwarded: robuxAwarded,
		AwardedAt:    time.Now(),
	}

	if err := s.winnerRepo.Award(winner); err != nil {
		log.Printf("[WinnerService.AwardWinner] Ошибка при награждении user=%s event=%s: %v", userID, eventID, err)
		return nil, err
	}

	s.notifier.Notify(ws.NotificationWinnerAwarded, winner)

	if user.Email != nil && *user.Email != "" {
		go func(toEmail, eventTitle string) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.email.SendAwardNotification(ctx, toEmail, eventTitle, position, robuxAwarded); err != nil {
				log.Printf("[WinnerService.AwardWinner] Не удалось отправить уведомление на %s: %v", toEmail, err)
			}
		}(*user.Email, event.Title)
	}

	return winner, nil
}

// GetEventWinners возвращает награждения ивента, отсортированные по позиции
func (s *WinnerService) GetEventWinners(eventID string) ([]entity.EventWinner, error) {
	if _, err := s.eventRepo.GetByID(eventID); err != nil {
		return nil, err
	}
	return s.winnerRepo.ListByEvent(eventID)
}
