package repository

import "errors"

// Ошибки шлюза участия. Всегда возвращаются вызывающему как отклонение
// запроса, никогда не фатальны для процесса и не ретраятся автоматически.
var (
	// ErrEventNotJoinable означает, что ивент не находится в состоянии active
	// (ещё не начался, уже завершился или снят с публикации).
	ErrEventNotJoinable = errors.New("event is not joinable")

	// ErrEventFull означает, что достигнут лимит участников ивента.
	ErrEventFull = errors.New("event is full")

	// ErrAlreadyJoined означает, что пользователь уже присоединился к ивенту.
	ErrAlreadyJoined = errors.New("user already joined this event")
)
