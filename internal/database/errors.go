package database

import "errors"

var (
	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTransition переход не разрешён из текущего статуса
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidCandidate поставщик не входит в список допустимых для позиции
	ErrInvalidCandidate = errors.New("vendor is not an eligible candidate")

	// ErrEmptyNote обязательное примечание отсутствует
	ErrEmptyNote = errors.New("note is required")

	// ErrConcurrentModification параллельное изменение выиграло гонку
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrAlreadySettled позиция уже рассчитана; сервис трактует как no-op
	ErrAlreadySettled = errors.New("booking item already settled")

	// ErrInvalidReason неизвестный код причины отмены
	ErrInvalidReason = errors.New("unknown cancellation reason")

	// ErrInvalidPeriod неизвестный период расчёта
	ErrInvalidPeriod = errors.New("unknown settlement period")
)
