package pgerrors

import (
	"errors"

	"github.com/lib/pq"
)

// Коды ошибок PostgreSQL, которые сервис обрабатывает отдельно
const (
	CodeExclusionViolation   = "23P01"
	CodeUniqueViolation      = "23505"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
)

var (
	// ErrExclusionViolation нарушение EXCLUDE ограничения (пересечение интервалов)
	ErrExclusionViolation = errors.New("pgerrors: exclusion constraint violation")

	// ErrSerializationFailure транзакция не может быть сериализована и должна быть повторена вызывающей стороной
	ErrSerializationFailure = errors.New("pgerrors: serialization failure")
)

// Code возвращает SQLSTATE ошибки или пустую строку, если ошибка не от PostgreSQL
func Code(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// Classify сопоставляет ошибку драйвера с одной из sentinel ошибок пакета.
// Возвращает nil, если ошибка не требует особой обработки.
func Classify(err error) error {
	switch Code(err) {
	case CodeExclusionViolation:
		return ErrExclusionViolation
	case CodeSerializationFailure, CodeDeadlockDetected:
		return ErrSerializationFailure
	default:
		return nil
	}
}

// IsConcurrencyConflict проверяет, что ошибка вызвана конкурентной записью
func IsConcurrencyConflict(err error) bool {
	if errors.Is(err, ErrExclusionViolation) || errors.Is(err, ErrSerializationFailure) {
		return true
	}
	return Classify(err) != nil
}
