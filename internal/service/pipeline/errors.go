package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation базовая ошибка валидации запроса
	ErrValidation = errors.New("pipeline: validation failed")

	// ErrInvalidTransition возвращается при попытке выйти из терминального статуса
	ErrInvalidTransition = errors.New("pipeline: invalid status transition")

	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("pipeline: appointment not found")

	// ErrNotDeleted возвращается при восстановлении записи, которая не удалена
	ErrNotDeleted = errors.New("pipeline: appointment is not deleted")

	// ErrRetentionExpired возвращается, когда срок хранения в корзине истек
	ErrRetentionExpired = errors.New("pipeline: trash retention expired")

	// ErrOfflineConversion возвращается, когда операция требует связи с хранилищем
	ErrOfflineConversion = errors.New("pipeline: operation requires connectivity")

	// ErrPersistence возвращается, когда хранилище отклонило примененную мутацию
	ErrPersistence = errors.New("pipeline: persistence failed")

	// ErrInternal возвращается при внутренних ошибках пайплайна
	ErrInternal = errors.New("pipeline: internal error")
)

// ValidationError некорректный запрос, отклоненный до изменения состояния
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// PersistenceError хранилище отклонило мутацию, индекс откатан
type PersistenceError struct {
	AppointmentID string
	Operation     string
	Err           error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: persistence failed: %v", e.Operation, e.AppointmentID, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}
