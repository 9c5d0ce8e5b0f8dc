package waitlist

import "errors"

var (
	// ErrEntryNotFound запись листа ожидания не найдена
	ErrEntryNotFound = errors.New("waitlist: entry not found")
	// ErrInvalidInput некорректные входные данные
	ErrInvalidInput = errors.New("waitlist: invalid input")
	// ErrInternal внутренняя ошибка
	ErrInternal = errors.New("waitlist: internal error")
)
