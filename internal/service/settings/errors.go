package settings

import "errors"

var (
	// ErrInvalidInput некорректные входные данные
	ErrInvalidInput = errors.New("settings: invalid input")
	// ErrInternal внутренняя ошибка
	ErrInternal = errors.New("settings: internal error")
)
