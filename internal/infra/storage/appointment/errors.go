package appointment

import "errors"

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена в компании
	ErrAppointmentNotFound = errors.New("appointment.repository: appointment not found")

	// ErrSlotTaken возвращается, когда база отклонила пересекающуюся запись
	ErrSlotTaken = errors.New("appointment.repository: slot already taken")

	// ErrUnavailable возвращается, когда база недоступна
	ErrUnavailable = errors.New("appointment.repository: store unavailable")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("appointment.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("appointment.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("appointment.repository: failed to scan row")

	// ErrEncode возвращается при ошибке сериализации списка услуг
	ErrEncode = errors.New("appointment.repository: failed to encode services")
)
