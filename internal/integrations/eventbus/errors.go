package eventbus

import "errors"

var (
	// ErrEncode возвращается при ошибке сериализации события
	ErrEncode = errors.New("eventbus: failed to encode event")

	// ErrWrite возвращается, если брокер не принял сообщение
	ErrWrite = errors.New("eventbus: failed to write message")

	// ErrNoBrokers возвращается, если не настроен ни один брокер
	ErrNoBrokers = errors.New("eventbus: kafka brokers not configured")
)
