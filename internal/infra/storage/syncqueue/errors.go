package syncqueue

import "errors"

var (
	// ErrItemNotFound элемент очереди не найден
	ErrItemNotFound = errors.New("syncqueue repository: item not found")
	// ErrEncode ошибка сериализации элемента очереди
	ErrEncode = errors.New("syncqueue repository: failed to encode item")
	// ErrDecode ошибка десериализации элемента очереди
	ErrDecode = errors.New("syncqueue repository: failed to decode item")
	// ErrRedis ошибка выполнения команды redis
	ErrRedis = errors.New("syncqueue repository: redis command failed")
)
