package purge_trash

import "errors"

// ErrInternal возвращается при внутренних ошибках usecase
var ErrInternal = errors.New("purge_trash: internal error")
