package dispatcher

import "errors"

var (
	// ErrInvalidMessage — тело сообщения не JSON-объект или в нём нет обязательных полей.
	ErrInvalidMessage = errors.New("invalid import message")
)
