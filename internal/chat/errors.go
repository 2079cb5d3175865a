package chat

import "errors"

var (
	ErrConnClosed     = errors.New("connection closed")
	ErrServerClosed   = errors.New("server closed")
	ErrAlreadyStarted = errors.New("accept loop already started")
)
