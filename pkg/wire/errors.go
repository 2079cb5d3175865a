package wire

import "errors"

var (
	ErrNameHasDelimiter = errors.New("name must not contain the delimiter " + Delimiter)
	ErrPortMalformed    = errors.New("port must be numeric")
	ErrPortOutOfRange   = errors.New("port must be between 0 and 65535")
)
