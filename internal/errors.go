package internal

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnsupportedSource = errors.New("unsupported source type")
	ErrLocked            = errors.New("output directory is locked by another run")
)
