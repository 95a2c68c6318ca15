package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrAwaitingReply     = errors.New("assistant reply still pending")
	ErrInvalidTransition = errors.New("invalid project status transition")
)
