package service

import "errors"

var (
	ErrWindowNotFound = errors.New("window not found")
	ErrUnknownApp     = errors.New("unknown app")
	ErrAppForbidden   = errors.New("app requires admin access")
	ErrInvalidPhase   = errors.New("invalid pointer phase")
)
