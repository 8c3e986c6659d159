package domain

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrChallengeNotFound = errors.New("challenge not found or expired")
	ErrInvalidWallet     = errors.New("invalid wallet address")
	ErrInvalidSignature  = errors.New("invalid wallet signature")
	ErrTokenExpired      = errors.New("token expired")
	ErrInvalidToken      = errors.New("invalid token")
)
