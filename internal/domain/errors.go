package domain

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrUnauthorized      = errors.New("not authorized for this session")
	ErrMalformedEnvelope = errors.New("malformed event envelope")
	ErrInvalidInput      = errors.New("invalid input")
)
