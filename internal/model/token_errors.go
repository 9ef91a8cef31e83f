package model

import "errors"

var (
	ErrInvalidToken = errors.New("refresh token unknown")
	ErrTokenRevoked = errors.New("refresh token revoked")
	ErrTokenExpired = errors.New("refresh token expired")
)
