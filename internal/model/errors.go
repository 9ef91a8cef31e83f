package model

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredential  = errors.New("invalid access credential")
	ErrAccountUnavailable = errors.New("account missing or disabled")
	ErrInvalidCursor      = errors.New("invalid pagination cursor")
	ErrInvalidFilter      = errors.New("invalid audit filter")
	ErrUnavailable        = errors.New("dependency unavailable")
)
