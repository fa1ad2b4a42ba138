package user

import "errors"

var (
	ErrInvalidEmail  = errors.New("invalid email")
	ErrEmailRequired = errors.New("email is required")
	ErrUserNotFound  = errors.New("user not found")
)
