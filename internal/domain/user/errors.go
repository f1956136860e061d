package user

import "errors"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUserBanned     = errors.New("user banned")
	ErrClientNotFound = errors.New("client not found")
	ErrSigninExists   = errors.New("signin record exists")
)
