package auth

import (
	"context"
	"errors"
)

var (
	ErrUserExists         = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

type AuthRepository interface {
	CreateUser(ctx context.Context, user *User) error
	AuthenticateUser(ctx context.Context, credentials *UserLoginCredentials) (bool, error)
	GetUserInfo(ctx context.Context, username string) (*User, error)
}
