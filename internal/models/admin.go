package models

import (
	"context"
	"time"
)

// AdminUser is an account allowed into the admin dashboard.
type AdminUser struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// AdminSession is a signed-in admin. The session id is the token's jti and
// the Redis key suffix.
type AdminSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsExpired checks if session has expired
func (s *AdminSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// AdminUserRepository defines admin account data access.
type AdminUserRepository interface {
	CreateAdminUser(ctx context.Context, email, passwordHash string) (*AdminUser, error)
	FindAdminByEmail(ctx context.Context, email string) (*AdminUser, error)
}
