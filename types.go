package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Email() string
	Role() string
	CompanyID() string
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetIssuer() string
	GetAudience() []string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetResetTokenTTL() time.Duration
	GetAuthCookieName() string
	GetRefreshCookieName() string
	GetCSRFCookieName() string
	GetAllowedOrigins() []string
	GetAPIVersion() string
	IsProduction() bool
}

// UserStore is the persistence surface the pipeline needs to resolve
// and mutate user records. Wrap the bun-backed Users repository with
// NewUserStore to satisfy it.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSucccessfulLogin(ctx context.Context, user *User) error
	ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// Notifier dispatches out-of-band messages for the reset flow. Delivery
// is a host concern; the default implementation logs the payload.
type Notifier interface {
	SendPasswordReset(ctx context.Context, user *User, token string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, user *User, token string) error

// SendPasswordReset implements Notifier.
func (f NotifierFunc) SendPasswordReset(ctx context.Context, user *User, token string) error {
	return f(ctx, user, token)
}

type logNotifier struct {
	logger Logger
}

func (n logNotifier) SendPasswordReset(_ context.Context, user *User, token string) error {
	n.logger.Info("password reset notification", "email", user.Email, "token", token)
	return nil
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
