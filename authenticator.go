package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// MaxLoginAttempts is the number of failed logins tolerated before the
// account cools down.
var MaxLoginAttempts = 5

// CoolDownPeriod is how long an account stays locked after exhausting
// its login attempts.
var CoolDownPeriod = "24h"

// resetPersistTimeout bounds the persistence work of a password reset
// confirmation.
const resetPersistTimeout = 10 * time.Second

// minPasswordLength applies to new passwords set through the reset flow.
const minPasswordLength = 10

// LoginResult carries everything a successful authentication produced.
// The transport layer decides how to deliver the tokens.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Claims       *SessionClaims
	User         *User
}

// Authenticator is the request pipeline behind the HTTP surface.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Validate(ctx context.Context, raw string) (*SessionClaims, error)
	Refresh(ctx context.Context, refreshToken, oldAccessToken string) (*LoginResult, error)
	Logout(ctx context.Context, raw string) error
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyPasswordReset(ctx context.Context, token string) bool
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	TokenService() TokenService
	ResetTokenService() *ResetTokenService
}

type Auther struct {
	store            UserStore
	registry         TokenRegistry
	tokenService     TokenService
	resetTokens      *ResetTokenService
	notifier         Notifier
	activitySink     ActivitySink
	logger           Logger
	maxLoginAttempts int
	coolDownPeriod   string
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(store UserStore, registry TokenRegistry, cfg Config) *Auther {
	logger := defLogger{}

	return &Auther{
		store:            store,
		registry:         registry,
		tokenService:     NewTokenService(cfg, logger),
		resetTokens:      NewResetTokenService(cfg, logger),
		notifier:         logNotifier{logger: logger},
		activitySink:     noopActivitySink{},
		logger:           logger,
		maxLoginAttempts: MaxLoginAttempts,
		coolDownPeriod:   CoolDownPeriod,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithNotifier configures the reset notification dispatcher.
func (s *Auther) WithNotifier(notifier Notifier) *Auther {
	if notifier != nil {
		s.notifier = notifier
	}
	return s
}

// WithTokenService overrides the default token codec.
func (s *Auther) WithTokenService(service TokenService) *Auther {
	if service != nil {
		s.tokenService = service
	}
	return s
}

// WithLoginPolicy tunes the failed-attempt lockout. The period uses
// time.ParseDuration syntax.
func (s *Auther) WithLoginPolicy(maxAttempts int, coolDown string) *Auther {
	if maxAttempts > 0 {
		s.maxLoginAttempts = maxAttempts
	}
	if coolDown != "" {
		s.coolDownPeriod = coolDown
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// ResetTokenService returns the reset token codec.
func (s *Auther) ResetTokenService() *ResetTokenService {
	return s.resetTokens
}

// Login verifies credentials and mints an access and a refresh token,
// recording both in the registry. Every credential failure surfaces as
// the same generic error so callers cannot probe which emails exist.
func (s *Auther) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
				"email":  email,
				"reason": "unknown identity",
			})
			return nil, ErrMismatchedHashAndPassword
		}
		s.logger.Error("Login user lookup error", "error", err)
		return nil, WrapStorageError(err, "unable to verify credentials")
	}

	if err := s.ensureNotCoolingDown(user); err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromUser(user), user.ID.String(), map[string]any{
			"email":  email,
			"reason": "too many attempts",
		})
		return nil, err
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if trackErr := s.store.TrackAttemptedLogin(ctx, user); trackErr != nil {
			s.logger.Warn("Login attempt tracking error", "error", trackErr)
		}
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, s.actorFromUser(user), user.ID.String(), map[string]any{
			"email":  email,
			"reason": "password mismatch",
		})
		return nil, ErrMismatchedHashAndPassword
	}

	result, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.store.TrackSucccessfulLogin(ctx, user); err != nil {
		s.logger.Warn("Login tracking error", "error", err)
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, s.actorFromUser(user), user.ID.String(), map[string]any{
		"email": email,
	})

	return result, nil
}

// Validate checks a raw access token end to end: signature, kind,
// registry liveness, and that the subject still resolves to a live
// user. Registry outages fail closed.
func (s *Auther) Validate(ctx context.Context, raw string) (*SessionClaims, error) {
	if raw == "" {
		return nil, ErrNoTokenProvided
	}

	claims, err := s.tokenService.Verify(raw)
	if err != nil {
		return nil, err
	}

	if claims.Kind() != TokenKindAccess {
		return nil, ErrTokenMalformed
	}

	live, err := s.registry.IsLive(ctx, raw)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, ErrTokenRevoked
	}

	if _, err := s.resolveUser(ctx, claims.UserID()); err != nil {
		return nil, err
	}

	return claims, nil
}

// Refresh exchanges a live refresh token for a new access token. The
// previous access token is invalidated best-effort; a failure there is
// logged and never blocks the rotation.
func (s *Auther) Refresh(ctx context.Context, refreshToken, oldAccessToken string) (*LoginResult, error) {
	if refreshToken == "" {
		// No refresh cookie means no session to extend. Unlike logout,
		// this is an authentication failure, not a malformed request.
		return nil, ErrUnableToFindSession
	}

	claims, err := s.tokenService.Verify(refreshToken)
	if err != nil {
		return nil, err
	}

	if claims.Kind() != TokenKindRefresh {
		return nil, ErrTokenMalformed
	}

	live, err := s.registry.IsLive(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !live {
		return nil, ErrTokenRevoked
	}

	user, err := s.resolveUser(ctx, claims.UserID())
	if err != nil {
		return nil, err
	}

	if oldAccessToken != "" {
		if _, err := s.registry.Invalidate(ctx, oldAccessToken); err != nil {
			s.logger.Warn("Refresh could not invalidate previous access token", "error", err)
		}
	}

	accessToken, err := s.issueAndRecord(ctx, user, TokenKindAccess)
	if err != nil {
		return nil, err
	}

	accessClaims, err := s.tokenService.Verify(accessToken)
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventTokenRefresh, s.actorFromUser(user), user.ID.String(), nil)

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Claims:       accessClaims,
		User:         user,
	}, nil
}

// Logout invalidates the registry record for the given token. Callers
// clear cookies regardless of the outcome here.
func (s *Auther) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return ErrNoTokenProvided
	}

	userID := ""
	if claims, err := s.tokenService.Verify(raw); err == nil {
		userID = claims.UserID()
	}

	if _, err := s.registry.Invalidate(ctx, raw); err != nil {
		s.logger.Warn("Logout token invalidation error", "error", err)
		return err
	}

	s.emitAuthEvent(ctx, ActivityEventLogout, ActorRef{ID: userID, Type: "user"}, userID, nil)

	return nil
}

// RequestPasswordReset starts the reset flow. The outcome is identical
// whether or not the email belongs to an account.
func (s *Auther) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if !errors.IsNotFound(err) {
			s.logger.Error("Password reset lookup error", "error", err)
		}
		// Same response as the happy path, nothing to probe.
		return nil
	}

	token, err := s.resetTokens.Generate(user.ID.String(), user.Email)
	if err != nil {
		s.logger.Error("Password reset token generation error", "error", err)
		return nil
	}

	if err := s.notifier.SendPasswordReset(ctx, user, token); err != nil {
		s.logger.Error("Password reset notification error", "error", err)
		return nil
	}

	s.emitAuthEvent(ctx, ActivityEventPasswordResetRequest, s.actorFromUser(user), user.ID.String(), map[string]any{
		"email": user.Email,
	})

	return nil
}

// VerifyPasswordReset reports whether a reset token is still usable:
// valid signature, not expired, and still bound to the account's
// current email.
func (s *Auther) VerifyPasswordReset(ctx context.Context, token string) bool {
	claims := s.resetTokens.Verify(token)
	if claims == nil {
		return false
	}

	user, err := s.store.GetByID(ctx, claims.UID)
	if err != nil {
		return false
	}

	return claims.EmailMatches(user.Email)
}

// ConfirmPasswordReset finalizes the reset flow: token check, email
// binding check, password policy, then persist. All live sessions for
// the account are invalidated afterwards.
func (s *Auther) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	claims := s.resetTokens.Verify(token)
	if claims == nil {
		return ErrResetTokenInvalid
	}

	if len(newPassword) < minPasswordLength {
		return errors.New("password must be at least 10 characters", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	user, err := s.store.GetByID(ctx, claims.UID)
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrResetTokenInvalid
		}
		return WrapStorageError(err, "unable to confirm password reset")
	}

	if !claims.EmailMatches(user.Email) {
		// Email changed since the token was issued, the binding is void.
		return ErrResetTokenInvalid
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	persistCtx, cancel := context.WithTimeout(ctx, resetPersistTimeout)
	defer cancel()

	if err := s.store.ResetPassword(persistCtx, user.ID, hash); err != nil {
		return WrapStorageError(err, "unable to persist new password")
	}

	if _, err := s.registry.InvalidateAllForUser(persistCtx, user.ID); err != nil {
		s.logger.Warn("Password reset session invalidation error", "error", err)
	}

	s.emitAuthEvent(ctx, ActivityEventPasswordResetSuccess, s.actorFromUser(user), user.ID.String(), map[string]any{
		"email": user.Email,
	})

	return nil
}

func (s *Auther) issueSession(ctx context.Context, user *User) (*LoginResult, error) {
	accessToken, err := s.issueAndRecord(ctx, user, TokenKindAccess)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.issueAndRecord(ctx, user, TokenKindRefresh)
	if err != nil {
		return nil, err
	}

	claims, err := s.tokenService.Verify(accessToken)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Claims:       claims,
		User:         user,
	}, nil
}

func (s *Auther) issueAndRecord(ctx context.Context, user *User, kind TokenKind) (string, error) {
	token, err := s.tokenService.Issue(NewIdentityFromUser(user), kind)
	if err != nil {
		s.logger.Error("Token issue error", "kind", kind, "error", err)
		return "", err
	}

	expiresAt := time.Now().Add(s.tokenService.TTL(kind))
	if err := s.registry.Record(ctx, token, user.ID, kind, expiresAt); err != nil {
		// A token the registry does not know about will never validate,
		// so the login fails here rather than minting a dead credential.
		return "", err
	}

	return token, nil
}

func (s *Auther) resolveUser(ctx context.Context, id string) (*User, error) {
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrUnableToFindSession
		}
		return nil, WrapStorageError(err, "unable to resolve session user")
	}
	return user, nil
}

func (s *Auther) ensureNotCoolingDown(user *User) error {
	if user.LoginAttempts < s.maxLoginAttempts || user.LoginAttemptAt == nil {
		return nil
	}

	withinCoolDown, err := IsWithinThresholdPeriod(*user.LoginAttemptAt, s.coolDownPeriod)
	if err != nil {
		s.logger.Warn("Login cooldown parse error", "period", s.coolDownPeriod, "error", err)
		return nil
	}

	if withinCoolDown {
		return ErrTooManyLoginAttempts
	}

	return nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

func (s *Auther) actorFromUser(user *User) ActorRef {
	if user == nil {
		return ActorRef{Type: "unknown"}
	}

	return ActorRef{
		ID:   user.ID.String(),
		Type: "user",
	}
}
