package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// resetTokenPurpose scopes reset tokens away from session tokens: a
// leaked reset token never verifies as an access or refresh credential.
const resetTokenPurpose = "password_reset"

// resetKeyScope is appended to the signing key so reset tokens are
// signed in a distinct context from session tokens.
const resetKeyScope = ":password-reset"

// ResetClaims is the self-contained payload of a password reset token.
// Reset tokens are never persisted; validity is signature + expiry +
// the embedded email still matching the live user record.
type ResetClaims struct {
	jwt.RegisteredClaims
	UID       string `json:"uid,omitempty"`
	UserEmail string `json:"email,omitempty"`
	Purpose   string `json:"prp,omitempty"`
}

// EmailMatches compares the embedded email to the live record,
// case-insensitively.
func (c *ResetClaims) EmailMatches(email string) bool {
	return strings.EqualFold(c.UserEmail, email)
}

// ResetTokenService issues and verifies the short-lived, stateless
// tokens used by the password reset flow.
type ResetTokenService struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	logger     Logger
}

// NewResetTokenService creates the reset token codec from config.
func NewResetTokenService(cfg Config, logger Logger) *ResetTokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &ResetTokenService{
		signingKey: append([]byte(cfg.GetSigningKey()), []byte(resetKeyScope)...),
		ttl:        cfg.GetResetTokenTTL(),
		issuer:     cfg.GetIssuer(),
		logger:     logger,
	}
}

// TTL exposes the configured reset token lifetime for display purposes.
func (s *ResetTokenService) TTL() time.Duration {
	return s.ttl
}

// Generate mints a reset token bound to a specific user and email pair.
func (s *ResetTokenService) Generate(userID, email string) (string, error) {
	now := time.Now()
	claims := &ResetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UID:       userID,
		UserEmail: email,
		Purpose:   resetTokenPurpose,
	}

	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.signingKey)
}

// Verify returns the claims carried by a reset token, or nil on any
// failure: expired, malformed, bad signature, or wrong purpose. Callers
// treat nil uniformly as "invalid or expired".
func (s *ResetTokenService) Verify(raw string) *ResetClaims {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if s.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &ResetClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, parserOptions...)

	if err != nil {
		s.logger.Debug("reset token rejected", "error", err)
		return nil
	}

	claims, ok := token.Claims.(*ResetClaims)
	if !ok || !token.Valid {
		return nil
	}

	if claims.Purpose != resetTokenPurpose {
		s.logger.Warn("reset token with wrong purpose claim", "purpose", claims.Purpose)
		return nil
	}

	if claims.UID == "" || claims.UserEmail == "" {
		return nil
	}

	return claims
}
