package auth

import (
	"time"

	"github.com/goliatone/go-router"
)

// CookieManager centralizes the attributes of every cookie the package
// writes. All cookies are SameSite=Lax and Secure in production; only
// the CSRF cookie is readable by scripts.
type CookieManager struct {
	cfg    Config
	logger Logger
}

// NewCookieManager creates a CookieManager from config.
func NewCookieManager(cfg Config, logger Logger) *CookieManager {
	if logger == nil {
		logger = defLogger{}
	}
	return &CookieManager{cfg: cfg, logger: logger}
}

// SetAuthCookie writes the access token cookie.
func (m *CookieManager) SetAuthCookie(c router.Context, token string) {
	m.set(c, m.cfg.GetAuthCookieName(), token, m.cfg.GetAccessTokenTTL(), true)
}

// SetRefreshCookie writes the refresh token cookie.
func (m *CookieManager) SetRefreshCookie(c router.Context, token string) {
	m.set(c, m.cfg.GetRefreshCookieName(), token, m.cfg.GetRefreshTokenTTL(), true)
}

// SetCSRFCookie writes the CSRF cookie. It is the only cookie scripts
// can read; the double-submit check depends on that.
func (m *CookieManager) SetCSRFCookie(c router.Context, token string) {
	m.set(c, m.cfg.GetCSRFCookieName(), token, m.cfg.GetAccessTokenTTL(), false)
}

// ClearAuthCookies expires every auth cookie. Callers invoke it
// unconditionally during logout, even when token invalidation failed.
func (m *CookieManager) ClearAuthCookies(c router.Context) {
	m.del(c, m.cfg.GetAuthCookieName(), true)
	m.del(c, m.cfg.GetRefreshCookieName(), true)
	m.del(c, m.cfg.GetCSRFCookieName(), false)
}

// GetRequestCookie reads a cookie from the request, empty when absent.
func (m *CookieManager) GetRequestCookie(c router.Context, name string) string {
	return c.Cookies(name)
}

func (m *CookieManager) set(c router.Context, name, val string, duration time.Duration, httpOnly bool) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: httpOnly,
		Secure:   m.cfg.IsProduction(),
		SameSite: "Lax",
	})
}

func (m *CookieManager) del(c router.Context, name string, httpOnly bool) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: httpOnly,
		Secure:   m.cfg.IsProduction(),
		SameSite: "Lax",
	})
}
