// Package fiber adapts the gatekeep authentication operations onto a fiber
// v3 application. Sessions travel in an HTTP-only, SameSite=Strict cookie;
// a Bearer Authorization header is accepted as a fallback.
package fiber

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/smontero/gatekeep"
)

// SessionCookie is the name of the cookie carrying the raw session token.
const SessionCookie = "gatekeep_session"

type Adapter struct {
	app    *fiber.App
	auth   gatekeep.AuthProvider
	maxAge time.Duration
}

var _ gatekeep.HTTPAdapter = (*Adapter)(nil)

func New(app *fiber.App) *Adapter {
	return &Adapter{app: app}
}

func (a *Adapter) RegisterRoutes(auth gatekeep.AuthProvider, basePath string, maxAge time.Duration) error {
	a.auth = auth
	a.maxAge = maxAge

	api := a.app.Group(basePath)

	// Public routes
	api.Post("/register", a.register)
	api.Post("/login", a.login)

	// Session-cookie routes
	api.Get("/status", a.status)
	api.Post("/logout", a.logout)

	tfa := api.Group("/2fa")
	tfa.Post("/setup", a.setup2FA)
	tfa.Post("/verify", a.verify2FA)
	tfa.Post("/reset", a.reset2FA)

	return nil
}

// Protected returns a middleware for application routes that must only be
// reachable with a live session. The resolved account and session records
// are stored in the request locals for downstream handlers.
func (a *Adapter) Protected(c fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": gatekeep.ErrNoActiveSession.Error(),
		})
	}

	data, err := a.auth.Status(c.Context(), token)
	if err != nil {
		return handleAuthError(c, err)
	}

	c.Locals("account", data.Account)
	c.Locals("session", data.Session)

	return c.Next()
}

// extractToken pulls the session token from the request. Cookie first, then
// the Authorization header.
func extractToken(c fiber.Ctx) string {
	if cookie := c.Cookies(SessionCookie); cookie != "" {
		return cookie
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}

	return ""
}
