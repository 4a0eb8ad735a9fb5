package fiber

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/smontero/gatekeep"
)

func (a *Adapter) register(c fiber.Ctx) error {
	var input gatekeep.RegisterInput
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if _, err := a.auth.Register(c.Context(), input); err != nil {
		return handleAuthError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "account registered successfully",
	})
}

func (a *Adapter) login(c fiber.Ctx) error {
	var input gatekeep.LoginInput
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := a.auth.Login(c.Context(), input)
	if err != nil {
		return handleAuthError(c, err)
	}

	a.setSessionCookie(c, result.Token)

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":     "logged in successfully",
		"username":    result.Account.Username,
		"isMfaActive": result.Account.TwoFactorEnabled,
	})
}

func (a *Adapter) status(c fiber.Ctx) error {
	data, err := a.requireSession(c)
	if err != nil {
		return handleAuthError(c, err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":     "authenticated",
		"username":    data.Account.Username,
		"isMfaActive": data.Account.TwoFactorEnabled,
	})
}

func (a *Adapter) logout(c fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return handleAuthError(c, gatekeep.ErrNoActiveSession)
	}

	if err := a.auth.Logout(c.Context(), token); err != nil {
		return handleAuthError(c, err)
	}

	a.clearSessionCookie(c)

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "logged out successfully",
	})
}

func (a *Adapter) setup2FA(c fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return handleAuthError(c, gatekeep.ErrNoActiveSession)
	}

	enrollment, err := a.auth.Setup2FA(c.Context(), token)
	if err != nil {
		return handleAuthError(c, err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"secret": enrollment.Secret,
		"qrCode": enrollment.QRCode,
	})
}

func (a *Adapter) verify2FA(c fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return handleAuthError(c, gatekeep.ErrNoActiveSession)
	}

	// The request's "token" field is the 6-digit one-time code.
	var input struct {
		Code string `json:"token"`
	}
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	bearer, err := a.auth.Verify2FA(c.Context(), token, input.Code)
	if err != nil {
		return handleAuthError(c, err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "two-factor verified successfully",
		"token":   bearer,
	})
}

func (a *Adapter) reset2FA(c fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return handleAuthError(c, gatekeep.ErrNoActiveSession)
	}

	if err := a.auth.Reset2FA(c.Context(), token); err != nil {
		return handleAuthError(c, err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "two-factor reset successfully",
	})
}

func (a *Adapter) requireSession(c fiber.Ctx) (*gatekeep.SessionData, error) {
	token := extractToken(c)
	if token == "" {
		return nil, gatekeep.ErrNoActiveSession
	}
	return a.auth.Status(c.Context(), token)
}

func (a *Adapter) setSessionCookie(c fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.maxAge.Seconds()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (a *Adapter) clearSessionCookie(c fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// handleAuthError maps authentication errors to appropriate HTTP responses
func handleAuthError(c fiber.Ctx, err error) error {
	status := mapErrorToStatus(err)
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// mapErrorToStatus maps gatekeep error types to HTTP status codes
func mapErrorToStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, gatekeep.ErrInvalidCredentials),
		errors.Is(err, gatekeep.ErrNoActiveSession),
		errors.Is(err, gatekeep.ErrSessionExpired):
		return http.StatusUnauthorized

	case errors.Is(err, gatekeep.ErrDuplicateUsername),
		errors.Is(err, gatekeep.ErrInvalidTwoFactorCode),
		errors.Is(err, gatekeep.ErrTwoFactorNotConfigured),
		errors.Is(err, gatekeep.ErrUsernameRequired),
		errors.Is(err, gatekeep.ErrPasswordRequired),
		errors.Is(err, gatekeep.ErrPasswordTooShort),
		errors.Is(err, gatekeep.ErrPasswordTooLong):
		return http.StatusBadRequest

	case errors.Is(err, gatekeep.ErrStoreUnavailable):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
