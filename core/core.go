package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/smontero/gatekeep/pkg/crypto"
)

type Config struct {
	// SigningSecret is the HMAC key for bearer tokens. Minimum 32 bytes.
	SigningSecret string

	Database AuthStorage

	// Optional config
	HTTP           HTTPAdapter
	SessionStorage SessionStorage // defaults to Database
	CacheAdapter   Cache
	DisableCache   bool
	SessionConfig  *SessionConfig
	PasswordHasher crypto.PasswordHandler
	TokenTTL       time.Duration
	Issuer         string // label shown in authenticator apps
	BasePath       string
	Logger         *slog.Logger
}

// Gatekeep is the assembled authentication service. Construct it through
// the root package's New; the zero value is not usable.
type Gatekeep struct {
	Database  AccountStorage
	Sessions  *SessionManager
	Passwords crypto.PasswordHandler
	TOTP      *TOTPEngine
	Tokens    *TokenIssuer
	Logger    *slog.Logger

	// decoyHash is verified against on unknown-username logins so that
	// both failure paths cost one argon2id computation.
	decoyHash string
}

// AuthProvider exposes the authentication operations to HTTP adapters.
type AuthProvider interface {
	Register(ctx context.Context, input RegisterInput) (*Account, error)
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	Status(ctx context.Context, token string) (*SessionData, error)
	Setup2FA(ctx context.Context, token string) (*TwoFactorEnrollment, error)
	Verify2FA(ctx context.Context, token, code string) (string, error)
	Reset2FA(ctx context.Context, token string) error
}

type HTTPAdapter interface {
	RegisterRoutes(auth AuthProvider, basePath string, maxAge time.Duration) error
}
