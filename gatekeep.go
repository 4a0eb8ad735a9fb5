// Package gatekeep is a small, pluggable authentication library: username and
// password registration, cookie-backed sessions, and optional TOTP two-factor
// authentication with a signed bearer token issued on 2FA success.
//
// Storage and HTTP transport are adapters; see adapters/pgx, adapters/redis,
// and adapters/fiber.
package gatekeep

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/smontero/gatekeep/core"
	"github.com/smontero/gatekeep/pkg/cache"
	"github.com/smontero/gatekeep/pkg/crypto"
)

// interfaces
type (
	AuthStorage    = core.AuthStorage
	AccountStorage = core.AccountStorage
	SessionStorage = core.SessionStorage
	Cache          = core.Cache

	AuthProvider = core.AuthProvider
	HTTPAdapter  = core.HTTPAdapter

	PasswordHandler = crypto.PasswordHandler
)

// structs
type (
	Gatekeep      = core.Gatekeep
	Config        = core.Config
	SessionConfig = core.SessionConfig
	CacheConfig   = core.CacheConfig
)

type (
	Account             = core.Account
	Session             = core.Session
	SessionData         = core.SessionData
	RegisterInput       = core.RegisterInput
	LoginInput          = core.LoginInput
	LoginResult         = core.LoginResult
	TwoFactorEnrollment = core.TwoFactorEnrollment
	CacheStats          = core.CacheStats
)

const (
	minSigningSecretLen = 32
	defaultTokenTTL     = time.Hour
	defaultIssuer       = "gatekeep"
)

// Constructors & helpers (convenience re-exports)
var (
	NewInMemoryCache     = cache.NewInMemoryCache
	NewArgon2            = crypto.NewArgon2
	DefaultSessionConfig = core.DefaultSessionConfig
)

var (
	ErrDuplicateUsername  = core.ErrDuplicateUsername
	ErrAccountNotFound    = core.ErrAccountNotFound
	ErrInvalidCredentials = core.ErrInvalidCredentials
)

var (
	ErrNoActiveSession    = core.ErrNoActiveSession
	ErrSessionExpired     = core.ErrSessionExpired
	ErrInvalidBearerToken = core.ErrInvalidBearerToken
)

var (
	ErrInvalidTwoFactorCode   = core.ErrInvalidTwoFactorCode
	ErrTwoFactorNotConfigured = core.ErrTwoFactorNotConfigured
)

var (
	ErrUsernameRequired = core.ErrUsernameRequired
	ErrPasswordRequired = core.ErrPasswordRequired
	ErrPasswordTooShort = core.ErrPasswordTooShort
	ErrPasswordTooLong  = core.ErrPasswordTooLong
)

var (
	ErrStorageRequired       = core.ErrStorageRequired
	ErrSigningSecretRequired = core.ErrSigningSecretRequired
	ErrSigningSecretTooShort = core.ErrSigningSecretTooShort
	ErrStoreUnavailable      = core.ErrStoreUnavailable
)

// New validates the config, fills in defaults, and assembles the service.
// If an HTTP adapter is configured its routes are registered before return.
func New(config Config) (*Gatekeep, error) {
	if config.SigningSecret == "" {
		return nil, ErrSigningSecretRequired
	}
	if len(config.SigningSecret) < minSigningSecretLen {
		return nil, fmt.Errorf("%w - minimum of %d bytes", ErrSigningSecretTooShort, minSigningSecretLen)
	}
	if config.Database == nil {
		return nil, ErrStorageRequired
	}

	// Set Defaults

	cacheAdapter := config.CacheAdapter
	if cacheAdapter == nil && !config.DisableCache {
		cacheAdapter = cache.NewInMemoryCache(CacheConfig{
			TTL:     5 * time.Minute,
			MaxSize: 500,
		})
	}

	sessionConfig := config.SessionConfig
	if sessionConfig == nil {
		defaults := DefaultSessionConfig()
		sessionConfig = &defaults
	}

	passwordHasher := config.PasswordHasher
	if passwordHasher == nil {
		passwordHasher = crypto.NewArgon2()
	}

	tokenTTL := config.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}

	issuer := config.Issuer
	if issuer == "" {
		issuer = defaultIssuer
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	sessionStorage := config.SessionStorage
	if sessionStorage == nil {
		sessionStorage = config.Database
	}

	sessionManager := core.NewSessionManager(*sessionConfig, sessionStorage, cacheAdapter, logger)
	tokenIssuer := core.NewTokenIssuer([]byte(config.SigningSecret), tokenTTL, issuer)
	totpEngine := &core.TOTPEngine{Issuer: issuer}

	gatekeep, err := core.NewGatekeep(
		config.Database,
		sessionManager,
		passwordHasher,
		totpEngine,
		tokenIssuer,
		logger,
	)
	if err != nil {
		return nil, err
	}

	if config.HTTP != nil {
		if err := config.HTTP.RegisterRoutes(gatekeep, config.BasePath, sessionConfig.MaxAge); err != nil {
			return nil, err
		}
	}

	return gatekeep, nil
}
