package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/smontero/gatekeep/pkg/crypto"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

// NewGatekeep wires the assembled dependencies into a service. Called by the
// root package after config validation and defaulting.
func NewGatekeep(
	database AccountStorage,
	sessions *SessionManager,
	passwords crypto.PasswordHandler,
	totpEngine *TOTPEngine,
	tokens *TokenIssuer,
	logger *slog.Logger,
) (*Gatekeep, error) {
	// A hash of a throwaway random value. Logins for unknown usernames
	// verify against this so the miss path costs the same as a mismatch.
	decoy, err := crypto.GenerateHashedToken()
	if err != nil {
		return nil, fmt.Errorf("failed to seed decoy credential: %w", err)
	}
	decoyHash, err := passwords.Hash(decoy.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to hash decoy credential: %w", err)
	}

	return &Gatekeep{
		Database:  database,
		Sessions:  sessions,
		Passwords: passwords,
		TOTP:      totpEngine,
		Tokens:    tokens,
		Logger:    logger,
		decoyHash: decoyHash,
	}, nil
}

// RegisterInput contains the data needed to create a new account
type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginInput contains the credentials for authentication
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult contains the authenticated account and its new session
type LoginResult struct {
	Account *Account `json:"account"`
	Session *Session `json:"session"`
	Token   string   `json:"token"` // The raw token (not the hash)
}

// Register creates a new account with a username and password. It does not
// establish a session; the caller logs in afterwards.
func (g *Gatekeep) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if input.Password == "" {
		return nil, ErrPasswordRequired
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if len(input.Password) > maxPasswordLength {
		return nil, ErrPasswordTooLong
	}

	hashedPassword, err := g.Passwords.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &Account{
		ID:               uuid.NewString(),
		Username:         username,
		PasswordHash:     hashedPassword,
		TwoFactorEnabled: false,
	}

	if err := g.Database.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	g.Logger.InfoContext(ctx, "account registered", "username", username)

	return account, nil
}

// Login authenticates a username/password pair and starts a session. Unknown
// usernames and wrong passwords fail identically.
func (g *Gatekeep) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if input.Username == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := g.Database.GetAccountByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// Burn a verification anyway to keep the latency uniform.
			g.Passwords.Verify(input.Password, g.decoyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	valid, err := g.Passwords.Verify(input.Password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		g.Logger.InfoContext(ctx, "login rejected", "username", input.Username)
		return nil, ErrInvalidCredentials
	}

	sessionResult, err := g.Sessions.Create(ctx, account.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	g.Logger.InfoContext(ctx, "login succeeded", "username", account.Username, "session", sessionResult.Session.ID)

	return &LoginResult{
		Account: account,
		Session: sessionResult.Session,
		Token:   sessionResult.Token,
	}, nil
}

// Logout destroys the session behind the token. Idempotent.
func (g *Gatekeep) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoActiveSession
	}

	if err := g.Sessions.Destroy(ctx, token); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// Status resolves a session token to its account and session records.
func (g *Gatekeep) Status(ctx context.Context, token string) (*SessionData, error) {
	session, err := g.Sessions.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	account, err := g.Database.GetAccountByUsername(ctx, session.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	return &SessionData{
		Account: account,
		Session: session,
	}, nil
}
