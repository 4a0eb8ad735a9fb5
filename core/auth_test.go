package core

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/smontero/gatekeep/pkg/crypto"
)

// testArgon2 returns a hasher with reduced cost so table tests stay fast.
func testArgon2() *crypto.Argon2 {
	return &crypto.Argon2{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestGatekeep(t *testing.T, storage *FakeAuthStorage) *Gatekeep {
	t.Helper()

	sessions := NewSessionManager(SessionConfig{MaxAge: 24 * time.Hour}, storage, nil, nil)
	tokens := NewTokenIssuer([]byte("0123456789abcdef0123456789abcdef"), time.Hour, "gatekeep-test")
	engine := &TOTPEngine{Issuer: "gatekeep-test"}

	g, err := NewGatekeep(storage, sessions, testArgon2(), engine, tokens, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewGatekeep() error = %v", err)
	}
	return g
}

func registerAndLogin(t *testing.T, g *Gatekeep, username, password string) string {
	t.Helper()

	ctx := context.Background()
	if _, err := g.Register(ctx, RegisterInput{Username: username, Password: password}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	result, err := g.Login(ctx, LoginInput{Username: username, Password: password})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return result.Token
}

// Requirement: Register creates an account for valid input and rejects bad input.
func TestGatekeep_Register(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		setup    func(*FakeAuthStorage)
		wantErr  error
	}{
		{
			name:     "creates account for valid input",
			username: "alice",
			password: "Secret123!",
		},
		{
			name:     "returns error for empty username",
			username: "",
			password: "Secret123!",
			wantErr:  ErrUsernameRequired,
		},
		{
			name:     "returns error for whitespace username",
			username: "   ",
			password: "Secret123!",
			wantErr:  ErrUsernameRequired,
		},
		{
			name:     "returns error for empty password",
			username: "alice",
			password: "",
			wantErr:  ErrPasswordRequired,
		},
		{
			name:     "returns error for short password",
			username: "alice",
			password: "short",
			wantErr:  ErrPasswordTooShort,
		},
		{
			name:     "returns error for duplicate username",
			username: "alice",
			password: "Secret123!",
			setup: func(storage *FakeAuthStorage) {
				_ = storage.CreateAccount(context.Background(), &Account{
					ID:       "existing",
					Username: "alice",
				})
			},
			wantErr: ErrDuplicateUsername,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			storage := NewFakeAuthStorage()
			if test.setup != nil {
				test.setup(storage)
			}
			g := newTestGatekeep(t, storage)

			// Act
			account, err := g.Register(context.Background(), RegisterInput{
				Username: test.username,
				Password: test.password,
			})

			// Assert
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Fatalf("Register() error = %v, want %v", err, test.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Register() error = %v", err)
			}
			if account.PasswordHash == test.password {
				t.Error("Register() stored the plaintext password")
			}
			if account.TwoFactorEnabled {
				t.Error("Register() should create accounts with 2FA disabled")
			}
		})
	}
}

// Requirement: duplicate registration leaves the original account untouched.
func TestGatekeep_Register_DuplicatePreservesOriginal(t *testing.T) {
	storage := NewFakeAuthStorage()
	g := newTestGatekeep(t, storage)
	ctx := context.Background()

	first, err := g.Register(ctx, RegisterInput{Username: "alice", Password: "Secret123!"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := g.Register(ctx, RegisterInput{Username: "alice", Password: "Another456!"}); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("second Register() error = %v, want ErrDuplicateUsername", err)
	}

	stored, err := storage.GetAccountByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetAccountByUsername() error = %v", err)
	}
	if stored.ID != first.ID || stored.PasswordHash != first.PasswordHash {
		t.Error("duplicate registration modified the original account")
	}

	if _, err := g.Login(ctx, LoginInput{Username: "alice", Password: "Secret123!"}); err != nil {
		t.Errorf("Login() with original password error = %v", err)
	}
}

// Requirement: Login succeeds with the registered password and fails uniformly
// with ErrInvalidCredentials for unknown usernames and wrong passwords.
func TestGatekeep_Login(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{
			name:     "succeeds with valid credentials",
			username: "alice",
			password: "Secret123!",
		},
		{
			name:     "fails for wrong password",
			username: "alice",
			password: "WrongPass99!",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name:     "fails identically for unknown username",
			username: "mallory",
			password: "Secret123!",
			wantErr:  ErrInvalidCredentials,
		},
		{
			name:     "fails for empty password",
			username: "alice",
			password: "",
			wantErr:  ErrInvalidCredentials,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			storage := NewFakeAuthStorage()
			g := newTestGatekeep(t, storage)
			ctx := context.Background()
			if _, err := g.Register(ctx, RegisterInput{Username: "alice", Password: "Secret123!"}); err != nil {
				t.Fatalf("Register() error = %v", err)
			}

			// Act
			result, err := g.Login(ctx, LoginInput{Username: test.username, Password: test.password})

			// Assert
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Fatalf("Login() error = %v, want %v", err, test.wantErr)
				}
				if storage.SessionCount() != 0 {
					t.Error("failed Login() should not create a session")
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			if result.Token == "" {
				t.Error("Login() should return a session token")
			}
			if result.Session == nil || result.Session.Username != "alice" {
				t.Error("Login() session should belong to the account")
			}
		})
	}
}

// Requirement: Status resolves a live session; Logout destroys it and is idempotent.
func TestGatekeep_StatusAndLogout(t *testing.T) {
	storage := NewFakeAuthStorage()
	g := newTestGatekeep(t, storage)
	ctx := context.Background()

	token := registerAndLogin(t, g, "alice", "Secret123!")

	data, err := g.Status(ctx, token)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if data.Account.Username != "alice" {
		t.Errorf("Status() username = %q, want alice", data.Account.Username)
	}
	if data.Account.TwoFactorEnabled {
		t.Error("Status() should report 2FA disabled for a fresh account")
	}

	if err := g.Logout(ctx, token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := g.Status(ctx, token); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("Status() after logout error = %v, want ErrNoActiveSession", err)
	}

	// Logging out again must not fail.
	if err := g.Logout(ctx, token); err != nil {
		t.Errorf("second Logout() error = %v", err)
	}
}

func TestGatekeep_Status_RejectsGarbageToken(t *testing.T) {
	g := newTestGatekeep(t, NewFakeAuthStorage())

	for _, token := range []string{"", "not-a-token"} {
		if _, err := g.Status(context.Background(), token); !errors.Is(err, ErrNoActiveSession) {
			t.Errorf("Status(%q) error = %v, want ErrNoActiveSession", token, err)
		}
	}
}
