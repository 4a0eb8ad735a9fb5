package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Setup2FA generates a fresh TOTP secret for the session's account and
// returns the enrollment material. Every call replaces the previous secret
// and drops the enabled flag; the account stays password-verified until the
// first code is confirmed through Verify2FA.
func (g *Gatekeep) Setup2FA(ctx context.Context, token string) (*TwoFactorEnrollment, error) {
	data, err := g.Status(ctx, token)
	if err != nil {
		return nil, err
	}

	enrollment, err := g.TOTP.GenerateEnrollment(data.Account.Username)
	if err != nil {
		return nil, err
	}

	if err := g.Database.SetTwoFactorSecret(ctx, data.Account.Username, enrollment.Secret); err != nil {
		return nil, fmt.Errorf("failed to store two-factor secret: %w", err)
	}

	g.Logger.InfoContext(ctx, "two-factor setup started", "username", data.Account.Username)

	return enrollment, nil
}

// Verify2FA validates a submitted one-time code and, on success, issues the
// bearer token that marks the session fully authenticated. The first
// successful verification against a new secret enables 2FA for the account.
func (g *Gatekeep) Verify2FA(ctx context.Context, token, code string) (string, error) {
	data, err := g.Status(ctx, token)
	if err != nil {
		return "", err
	}
	account := data.Account

	if account.TwoFactorSecret == "" {
		return "", ErrTwoFactorNotConfigured
	}

	now := time.Now()
	ok, counter := g.TOTP.VerifyCode(account.TwoFactorSecret, code, now)
	if !ok {
		g.Logger.InfoContext(ctx, "two-factor code rejected", "username", account.Username)
		return "", ErrInvalidTwoFactorCode
	}

	// A counter at or below the last accepted one is a replay.
	if counter <= account.TwoFactorCounter {
		return "", ErrInvalidTwoFactorCode
	}

	// The conditional write is the arbiter: two verifications racing on the
	// same code both pass the check above, but only one advances the counter.
	if err := g.Database.SetTwoFactorCounter(ctx, account.Username, counter); err != nil {
		if errors.Is(err, ErrInvalidTwoFactorCode) {
			return "", ErrInvalidTwoFactorCode
		}
		return "", fmt.Errorf("failed to record two-factor counter: %w", err)
	}

	if !account.TwoFactorEnabled {
		if err := g.Database.SetTwoFactorEnabled(ctx, account.Username, true); err != nil {
			return "", fmt.Errorf("failed to enable two-factor: %w", err)
		}
		g.Logger.InfoContext(ctx, "two-factor enabled", "username", account.Username)
	}

	bearer, err := g.Tokens.Issue(account.Username, now)
	if err != nil {
		return "", fmt.Errorf("failed to issue bearer token: %w", err)
	}

	return bearer, nil
}

// Reset2FA disables two-factor authentication and discards the secret. The
// session survives; the account must re-run setup and verify to re-enable.
func (g *Gatekeep) Reset2FA(ctx context.Context, token string) error {
	data, err := g.Status(ctx, token)
	if err != nil {
		return err
	}

	if err := g.Database.SetTwoFactorEnabled(ctx, data.Account.Username, false); err != nil {
		return fmt.Errorf("failed to reset two-factor: %w", err)
	}

	g.Logger.InfoContext(ctx, "two-factor reset", "username", data.Account.Username)

	return nil
}
