package pgx

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/smontero/gatekeep"
)

const uniqueViolation = "23505"

func (a *Adapter) CreateAccount(ctx context.Context, account *gatekeep.Account) error {
	query := `INSERT INTO accounts (id, username, password_hash, two_factor_secret, two_factor_enabled, two_factor_counter)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at, updated_at`

	var createdAt, updatedAt time.Time
	err := a.pool.QueryRow(ctx, query,
		account.ID,
		account.Username,
		account.PasswordHash,
		account.TwoFactorSecret,
		account.TwoFactorEnabled,
		account.TwoFactorCounter,
	).Scan(&createdAt, &updatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return gatekeep.ErrDuplicateUsername
		}
		return storeErr(err)
	}

	account.CreatedAt = createdAt
	account.UpdatedAt = updatedAt
	return nil
}

func (a *Adapter) GetAccountByUsername(ctx context.Context, username string) (*gatekeep.Account, error) {
	q := `SELECT id, username, password_hash, two_factor_secret, two_factor_enabled, two_factor_counter, created_at, updated_at
	      FROM accounts WHERE username = $1`

	account := &gatekeep.Account{}
	err := a.pool.QueryRow(ctx, q, username).Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.TwoFactorSecret,
		&account.TwoFactorEnabled,
		&account.TwoFactorCounter,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, gatekeep.ErrAccountNotFound
		}
		return nil, storeErr(err)
	}
	return account, nil
}

// SetTwoFactorSecret replaces the secret in a single statement, discarding
// the old value and dropping the enabled flag and counter with it.
func (a *Adapter) SetTwoFactorSecret(ctx context.Context, username, secret string) error {
	q := `UPDATE accounts
	      SET two_factor_secret = $1, two_factor_enabled = false, two_factor_counter = 0, updated_at = now()
	      WHERE username = $2`

	tag, err := a.pool.Exec(ctx, q, secret, username)
	if err != nil {
		return storeErr(err)
	}
	if tag.RowsAffected() == 0 {
		return gatekeep.ErrAccountNotFound
	}
	return nil
}

func (a *Adapter) SetTwoFactorEnabled(ctx context.Context, username string, enabled bool) error {
	if enabled {
		// Enabling requires a stored secret; the WHERE clause enforces
		// the invariant inside the same statement.
		q := `UPDATE accounts
		      SET two_factor_enabled = true, updated_at = now()
		      WHERE username = $1 AND two_factor_secret <> ''`

		tag, err := a.pool.Exec(ctx, q, username)
		if err != nil {
			return storeErr(err)
		}
		if tag.RowsAffected() == 0 {
			return gatekeep.ErrTwoFactorNotConfigured
		}
		return nil
	}

	q := `UPDATE accounts
	      SET two_factor_enabled = false, two_factor_secret = '', two_factor_counter = 0, updated_at = now()
	      WHERE username = $1`

	tag, err := a.pool.Exec(ctx, q, username)
	if err != nil {
		return storeErr(err)
	}
	if tag.RowsAffected() == 0 {
		return gatekeep.ErrAccountNotFound
	}
	return nil
}

// SetTwoFactorCounter advances the last accepted counter. The WHERE clause
// makes the write the arbiter under concurrency: of two verifications racing
// on the same code, only one can move the counter forward.
func (a *Adapter) SetTwoFactorCounter(ctx context.Context, username string, counter int64) error {
	q := `UPDATE accounts SET two_factor_counter = $1, updated_at = now()
	      WHERE username = $2 AND two_factor_counter < $1`

	tag, err := a.pool.Exec(ctx, q, counter, username)
	if err != nil {
		return storeErr(err)
	}
	if tag.RowsAffected() == 0 {
		return gatekeep.ErrInvalidTwoFactorCode
	}
	return nil
}
