package pgx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/smontero/gatekeep"
)

func (a *Adapter) CreateSession(ctx context.Context, session *gatekeep.Session) error {
	q := `INSERT INTO sessions (id, username, token_hash, expires_at, created_at, updated_at)
	      VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := a.pool.Exec(ctx, q,
		session.ID,
		session.Username,
		session.TokenHash,
		session.ExpiresAt,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func (a *Adapter) GetSessionByHash(ctx context.Context, tokenHash string) (*gatekeep.Session, error) {
	q := `SELECT id, username, token_hash, expires_at, created_at, updated_at
	      FROM sessions WHERE token_hash = $1`

	session := &gatekeep.Session{}
	err := a.pool.QueryRow(ctx, q, tokenHash).Scan(
		&session.ID,
		&session.Username,
		&session.TokenHash,
		&session.ExpiresAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, gatekeep.ErrNoActiveSession
		}
		return nil, storeErr(err)
	}
	return session, nil
}

func (a *Adapter) DeleteSessionByID(ctx context.Context, id string) error {
	if _, err := a.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return storeErr(err)
	}
	return nil
}

func (a *Adapter) DeleteSessionByHash(ctx context.Context, tokenHash string) error {
	if _, err := a.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash); err != nil {
		return storeErr(err)
	}
	return nil
}

func (a *Adapter) DeleteExpiredSessions(ctx context.Context) (int, error) {
	tag, err := a.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, storeErr(err)
	}
	return int(tag.RowsAffected()), nil
}
