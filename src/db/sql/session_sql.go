package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSessionNotFound = errors.New("session not found")

// GetSession returns the stored state of a live session.
func GetSession(ctx context.Context, pool *pgxpool.Pool, id string) ([]byte, error) {
	query := `SELECT data FROM sessions WHERE id = $1 AND expires_at > NOW()`
	var data []byte
	err := pool.QueryRow(ctx, query, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func SaveSession(ctx context.Context, pool *pgxpool.Pool, id string, data []byte, expiresAt time.Time) error {
	query := `
		INSERT INTO sessions (id, data, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			data = $2,
			expires_at = $3
	`
	_, err := pool.Exec(ctx, query, id, data, expiresAt)
	return err
}

func DeleteSession(ctx context.Context, pool *pgxpool.Pool, id string) error {
	query := `DELETE FROM sessions WHERE id = $1`
	_, err := pool.Exec(ctx, query, id)
	return err
}

// DeleteExpiredSessions removes dead rows and returns how many were removed.
func DeleteExpiredSessions(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at <= NOW()`
	tag, err := pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
