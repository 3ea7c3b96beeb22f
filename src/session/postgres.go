package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	sessiondb "invoicepay-server/src/db/sql"
	"invoicepay-server/src/workflow"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps sessions in the sessions table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Load(ctx context.Context, id string) (*workflow.State, error) {
	data, err := sessiondb.GetSession(ctx, s.pool, id)
	if errors.Is(err, sessiondb.ErrSessionNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var st workflow.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *PostgresStore) Save(ctx context.Context, id string, st *workflow.State, ttl time.Duration) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return sessiondb.SaveSession(ctx, s.pool, id, data, time.Now().Add(ttl))
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	return sessiondb.DeleteSession(ctx, s.pool, id)
}

// Prune deletes expired sessions.
func (s *PostgresStore) Prune(ctx context.Context) (int64, error) {
	return sessiondb.DeleteExpiredSessions(ctx, s.pool)
}
