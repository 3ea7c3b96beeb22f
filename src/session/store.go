package session

import (
	"context"
	"errors"
	"time"

	"invoicepay-server/src/workflow"
)

var ErrNotFound = errors.New("session not found")

// Store keeps workflow state per session id until the session expires.
type Store interface {
	Load(ctx context.Context, id string) (*workflow.State, error)
	Save(ctx context.Context, id string, st *workflow.State, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
