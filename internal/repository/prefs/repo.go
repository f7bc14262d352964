// Package prefs persists per-session user preferences in the key-value store.
package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/glowmart/aisearch/internal/db"
	"github.com/glowmart/aisearch/internal/domain"
)

// Retention bounds how long an idle session's preferences survive.
const Retention = 90 * 24 * time.Hour

// Repository reads and writes preference records. Failures surface as
// storage errors; callers on the search path treat them as absent
// personalization rather than request failures.
type Repository struct {
	store     db.KVStore
	keyPrefix string
}

// New creates a preference repository.
func New(store db.KVStore, keyPrefix string) *Repository {
	return &Repository{store: store, keyPrefix: keyPrefix + "prefs:"}
}

// NewSession creates a fresh preference record with a generated session id.
func NewSession(now time.Time) domain.Preferences {
	return domain.Preferences{SessionID: uuid.NewString(), UpdatedAt: now}
}

// Get loads preferences for a session. A missing record returns a fresh one
// for the same session rather than an error.
func (r *Repository) Get(ctx context.Context, sessionID string) (domain.Preferences, error) {
	data, err := r.store.Get(ctx, r.key(sessionID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Preferences{SessionID: sessionID}, nil
		}
		return domain.Preferences{}, domain.NewStorageError("PREFS_READ_FAILED", "read preferences", err)
	}

	var p domain.Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		// Corrupt record: start over for this session.
		return domain.Preferences{SessionID: sessionID}, nil
	}
	return p, nil
}

// Put stores the record with the retention TTL.
func (r *Repository) Put(ctx context.Context, p domain.Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return domain.NewStorageError("PREFS_ENCODE_FAILED", "encode preferences", err)
	}
	if err := r.store.SetWithTTL(ctx, r.key(p.SessionID), data, Retention); err != nil {
		return domain.NewStorageError("PREFS_WRITE_FAILED", "write preferences", err)
	}
	return nil
}

// Reset clears the stored record, keeping the session id alive for the caller.
func (r *Repository) Reset(ctx context.Context, sessionID string) error {
	if err := r.store.Del(ctx, r.key(sessionID)); err != nil {
		return domain.NewStorageError("PREFS_DELETE_FAILED", "delete preferences", err)
	}
	return nil
}

func (r *Repository) key(sessionID string) string { return r.keyPrefix + sessionID }
