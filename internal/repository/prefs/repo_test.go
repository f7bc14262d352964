package prefs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glowmart/aisearch/internal/db"
	"github.com/glowmart/aisearch/internal/domain"
)

// --- Mocks ---

type memStore struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	delErr  error
	lastKey string
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.lastKey = key
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) Del(_ context.Context, key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.data, key)
	return nil
}

// --- Tests ---

func TestRoundTrip(t *testing.T) {
	store := newMemStore()
	repo := New(store, "aisearch:")

	p := NewSession(time.Now())
	p = p.Merge(domain.PreferenceUpdate{AddCategory: "dresses", RecordSearch: "blue dress"}, time.Now())
	if err := repo.Put(context.Background(), p); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := repo.Get(context.Background(), p.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SessionID != p.SessionID {
		t.Errorf("expected session %s, got %s", p.SessionID, got.SessionID)
	}
	if len(got.FavoriteCategories) != 1 || got.FavoriteCategories[0] != "dresses" {
		t.Errorf("unexpected categories: %v", got.FavoriteCategories)
	}
	if len(got.RecentSearches) != 1 || got.RecentSearches[0] != "blue dress" {
		t.Errorf("unexpected searches: %v", got.RecentSearches)
	}
}

func TestKeyNamespacing(t *testing.T) {
	store := newMemStore()
	repo := New(store, "aisearch:")

	_, _ = repo.Get(context.Background(), "sess-1")
	if store.lastKey != "aisearch:prefs:sess-1" {
		t.Errorf("unexpected key %q", store.lastKey)
	}
}

func TestPut_AppliesRetention(t *testing.T) {
	store := newMemStore()
	repo := New(store, "aisearch:")

	p := domain.Preferences{SessionID: "sess-1"}
	if err := repo.Put(context.Background(), p); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ttl := store.ttls["aisearch:prefs:sess-1"]; ttl != Retention {
		t.Errorf("expected retention %v, got %v", Retention, ttl)
	}
}

func TestGet_MissingReturnsFresh(t *testing.T) {
	repo := New(newMemStore(), "aisearch:")

	got, err := repo.Get(context.Background(), "sess-new")
	if err != nil {
		t.Fatalf("missing record must not error: %v", err)
	}
	if got.SessionID != "sess-new" {
		t.Errorf("fresh record keeps the session id, got %q", got.SessionID)
	}
	if len(got.FavoriteCategories) != 0 || len(got.RecentSearches) != 0 {
		t.Error("fresh record must be empty")
	}
}

func TestGet_CorruptRecordStartsOver(t *testing.T) {
	store := newMemStore()
	store.data["aisearch:prefs:sess-1"] = []byte("{not json")
	repo := New(store, "aisearch:")

	got, err := repo.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("corrupt record must not error: %v", err)
	}
	if got.SessionID != "sess-1" || len(got.RecentSearches) != 0 {
		t.Errorf("expected a fresh record, got %+v", got)
	}
}

func TestGet_StorageFailure(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("connection refused")
	repo := New(store, "aisearch:")

	_, err := repo.Get(context.Background(), "sess-1")
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestReset(t *testing.T) {
	store := newMemStore()
	repo := New(store, "aisearch:")

	p := domain.Preferences{SessionID: "sess-1", RecentSearches: []string{"a"}}
	if err := repo.Put(context.Background(), p); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := repo.Reset(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	got, err := repo.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.RecentSearches) != 0 {
		t.Error("reset must clear the record")
	}
}

func TestNewSession_UniqueIDs(t *testing.T) {
	a := NewSession(time.Now())
	b := NewSession(time.Now())
	if a.SessionID == "" || a.SessionID == b.SessionID {
		t.Errorf("expected distinct session ids, got %q and %q", a.SessionID, b.SessionID)
	}
}
