package memory

import (
    "context"
    "sync"
    "time"

    "github.com/google/uuid"

    "rankypulse/internal/domain"
    "rankypulse/internal/ports"
)

// maxRecords caps the in-process history, newest kept.
const maxRecords = 500

// Store is an in-memory AuditStore for DB-less runs and tests. Same
// semantics as the postgres adapter: insert-only, user-scoped,
// newest-first listing.
type Store struct {
    mu    sync.RWMutex
    items []domain.AuditRecord // newest first
    now   func() time.Time
}

func New() *Store {
    return &Store{now: func() time.Time { return time.Now().UTC() }}
}

func userOrAnon(userID string) string {
    if userID == "" {
        return "anon"
    }
    return userID
}

func (s *Store) Save(_ context.Context, p ports.SaveParams) (string, time.Time, error) {
    if p.URL == "" || p.Result == nil {
        return "", time.Time{}, ports.ErrInvalidInput
    }
    rec := domain.AuditRecord{
        ID:        uuid.NewString(),
        UserID:    userOrAnon(p.UserID),
        URL:       p.URL,
        Label:     p.Label,
        CreatedAt: s.now(),
        Result:    *p.Result,
    }

    s.mu.Lock()
    defer s.mu.Unlock()
    s.items = append([]domain.AuditRecord{rec}, s.items...)
    if len(s.items) > maxRecords {
        s.items = s.items[:maxRecords]
    }
    return rec.ID, rec.CreatedAt, nil
}

func (s *Store) Get(_ context.Context, userID, id string) (domain.AuditRecord, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    return s.find(userOrAnon(userID), id)
}

func (s *Store) find(userID, id string) (domain.AuditRecord, error) {
    for _, rec := range s.items {
        if rec.UserID == userID && rec.ID == id {
            return rec, nil
        }
    }
    return domain.AuditRecord{}, ports.ErrNotFound
}

func (s *Store) List(_ context.Context, p ports.ListParams) ([]domain.AuditSummary, error) {
    limit := p.Limit
    if limit <= 0 {
        limit = 50
    }
    if limit > 200 {
        limit = 200
    }
    userID := userOrAnon(p.UserID)

    s.mu.RLock()
    defer s.mu.RUnlock()
    out := make([]domain.AuditSummary, 0, limit)
    for _, rec := range s.items {
        if rec.UserID != userID {
            continue
        }
        if p.URL != "" && rec.URL != p.URL {
            continue
        }
        out = append(out, domain.AuditSummary{
            ID:        rec.ID,
            CreatedAt: rec.CreatedAt,
            URL:       rec.URL,
            Label:     rec.Label,
            Score:     rec.Result.Score,
        })
        if len(out) == limit {
            break
        }
    }
    return out, nil
}

func (s *Store) Compare(_ context.Context, userID, beforeID, afterID string) (domain.AuditComparison, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    u := userOrAnon(userID)
    before, err := s.find(u, beforeID)
    if err != nil {
        return domain.AuditComparison{}, err
    }
    after, err := s.find(u, afterID)
    if err != nil {
        return domain.AuditComparison{}, err
    }
    return domain.Compare(before, after), nil
}
