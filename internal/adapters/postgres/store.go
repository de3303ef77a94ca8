package postgres

import (
    "context"
    "encoding/json"
    "errors"
    "strconv"
    "time"

    "github.com/google/uuid"
    "github.com/jackc/pgx/v5"

    "rankypulse/internal/domain"
    "rankypulse/internal/ports"
)

func userOrAnon(userID string) string {
    if userID == "" {
        return "anon"
    }
    return userID
}

// AuditStore

func (db *DB) Save(ctx context.Context, p ports.SaveParams) (string, time.Time, error) {
    if p.URL == "" || p.Result == nil {
        return "", time.Time{}, ports.ErrInvalidInput
    }
    payload, err := json.Marshal(p.Result)
    if err != nil {
        return "", time.Time{}, err
    }
    id := uuid.NewString()
    var createdAt time.Time
    err = db.Pool.QueryRow(ctx, `
        INSERT INTO audits (id, user_id, url, label, result)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at
    `, id, userOrAnon(p.UserID), p.URL, p.Label, payload).Scan(&createdAt)
    if err != nil {
        return "", time.Time{}, err
    }
    return id, createdAt, nil
}

func (db *DB) Get(ctx context.Context, userID, id string) (domain.AuditRecord, error) {
    var rec domain.AuditRecord
    var payload []byte
    err := db.Pool.QueryRow(ctx, `
        SELECT id, user_id, url, label, created_at, result
        FROM audits
        WHERE user_id = $1 AND id = $2
    `, userOrAnon(userID), id).Scan(&rec.ID, &rec.UserID, &rec.URL, &rec.Label, &rec.CreatedAt, &payload)
    if errors.Is(err, pgx.ErrNoRows) {
        return domain.AuditRecord{}, ports.ErrNotFound
    }
    if err != nil {
        return domain.AuditRecord{}, err
    }
    if err := json.Unmarshal(payload, &rec.Result); err != nil {
        return domain.AuditRecord{}, err
    }
    return rec, nil
}

func (db *DB) List(ctx context.Context, p ports.ListParams) ([]domain.AuditSummary, error) {
    limit := p.Limit
    if limit <= 0 {
        limit = 50
    }
    if limit > 200 {
        limit = 200
    }

    query := `
        SELECT id, created_at, url, label, COALESCE((result->>'score')::int, 0)
        FROM audits
        WHERE user_id = $1
    `
    args := []any{userOrAnon(p.UserID)}
    if p.URL != "" {
        query += ` AND url = $2`
        args = append(args, p.URL)
    }
    query += ` ORDER BY created_at DESC LIMIT ` + strconv.Itoa(limit)

    rows, err := db.Pool.Query(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    out := make([]domain.AuditSummary, 0, limit)
    for rows.Next() {
        var s domain.AuditSummary
        if err := rows.Scan(&s.ID, &s.CreatedAt, &s.URL, &s.Label, &s.Score); err != nil {
            return nil, err
        }
        out = append(out, s)
    }
    return out, rows.Err()
}

func (db *DB) Compare(ctx context.Context, userID, beforeID, afterID string) (domain.AuditComparison, error) {
    before, err := db.Get(ctx, userID, beforeID)
    if err != nil {
        return domain.AuditComparison{}, err
    }
    after, err := db.Get(ctx, userID, afterID)
    if err != nil {
        return domain.AuditComparison{}, err
    }
    return domain.Compare(before, after), nil
}
