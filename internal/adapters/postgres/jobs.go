package postgres

import (
    "context"
    "errors"
    "time"

    "github.com/google/uuid"
    "github.com/jackc/pgx/v5"

    "rankypulse/internal/ports"
)

// AuditJobs implementation. Jobs are claimed with SKIP LOCKED so multiple
// worker processes can share one queue without double-claiming.

func (db *DB) EnqueueRequest(ctx context.Context, userID, url string, label *string) (string, error) {
    if url == "" {
        return "", ports.ErrInvalidInput
    }
    tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
    if err != nil {
        return "", err
    }
    defer func() {
        if err != nil {
            _ = tx.Rollback(ctx)
        } else {
            _ = tx.Commit(ctx)
        }
    }()

    requestID := uuid.NewString()
    if _, err = tx.Exec(ctx, `
        INSERT INTO audit_requests (id, user_id, url, label)
        VALUES ($1, $2, $3, $4)
    `, requestID, userOrAnon(userID), url, label); err != nil {
        return "", err
    }
    if _, err = tx.Exec(ctx, `INSERT INTO audit_jobs (id, request_id) VALUES ($1, $2)`, uuid.NewString(), requestID); err != nil {
        return "", err
    }
    return requestID, nil
}

// ClaimNext locks the next queued job, marks it running, and returns the
// request it carries.
func (db *DB) ClaimNext(ctx context.Context) (job ports.AuditJob, found bool, err error) {
    tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
    if err != nil {
        return job, false, err
    }
    defer func() {
        if err != nil {
            _ = tx.Rollback(ctx)
        } else {
            _ = tx.Commit(ctx)
        }
    }()

    err = tx.QueryRow(ctx, `
        SELECT j.id, j.request_id, r.user_id, r.url, r.label
        FROM audit_jobs j
        JOIN audit_requests r ON r.id = j.request_id
        WHERE j.status = 'queued'
        ORDER BY j.queued_at
        FOR UPDATE OF j SKIP LOCKED
        LIMIT 1
    `).Scan(&job.ID, &job.RequestID, &job.UserID, &job.URL, &job.Label)
    if errors.Is(err, pgx.ErrNoRows) {
        err = nil
        return job, false, nil
    }
    if err != nil {
        return job, false, err
    }

    if _, err = tx.Exec(ctx, `
        UPDATE audit_jobs SET status='running', started_at=now(), attempts=attempts+1 WHERE id=$1
    `, job.ID); err != nil {
        return job, false, err
    }
    if _, err = tx.Exec(ctx, `
        UPDATE audit_requests SET status='running', started_at=COALESCE(started_at, now()) WHERE id=$1
    `, job.RequestID); err != nil {
        return job, false, err
    }
    return job, true, nil
}

func (db *DB) MarkCompleted(ctx context.Context, jobID, auditID string) error {
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
    if err != nil {
        return err
    }
    defer func() {
        if err != nil {
            _ = tx.Rollback(ctx)
        } else {
            _ = tx.Commit(ctx)
        }
    }()

    var requestID string
    if err = tx.QueryRow(ctx, `SELECT request_id FROM audit_jobs WHERE id=$1`, jobID).Scan(&requestID); err != nil {
        return err
    }
    if _, err = tx.Exec(ctx, `UPDATE audit_jobs SET status='completed', finished_at=now() WHERE id=$1`, jobID); err != nil {
        return err
    }
    if _, err = tx.Exec(ctx, `
        UPDATE audit_requests SET status='completed', audit_id=$2, finished_at=now() WHERE id=$1
    `, requestID, auditID); err != nil {
        return err
    }
    return nil
}

func (db *DB) MarkFailed(ctx context.Context, jobID, reason string) error {
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
    if err != nil {
        return err
    }
    defer func() {
        if err != nil {
            _ = tx.Rollback(ctx)
        } else {
            _ = tx.Commit(ctx)
        }
    }()

    var requestID string
    if err = tx.QueryRow(ctx, `SELECT request_id FROM audit_jobs WHERE id=$1`, jobID).Scan(&requestID); err != nil {
        return err
    }
    if _, err = tx.Exec(ctx, `UPDATE audit_jobs SET status='failed', reason=$2, finished_at=now() WHERE id=$1`, jobID, reason); err != nil {
        return err
    }
    if _, err = tx.Exec(ctx, `UPDATE audit_requests SET status='failed', error=$2, finished_at=now() WHERE id=$1`, requestID, reason); err != nil {
        return err
    }
    return nil
}

// StartJobForRequest claims the queued job of a specific request for the
// synchronous processing path.
func (db *DB) StartJobForRequest(ctx context.Context, requestID string) (job ports.AuditJob, err error) {
    tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
    if err != nil {
        return job, err
    }
    defer func() {
        if err != nil {
            _ = tx.Rollback(ctx)
        } else {
            _ = tx.Commit(ctx)
        }
    }()

    err = tx.QueryRow(ctx, `
        SELECT j.id, j.request_id, r.user_id, r.url, r.label
        FROM audit_jobs j
        JOIN audit_requests r ON r.id = j.request_id
        WHERE j.request_id = $1 AND j.status = 'queued'
        FOR UPDATE OF j SKIP LOCKED
    `, requestID).Scan(&job.ID, &job.RequestID, &job.UserID, &job.URL, &job.Label)
    if errors.Is(err, pgx.ErrNoRows) {
        err = ports.ErrNotFound
        return job, err
    }
    if err != nil {
        return job, err
    }
    if _, err = tx.Exec(ctx, `
        UPDATE audit_jobs SET status='running', started_at=now(), attempts=attempts+1 WHERE id=$1
    `, job.ID); err != nil {
        return job, err
    }
    if _, err = tx.Exec(ctx, `
        UPDATE audit_requests SET status='running', started_at=COALESCE(started_at, now()) WHERE id=$1
    `, job.RequestID); err != nil {
        return job, err
    }
    return job, nil
}

func (db *DB) RequestStatus(ctx context.Context, requestID string) (string, *string, error) {
    var status string
    var auditID *string
    err := db.Pool.QueryRow(ctx, `
        SELECT status, audit_id FROM audit_requests WHERE id = $1
    `, requestID).Scan(&status, &auditID)
    if errors.Is(err, pgx.ErrNoRows) {
        return "", nil, ports.ErrNotFound
    }
    return status, auditID, err
}
