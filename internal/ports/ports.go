package ports

import (
    "context"
    "time"

    "rankypulse/internal/domain"
)

// SaveParams is the input to AuditStore.Save. URL and Result are required.
type SaveParams struct {
    UserID string
    URL    string
    Label  *string
    Result *domain.AuditResult
}

// ListParams filters a listing. URL is an exact-match filter when set;
// Limit defaults to 50 and is clamped to [1, 200] by adapters.
type ListParams struct {
    UserID string
    URL    string
    Limit  int
}

// AuditStore persists immutable audit runs per user. Records are
// insert-only: every save creates a new record with a fresh id, and no
// operation crosses user boundaries.
type AuditStore interface {
    Save(ctx context.Context, p SaveParams) (id string, createdAt time.Time, err error)
    Get(ctx context.Context, userID, id string) (domain.AuditRecord, error)
    List(ctx context.Context, p ListParams) ([]domain.AuditSummary, error)
    Compare(ctx context.Context, userID, beforeID, afterID string) (domain.AuditComparison, error)
}

// AuditJob is one claimed unit of queued audit work.
type AuditJob struct {
    ID        string
    RequestID string
    UserID    string
    URL       string
    Label     *string
}

// AuditJobs supports queueing audit requests and claiming their jobs.
type AuditJobs interface {
    EnqueueRequest(ctx context.Context, userID, url string, label *string) (requestID string, err error)
    ClaimNext(ctx context.Context) (job AuditJob, found bool, err error)
    MarkCompleted(ctx context.Context, jobID, auditID string) error
    MarkFailed(ctx context.Context, jobID, reason string) error
    StartJobForRequest(ctx context.Context, requestID string) (job AuditJob, err error)
    RequestStatus(ctx context.Context, requestID string) (status string, auditID *string, err error)
}

var (
    ErrNotFound     = errString("not_found")
    ErrInvalidInput = errString("missing_url_or_result")
)

type errString string

func (e errString) Error() string { return string(e) }
