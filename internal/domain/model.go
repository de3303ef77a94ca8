package domain

import "time"

// Core domain models used internally. The HTTP adapter maps these onto the
// wire envelopes; keep these decoupled where helpful.

// Priority buckets issues by how urgently a fix moves the score.
type Priority string

const (
    FixNow   Priority = "fix_now"
    FixNext  Priority = "fix_next"
    FixLater Priority = "fix_later"
)

// NormalizePriority maps unknown or absent values into the closed set.
// Anything unrecognized defaults to fix_next.
func NormalizePriority(p string) Priority {
    switch Priority(p) {
    case FixNow, FixNext, FixLater:
        return Priority(p)
    }
    return FixNext
}

// Issue is a single finding emitted by a detector. IssueID is stable across
// runs for the same logical problem; it is the only key used when diffing
// two audits of the same subject.
type Issue struct {
    IssueID  string         `json:"issue_id"`
    Title    string         `json:"title"`
    Priority Priority       `json:"priority"`
    Evidence map[string]any `json:"evidence,omitempty"`
    Detector string         `json:"detector,omitempty"`
    Why      string         `json:"why,omitempty"`
    Fix      string         `json:"fix,omitempty"`
}

// PreviewItem is one ranked entry of a ScoreDeltaPreview.
type PreviewItem struct {
    IssueID   string   `json:"issue_id"`
    Label     string   `json:"label"`
    Priority  Priority `json:"priority"`
    ImpactMin float64  `json:"impact_min"`
    ImpactMax float64  `json:"impact_max"`
}

// ScoreDeltaPreview is the "fix these first" projection: a ranked subset of
// issues with the achievable score gain. Derived on demand, never stored.
type ScoreDeltaPreview struct {
    Headline  string        `json:"headline"`
    TargetMin float64       `json:"target_min"`
    TargetMax float64       `json:"target_max"`
    TotalMin  float64       `json:"total_min"`
    TotalMax  float64       `json:"total_max"`
    Items     []PreviewItem `json:"items"`
}

// AuditResult is the JSON-representable payload of one audit run.
type AuditResult struct {
    URL      string            `json:"url"`
    FinalURL string            `json:"final_url,omitempty"`
    Status   int               `json:"status,omitempty"`
    Score    int               `json:"score"`
    Issues   []Issue           `json:"issues"`
    Preview  ScoreDeltaPreview `json:"score_delta_preview"`
}

// AuditRecord is an immutable point-in-time snapshot of one audit run for
// one subject URL. Corrections require a new record, never an update.
type AuditRecord struct {
    ID        string      `json:"id"`
    UserID    string      `json:"user_id"`
    URL       string      `json:"url"`
    Label     *string     `json:"label"`
    CreatedAt time.Time   `json:"created_at"`
    Result    AuditResult `json:"result"`
}

// AuditSummary is the listing shape: record metadata plus the score.
type AuditSummary struct {
    ID        string    `json:"id"`
    CreatedAt time.Time `json:"created_at"`
    URL       string    `json:"url"`
    Label     *string   `json:"label"`
    Score     int       `json:"score"`
}

// AuditComparison is the set-theoretic diff of two stored runs, keyed by
// issue id. Chronological order of the operands is not validated.
type AuditComparison struct {
    BeforeID   string   `json:"before_id"`
    AfterID    string   `json:"after_id"`
    ScoreDelta int      `json:"score_delta"`
    Resolved   []string `json:"resolved_issues"`
    Introduced []string `json:"introduced_issues"`
    Persisting []string `json:"persisting_issues"`
}
