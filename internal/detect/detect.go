package detect

import (
    "context"
    "fmt"

    "github.com/rs/zerolog"

    "rankypulse/internal/domain"
    "rankypulse/internal/fetch"
)

// Context is the shared, read-only input every detector receives: the
// fetched page, its parsed structure, and a fetcher for follow-up requests
// (redirect targets, robots.txt). Detectors must not mutate it.
type Context struct {
    URL     string
    Result  *fetch.Result
    Page    *Page
    Fetcher *fetch.Client
    Retry   fetch.RetryOptions
}

// NewContext parses the fetched body and assembles the detector input.
func NewContext(url string, res *fetch.Result, fetcher *fetch.Client, retry fetch.RetryOptions) *Context {
    return &Context{
        URL:     url,
        Result:  res,
        Page:    ParsePage(res.Body),
        Fetcher: fetcher,
        Retry:   retry,
    }
}

// Detector is a unit of audit logic. Run emits zero or more issues with
// stable issue ids: identical input yields identical issues.
type Detector interface {
    ID() string
    Run(ctx context.Context, pc *Context) ([]domain.Issue, error)
}

// Diagnostic records a detector failure. Diagnostics are developer-facing
// only; they never surface as issues and never fail the audit.
type Diagnostic struct {
    Detector string
    Err      error
}

// Runner executes an explicitly registered detector set. Registration
// order is execution order, which makes issue ordering deterministic.
type Runner struct {
    detectors []Detector
    log       zerolog.Logger
}

func NewRunner(log zerolog.Logger, detectors ...Detector) *Runner {
    return &Runner{detectors: detectors, log: log}
}

// RunAll runs every registered detector against the same context and
// concatenates their issues. A failing detector (error or panic) becomes a
// diagnostic and the rest still run; an audit with partial detector
// coverage is a valid result.
func (r *Runner) RunAll(ctx context.Context, pc *Context) ([]domain.Issue, []Diagnostic) {
    var issues []domain.Issue
    var diags []Diagnostic
    for _, d := range r.detectors {
        found, err := runOne(ctx, d, pc)
        if err != nil {
            diags = append(diags, Diagnostic{Detector: d.ID(), Err: err})
            r.log.Warn().Str("detector", d.ID()).Err(err).Msg("detector failed, continuing")
            continue
        }
        issues = append(issues, found...)
    }
    return issues, diags
}

func runOne(ctx context.Context, d Detector, pc *Context) (issues []domain.Issue, err error) {
    defer func() {
        if v := recover(); v != nil {
            issues = nil
            err = fmt.Errorf("panic: %v", v)
        }
    }()
    return d.Run(ctx, pc)
}

// Default returns the standard detector set in its canonical order.
func Default() []Detector {
    return []Detector{
        metaTitle{},
        metaDescription{},
        headings{},
        httpStatus{},
        redirectHygiene{maxHops: 5},
    }
}
