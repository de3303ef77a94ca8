package detect

import (
    "context"
    "unicode/utf8"

    "rankypulse/internal/domain"
)

const (
    maxTitleLen       = 60
    maxDescriptionLen = 160
)

// metaTitle flags a missing or over-long <title>.
type metaTitle struct{}

func (metaTitle) ID() string { return "meta_title" }

func (metaTitle) Run(_ context.Context, pc *Context) ([]domain.Issue, error) {
    title := pc.Page.Title
    if title == "" {
        return []domain.Issue{mkIssue("meta_title", "missing_title", map[string]any{
            "final_url": pc.Result.FinalURL,
            "status":    pc.Result.StatusCode,
        })}, nil
    }
    if n := utf8.RuneCountInString(title); n > maxTitleLen {
        return []domain.Issue{mkIssue("meta_title", "title_too_long", map[string]any{
            "title":     title,
            "title_len": n,
            "final_url": pc.Result.FinalURL,
        })}, nil
    }
    return nil, nil
}

// metaDescription flags a missing or over-long meta description.
type metaDescription struct{}

func (metaDescription) ID() string { return "meta_description" }

func (metaDescription) Run(_ context.Context, pc *Context) ([]domain.Issue, error) {
    desc := pc.Page.MetaDescription
    if desc == "" {
        return []domain.Issue{mkIssue("meta_description", "missing_meta_description", map[string]any{
            "final_url": pc.Result.FinalURL,
            "status":    pc.Result.StatusCode,
        })}, nil
    }
    if n := utf8.RuneCountInString(desc); n > maxDescriptionLen {
        return []domain.Issue{mkIssue("meta_description", "description_too_long", map[string]any{
            "description_len": n,
            "final_url":       pc.Result.FinalURL,
        })}, nil
    }
    return nil, nil
}

// headings checks for exactly one H1.
type headings struct{}

func (headings) ID() string { return "headings" }

func (headings) Run(_ context.Context, pc *Context) ([]domain.Issue, error) {
    switch n := len(pc.Page.H1s); {
    case n == 0:
        return []domain.Issue{mkIssue("headings", "missing_h1", map[string]any{
            "final_url": pc.Result.FinalURL,
        })}, nil
    case n > 1:
        return []domain.Issue{mkIssue("headings", "multiple_h1", map[string]any{
            "h1_count": n,
            "h1s":      pc.Page.H1s,
        })}, nil
    }
    return nil, nil
}

// httpStatus flags audits whose final response was an error status.
type httpStatus struct{}

func (httpStatus) ID() string { return "http_status" }

func (httpStatus) Run(_ context.Context, pc *Context) ([]domain.Issue, error) {
    if pc.Result.StatusCode < 400 {
        return nil, nil
    }
    return []domain.Issue{mkIssue("http_status", "http_status_error", map[string]any{
        "status":    pc.Result.StatusCode,
        "final_url": pc.Result.FinalURL,
    })}, nil
}
