package auditor

import (
    "context"
    "net/url"
    "time"

    "github.com/rs/zerolog"
    "golang.org/x/net/publicsuffix"

    "rankypulse/internal/detect"
    "rankypulse/internal/domain"
    "rankypulse/internal/fetch"
    "rankypulse/internal/ports"
    "rankypulse/internal/score"
)

// Service runs one audit end to end: fetch, detect, score, and optionally
// persist. Persistence is an explicit per-run choice, never a side effect.
type Service struct {
    fetcher *fetch.Client
    runner  *detect.Runner
    store   ports.AuditStore
    retry   fetch.RetryOptions
    log     zerolog.Logger
}

func New(fetcher *fetch.Client, runner *detect.Runner, store ports.AuditStore, retry fetch.RetryOptions, log zerolog.Logger) *Service {
    return &Service{fetcher: fetcher, runner: runner, store: store, retry: retry, log: log}
}

type RunParams struct {
    UserID  string
    URL     string
    Label   *string
    Persist bool
}

type RunOutput struct {
    Result      domain.AuditResult
    SavedID     string
    SavedAt     time.Time
    Diagnostics []detect.Diagnostic
}

// Run performs the audit. A fetch failure short-circuits and surfaces the
// typed fetch error; detector failures become diagnostics and the audit
// proceeds with the issues the remaining detectors produced. Store errors
// on persist are returned to the caller, who decides whether to swallow
// them.
func (s *Service) Run(ctx context.Context, p RunParams) (*RunOutput, error) {
    if p.URL == "" {
        return nil, ports.ErrInvalidInput
    }

    res, err := s.fetcher.Fetch(ctx, p.URL, fetch.RequestOptions{}, s.retry)
    if err != nil {
        return nil, err
    }

    pc := detect.NewContext(p.URL, res, s.fetcher, s.retry)
    issues, diags := s.runner.RunAll(ctx, pc)

    result := domain.AuditResult{
        URL:      p.URL,
        FinalURL: res.FinalURL,
        Status:   res.StatusCode,
        Score:    score.Overall(issues),
        Issues:   issues,
        Preview:  score.BuildPreview(issues, score.Options{}),
    }

    out := &RunOutput{Result: result, Diagnostics: diags}
    if !p.Persist {
        return out, nil
    }

    label := p.Label
    if label == nil {
        if reg := registrable(p.URL); reg != "" {
            label = &reg
        }
    }
    id, createdAt, err := s.store.Save(ctx, ports.SaveParams{
        UserID: p.UserID,
        URL:    p.URL,
        Label:  label,
        Result: &result,
    })
    if err != nil {
        return out, err
    }
    out.SavedID = id
    out.SavedAt = createdAt
    s.log.Info().Str("audit_id", id).Str("url", p.URL).Int("score", result.Score).Msg("audit saved")
    return out, nil
}

// registrable reduces a URL to its eTLD+1, falling back to the bare host.
func registrable(rawurl string) string {
    u, err := url.Parse(rawurl)
    if err != nil {
        return ""
    }
    host := u.Hostname()
    reg, err := publicsuffix.EffectiveTLDPlusOne(host)
    if err != nil {
        return host
    }
    return reg
}
