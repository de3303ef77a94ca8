package auditrunner

import (
    "context"
    "time"

    "github.com/rs/zerolog"

    "rankypulse/internal/ports"
    "rankypulse/internal/services/auditor"
)

// Processor performs the audit work for a claimed job and returns the
// persisted audit id.
type Processor interface {
    Process(ctx context.Context, job ports.AuditJob) (auditID string, err error)
}

// AuditProcessor runs the auditor service for a job, always persisting.
type AuditProcessor struct {
    Auditor *auditor.Service
}

func (p AuditProcessor) Process(ctx context.Context, job ports.AuditJob) (string, error) {
    out, err := p.Auditor.Run(ctx, auditor.RunParams{
        UserID:  job.UserID,
        URL:     job.URL,
        Label:   job.Label,
        Persist: true,
    })
    if err != nil {
        return "", err
    }
    return out.SavedID, nil
}

// Run starts worker goroutines that claim queued audit jobs and process
// them until ctx is cancelled.
func Run(ctx context.Context, jobs ports.AuditJobs, processor Processor, concurrency int, pollInterval time.Duration, log zerolog.Logger) {
    if concurrency < 1 {
        return
    }
    jobsCh := make(chan ports.AuditJob, concurrency)

    // dispatcher loop
    go func() {
        ticker := time.NewTicker(pollInterval)
        defer ticker.Stop()
        for {
            select {
            case <-ctx.Done():
                close(jobsCh)
                return
            case <-ticker.C:
                for {
                    job, found, err := jobs.ClaimNext(ctx)
                    if err != nil {
                        log.Error().Err(err).Msg("job claim error")
                        break
                    }
                    if !found {
                        break
                    }
                    jobsCh <- job
                }
            }
        }
    }()

    // workers
    for i := 0; i < concurrency; i++ {
        go func(idx int) {
            for job := range jobsCh {
                auditID, err := processor.Process(ctx, job)
                if err != nil {
                    _ = jobs.MarkFailed(ctx, job.ID, err.Error())
                    log.Warn().Int("worker", idx).Str("job", job.ID).Err(err).Msg("audit job failed")
                    continue
                }
                if err := jobs.MarkCompleted(ctx, job.ID, auditID); err != nil {
                    log.Error().Int("worker", idx).Str("job", job.ID).Err(err).Msg("complete error")
                }
            }
        }(i)
    }
}

// ProcessInline claims and processes the job for a specific request
// synchronously, using the same processor the background workers use.
func ProcessInline(ctx context.Context, jobs ports.AuditJobs, processor Processor, requestID string) (string, error) {
    job, err := jobs.StartJobForRequest(ctx, requestID)
    if err != nil {
        return "", err
    }
    auditID, err := processor.Process(ctx, job)
    if err != nil {
        _ = jobs.MarkFailed(ctx, job.ID, err.Error())
        return "", err
    }
    return auditID, jobs.MarkCompleted(ctx, job.ID, auditID)
}
