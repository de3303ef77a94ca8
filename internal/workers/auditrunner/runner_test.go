package auditrunner

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "rankypulse/internal/ports"
)

type fakeJobs struct {
    mu        sync.Mutex
    queued    []ports.AuditJob
    completed map[string]string // job id -> audit id
    failed    map[string]string // job id -> reason
}

func newFakeJobs() *fakeJobs {
    return &fakeJobs{completed: make(map[string]string), failed: make(map[string]string)}
}

func (f *fakeJobs) EnqueueRequest(_ context.Context, userID, url string, label *string) (string, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    requestID := uuid.NewString()
    f.queued = append(f.queued, ports.AuditJob{
        ID:        uuid.NewString(),
        RequestID: requestID,
        UserID:    userID,
        URL:       url,
        Label:     label,
    })
    return requestID, nil
}

func (f *fakeJobs) ClaimNext(context.Context) (ports.AuditJob, bool, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if len(f.queued) == 0 {
        return ports.AuditJob{}, false, nil
    }
    job := f.queued[0]
    f.queued = f.queued[1:]
    return job, true, nil
}

func (f *fakeJobs) MarkCompleted(_ context.Context, jobID, auditID string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.completed[jobID] = auditID
    return nil
}

func (f *fakeJobs) MarkFailed(_ context.Context, jobID, reason string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.failed[jobID] = reason
    return nil
}

func (f *fakeJobs) StartJobForRequest(_ context.Context, requestID string) (ports.AuditJob, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    for i, job := range f.queued {
        if job.RequestID == requestID {
            f.queued = append(f.queued[:i], f.queued[i+1:]...)
            return job, nil
        }
    }
    return ports.AuditJob{}, ports.ErrNotFound
}

func (f *fakeJobs) RequestStatus(context.Context, string) (string, *string, error) {
    return "", nil, ports.ErrNotFound
}

type fakeProcessor struct {
    mu      sync.Mutex
    failURL string
    seen    []string
}

func (p *fakeProcessor) Process(_ context.Context, job ports.AuditJob) (string, error) {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.seen = append(p.seen, job.URL)
    if job.URL == p.failURL {
        return "", errors.New("fetch blew up")
    }
    return "audit-" + job.RequestID, nil
}

func (f *fakeJobs) counts() (completed, failed int) {
    f.mu.Lock()
    defer f.mu.Unlock()
    return len(f.completed), len(f.failed)
}

func TestRunProcessesQueuedJobs(t *testing.T) {
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    jobs := newFakeJobs()
    _, err := jobs.EnqueueRequest(ctx, "u1", "https://a.example", nil)
    require.NoError(t, err)
    _, err = jobs.EnqueueRequest(ctx, "u1", "https://b.example", nil)
    require.NoError(t, err)
    _, err = jobs.EnqueueRequest(ctx, "u1", "https://broken.example", nil)
    require.NoError(t, err)

    proc := &fakeProcessor{failURL: "https://broken.example"}
    Run(ctx, jobs, proc, 2, 5*time.Millisecond, zerolog.Nop())

    require.Eventually(t, func() bool {
        completed, failed := jobs.counts()
        return completed == 2 && failed == 1
    }, 2*time.Second, 10*time.Millisecond)

    _, failed := jobs.counts()
    assert.Equal(t, 1, failed)
    jobs.mu.Lock()
    for _, reason := range jobs.failed {
        assert.Equal(t, "fetch blew up", reason)
    }
    jobs.mu.Unlock()
}

func TestProcessInline(t *testing.T) {
    ctx := context.Background()
    jobs := newFakeJobs()
    requestID, err := jobs.EnqueueRequest(ctx, "u1", "https://a.example", nil)
    require.NoError(t, err)

    proc := &fakeProcessor{}
    auditID, err := ProcessInline(ctx, jobs, proc, requestID)
    require.NoError(t, err)
    assert.Equal(t, "audit-"+requestID, auditID)

    completed, failed := jobs.counts()
    assert.Equal(t, 1, completed)
    assert.Equal(t, 0, failed)

    _, err = ProcessInline(ctx, jobs, proc, requestID)
    assert.ErrorIs(t, err, ports.ErrNotFound, "a request's job can only be started once")
}

func TestProcessInlineFailureMarksJob(t *testing.T) {
    ctx := context.Background()
    jobs := newFakeJobs()
    requestID, err := jobs.EnqueueRequest(ctx, "u1", "https://broken.example", nil)
    require.NoError(t, err)

    proc := &fakeProcessor{failURL: "https://broken.example"}
    _, err = ProcessInline(ctx, jobs, proc, requestID)
    require.Error(t, err)

    completed, failed := jobs.counts()
    assert.Equal(t, 0, completed)
    assert.Equal(t, 1, failed)
}
