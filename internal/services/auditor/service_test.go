package auditor

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "rankypulse/internal/adapters/memory"
    "rankypulse/internal/detect"
    "rankypulse/internal/domain"
    "rankypulse/internal/fetch"
    "rankypulse/internal/ports"
)

const pageHTML = `<html>
<head><title>Example Product</title></head>
<body><h1>Example</h1></body>
</html>`

type fakeDetector struct {
    id     string
    issues []domain.Issue
    err    error
}

func (f fakeDetector) ID() string { return f.id }

func (f fakeDetector) Run(context.Context, *detect.Context) ([]domain.Issue, error) {
    return f.issues, f.err
}

func testService(store ports.AuditStore, detectors ...detect.Detector) *Service {
    retry := fetch.RetryOptions{Timeout: 2 * time.Second, MaxAttempts: 2, BaseDelay: time.Millisecond}
    runner := detect.NewRunner(zerolog.Nop(), detectors...)
    return New(fetch.NewClient(), runner, store, retry, zerolog.Nop())
}

func TestRunAdHoc(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Write([]byte(pageHTML))
    }))
    defer srv.Close()

    store := memory.New()
    svc := testService(store,
        fakeDetector{id: "d1", issues: []domain.Issue{{IssueID: "missing_meta_description", Title: "Missing meta description", Priority: domain.FixNext}}},
    )

    out, err := svc.Run(context.Background(), RunParams{UserID: "u1", URL: srv.URL})
    require.NoError(t, err)
    assert.Equal(t, srv.URL, out.Result.URL)
    assert.Equal(t, 200, out.Result.Status)
    assert.Equal(t, 90, out.Result.Score)
    require.Len(t, out.Result.Issues, 1)
    assert.Len(t, out.Result.Preview.Items, 1)
    assert.Empty(t, out.SavedID, "ad-hoc audits are not persisted")

    items, err := store.List(context.Background(), ports.ListParams{UserID: "u1"})
    require.NoError(t, err)
    assert.Empty(t, items)
}

func TestRunPersists(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Write([]byte(pageHTML))
    }))
    defer srv.Close()

    store := memory.New()
    svc := testService(store, fakeDetector{id: "d1"})

    out, err := svc.Run(context.Background(), RunParams{UserID: "u1", URL: srv.URL, Persist: true})
    require.NoError(t, err)
    require.NotEmpty(t, out.SavedID)
    assert.False(t, out.SavedAt.IsZero())

    rec, err := store.Get(context.Background(), "u1", out.SavedID)
    require.NoError(t, err)
    assert.Equal(t, srv.URL, rec.URL)
    assert.Equal(t, out.Result.Score, rec.Result.Score)
}

func TestRunFetchFailureShortCircuits(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
    url := srv.URL
    srv.Close()

    svc := testService(memory.New(), fakeDetector{id: "d1"})
    _, err := svc.Run(context.Background(), RunParams{UserID: "u1", URL: url})
    require.Error(t, err)
    var fe *fetch.Error
    assert.ErrorAs(t, err, &fe)
}

func TestRunDetectorFailureDoesNot(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Write([]byte(pageHTML))
    }))
    defer srv.Close()

    svc := testService(memory.New(),
        fakeDetector{id: "good", issues: []domain.Issue{{IssueID: "missing_h1", Title: "Missing H1 heading", Priority: domain.FixNext}}},
        fakeDetector{id: "bad", err: errors.New("boom")},
    )

    out, err := svc.Run(context.Background(), RunParams{UserID: "u1", URL: srv.URL})
    require.NoError(t, err)
    require.Len(t, out.Result.Issues, 1)
    require.Len(t, out.Diagnostics, 1)
    assert.Equal(t, "bad", out.Diagnostics[0].Detector)
}

func TestRunRetryableStatusIsNotAnError(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusServiceUnavailable)
    }))
    defer srv.Close()

    svc := testService(memory.New(), detect.Default()[:4]...) // all but redirect hygiene
    out, err := svc.Run(context.Background(), RunParams{UserID: "u1", URL: srv.URL})
    require.NoError(t, err, "a 503 that survives retries is a result, not an error")
    assert.Equal(t, 503, out.Result.Status)

    ids := make([]string, 0, len(out.Result.Issues))
    for _, i := range out.Result.Issues {
        ids = append(ids, i.IssueID)
    }
    assert.Contains(t, ids, "http_status_error")
}

func TestRunRequiresURL(t *testing.T) {
    svc := testService(memory.New())
    _, err := svc.Run(context.Background(), RunParams{UserID: "u1"})
    assert.ErrorIs(t, err, ports.ErrInvalidInput)
}

func TestRegistrable(t *testing.T) {
    assert.Equal(t, "example.com", registrable("https://www.example.com/page"))
    assert.Equal(t, "example.co.uk", registrable("https://shop.example.co.uk"))
}
