package fetch

import (
    "context"
    "errors"
    "io"
    "math/rand/v2"
    "net"
    "net/http"
    "syscall"
    "time"
)

const (
    defaultTimeout     = 12 * time.Second
    defaultMaxAttempts = 3
    defaultBaseDelay   = 350 * time.Millisecond
    maxJitter          = 150 * time.Millisecond
    maxBodyBytes       = 2 << 20
    defaultUserAgent   = "RankyPulseBot/1.0"
)

// RetryOptions bounds a fetch: per-attempt timeout, attempt count, and the
// base of the exponential backoff between attempts.
type RetryOptions struct {
    Timeout     time.Duration
    MaxAttempts int
    BaseDelay   time.Duration
}

func (o RetryOptions) withDefaults() RetryOptions {
    if o.Timeout <= 0 {
        o.Timeout = defaultTimeout
    }
    if o.MaxAttempts <= 0 {
        o.MaxAttempts = defaultMaxAttempts
    }
    if o.BaseDelay <= 0 {
        o.BaseDelay = defaultBaseDelay
    }
    return o
}

// RequestOptions shapes a single request. Zero value means GET with
// redirects followed.
type RequestOptions struct {
    Method            string
    Headers           map[string]string
    NoFollowRedirects bool
}

// Result is one fetched response. Immutable once produced; callers keep
// only the last attempt's result.
type Result struct {
    FinalURL   string            `json:"final_url"`
    StatusCode int               `json:"status_code"`
    Headers    map[string]string `json:"headers"`
    Body       []byte            `json:"-"`
    Elapsed    time.Duration     `json:"elapsed_ms"`
    Attempts   int               `json:"attempts"`
}

// Client performs resilient HTTP fetches. It owns its http.Client pair
// explicitly; there is no package-level connection state.
type Client struct {
    follow    *http.Client
    noFollow  *http.Client
    userAgent string
}

func NewClient() *Client {
    transport := http.DefaultTransport.(*http.Transport).Clone()
    return &Client{
        follow: &http.Client{Transport: transport},
        noFollow: &http.Client{
            Transport: transport,
            CheckRedirect: func(req *http.Request, via []*http.Request) error {
                return http.ErrUseLastResponse
            },
        },
        userAgent: defaultUserAgent,
    }
}

// RetryableStatus reports whether an HTTP status warrants another attempt:
// 408, 429, or any 5xx.
func RetryableStatus(status int) bool {
    return status == http.StatusRequestTimeout ||
        status == http.StatusTooManyRequests ||
        (status >= 500 && status <= 599)
}

// Fetch performs the request with a bounded timeout per attempt and
// exponential backoff between attempts.
//
// When all attempts produce retryable HTTP statuses the last response is
// returned, not an error; callers check StatusCode. When all attempts fail
// at the transport level the last error is returned as a *fetch.Error.
// A non-retryable status returns immediately.
func (c *Client) Fetch(ctx context.Context, url string, req RequestOptions, opts RetryOptions) (*Result, error) {
    opts = opts.withDefaults()

    var lastErr *Error
    for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
        res, err := c.attempt(ctx, url, req, opts.Timeout)
        if err == nil {
            res.Attempts = attempt
            if !RetryableStatus(res.StatusCode) {
                return res, nil
            }
            if attempt == opts.MaxAttempts {
                return res, nil
            }
            if err := backoff(ctx, opts.BaseDelay, attempt); err != nil {
                return res, nil
            }
            continue
        }

        lastErr = &Error{Kind: classify(err), URL: url, Attempts: attempt, Err: err}
        if attempt == opts.MaxAttempts || !retryable(err) {
            return nil, lastErr
        }
        if err := backoff(ctx, opts.BaseDelay, attempt); err != nil {
            return nil, lastErr
        }
    }
    return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, url string, req RequestOptions, timeout time.Duration) (*Result, error) {
    ctx, cancel := context.WithTimeout(ctx, timeout)
    defer cancel()

    method := req.Method
    if method == "" {
        method = http.MethodGet
    }
    r, err := http.NewRequestWithContext(ctx, method, url, nil)
    if err != nil {
        return nil, err
    }
    r.Header.Set("User-Agent", c.userAgent)
    r.Header.Set("Accept", "*/*")
    for k, v := range req.Headers {
        r.Header.Set(k, v)
    }

    hc := c.follow
    if req.NoFollowRedirects {
        hc = c.noFollow
    }

    start := time.Now()
    resp, err := hc.Do(r)
    if err != nil {
        return nil, err
    }
    defer resp.Body.Close()

    body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
    if err != nil {
        return nil, err
    }

    headers := make(map[string]string, len(resp.Header))
    for k := range resp.Header {
        headers[k] = resp.Header.Get(k)
    }
    finalURL := url
    if resp.Request != nil && resp.Request.URL != nil {
        finalURL = resp.Request.URL.String()
    }
    return &Result{
        FinalURL:   finalURL,
        StatusCode: resp.StatusCode,
        Headers:    headers,
        Body:       body,
        Elapsed:    time.Since(start),
    }, nil
}

// backoff sleeps baseDelay * 2^(attempt-1) plus up to 150ms of jitter,
// or returns early when ctx is done.
func backoff(ctx context.Context, baseDelay time.Duration, attempt int) error {
    delay := baseDelay << (attempt - 1)
    delay += rand.N(maxJitter)
    select {
    case <-ctx.Done():
        return ctx.Err()
    case <-time.After(delay):
        return nil
    }
}

// retryable reports whether a transport error is worth another attempt.
// Caller cancellation is final; everything else network-shaped retries.
func retryable(err error) bool {
    return !errors.Is(err, context.Canceled)
}

func classify(err error) ErrorKind {
    var dnsErr *net.DNSError
    if errors.As(err, &dnsErr) {
        return KindDNS
    }
    var nerr net.Error
    if errors.As(err, &nerr) && nerr.Timeout() {
        return KindTimeout
    }
    if errors.Is(err, context.DeadlineExceeded) {
        return KindTimeout
    }
    if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
        return KindConnReset
    }
    return KindTransport
}
