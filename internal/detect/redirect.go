package detect

import (
    "context"
    "net/http"
    "net/url"
    "strings"

    "rankypulse/internal/domain"
    "rankypulse/internal/fetch"
)

// redirectHygiene walks the redirect chain of the audited URL with its own
// non-following requests. It flags loops, chains longer than two hops, and
// plain-HTTP pages that never land on HTTPS.
type redirectHygiene struct {
    maxHops int
}

func (redirectHygiene) ID() string { return "redirect_hygiene" }

func (d redirectHygiene) Run(ctx context.Context, pc *Context) ([]domain.Issue, error) {
    if pc.Fetcher == nil {
        return nil, nil
    }

    type hop struct {
        URL      string `json:"url"`
        Status   int    `json:"status"`
        Location string `json:"location,omitempty"`
    }

    var chain []hop
    var issues []domain.Issue
    seen := make(map[string]int)
    current := pc.URL

    for i := 0; i <= d.maxHops; i++ {
        key := normURL(current)
        if first, ok := seen[key]; ok {
            issues = append(issues, mkIssue(d.ID(), "redirect_loop", map[string]any{
                "url":        current,
                "first_hop":  first,
                "repeat_hop": i,
                "chain":      chain,
            }))
            break
        }
        seen[key] = i

        res, err := d.fetchOnce(ctx, pc, current)
        if err != nil {
            // A secondary fetch failing ends the walk; the primary audit
            // already has its own status evidence.
            break
        }
        loc := res.Headers["Location"]
        chain = append(chain, hop{URL: current, Status: res.StatusCode, Location: loc})

        if res.StatusCode < 300 || res.StatusCode > 399 || loc == "" {
            break
        }
        next, err := resolveRef(current, loc)
        if err != nil {
            break
        }
        current = next
    }

    redirects := 0
    for _, h := range chain {
        if h.Status >= 300 && h.Status <= 399 {
            redirects++
        }
    }
    if redirects > 2 {
        issues = append(issues, mkIssue(d.ID(), "redirect_chain_too_long", map[string]any{
            "hops":  redirects,
            "chain": chain,
        }))
    }

    if strings.HasPrefix(strings.ToLower(pc.URL), "http://") {
        final := current
        if u, err := url.Parse(final); err == nil && u.Scheme != "https" {
            issues = append(issues, mkIssue(d.ID(), "http_not_redirecting_to_https", map[string]any{
                "url":       pc.URL,
                "final_url": final,
            }))
        }
    }
    return issues, nil
}

// fetchOnce issues a single non-following probe, HEAD first with a GET
// fallback for servers that reject HEAD.
func (d redirectHygiene) fetchOnce(ctx context.Context, pc *Context, target string) (*fetch.Result, error) {
    req := fetch.RequestOptions{Method: http.MethodHead, NoFollowRedirects: true}
    res, err := pc.Fetcher.Fetch(ctx, target, req, pc.Retry)
    if err == nil && res.StatusCode != http.StatusMethodNotAllowed {
        return res, nil
    }
    req.Method = http.MethodGet
    return pc.Fetcher.Fetch(ctx, target, req, pc.Retry)
}

// normURL canonicalizes a URL for loop detection: drop the fragment,
// lowercase the host, strip a leading www.
func normURL(raw string) string {
    u, err := url.Parse(raw)
    if err != nil {
        return raw
    }
    u.Fragment = ""
    host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
    port := ""
    if p := u.Port(); p != "" {
        port = ":" + p
    }
    path := u.Path
    if path == "" {
        path = "/"
    }
    q := ""
    if u.RawQuery != "" {
        q = "?" + u.RawQuery
    }
    return u.Scheme + "://" + host + port + path + q
}

func resolveRef(base, ref string) (string, error) {
    b, err := url.Parse(base)
    if err != nil {
        return "", err
    }
    r, err := url.Parse(ref)
    if err != nil {
        return "", err
    }
    return b.ResolveReference(r).String(), nil
}
