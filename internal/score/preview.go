package score

import (
    "fmt"
    "math"
    "sort"

    "rankypulse/internal/domain"
)

const (
    defaultTargetMin = 6
    defaultTargetMax = 10
    maxPicks         = 8
    totalCap         = 25
)

// Options sets the score-gain thresholds the preview accumulates toward.
// The zero value means the defaults (+6..+10).
type Options struct {
    TargetMin float64
    TargetMax float64
}

func impact(p domain.Priority) (min, max float64) {
    switch p {
    case domain.FixNow:
        return 2, 3
    case domain.FixNext:
        return 1, 2
    default:
        return 0.5, 1
    }
}

// BuildPreview ranks issues by achievable score impact and greedily picks
// them until either 8 issues are picked or both running totals have crossed
// their targets. The threshold check runs before each pick, so the issue
// that crosses both targets is always included in full. Totals clamp to
// [0, 25].
//
// Pure function: identical input always produces identical output.
func BuildPreview(issues []domain.Issue, opts Options) domain.ScoreDeltaPreview {
    if opts.TargetMin == 0 && opts.TargetMax == 0 {
        opts.TargetMin = defaultTargetMin
        opts.TargetMax = defaultTargetMax
    }

    rows := make([]domain.PreviewItem, 0, len(issues))
    for _, x := range issues {
        if x.IssueID == "" && x.Title == "" {
            continue
        }
        pri := x.Priority
        if pri == "" {
            pri = domain.FixNext
        }
        lo, hi := impact(pri)
        label := x.Title
        if label == "" {
            label = x.IssueID
        }
        rows = append(rows, domain.PreviewItem{
            IssueID:   x.IssueID,
            Label:     label,
            Priority:  pri,
            ImpactMin: lo,
            ImpactMax: hi,
        })
    }

    sort.SliceStable(rows, func(i, j int) bool {
        if rows[i].ImpactMax != rows[j].ImpactMax {
            return rows[i].ImpactMax > rows[j].ImpactMax
        }
        return rows[i].ImpactMin > rows[j].ImpactMin
    })

    var min, max float64
    picks := make([]domain.PreviewItem, 0, maxPicks)
    for _, r := range rows {
        if len(picks) >= maxPicks {
            break
        }
        if min >= opts.TargetMin && max >= opts.TargetMax {
            break
        }
        picks = append(picks, r)
        min += r.ImpactMin
        max += r.ImpactMax
    }

    min = clamp(min, 0, totalCap)
    max = clamp(max, 0, totalCap)

    return domain.ScoreDeltaPreview{
        Headline:  fmt.Sprintf("Fix these → score +%d–%d", int(math.Round(min)), int(math.Round(max))),
        TargetMin: opts.TargetMin,
        TargetMax: opts.TargetMax,
        TotalMin:  math.Round(min*10) / 10,
        TotalMax:  math.Round(max*10) / 10,
        Items:     picks,
    }
}

// Overall is the audit's headline score: 100 minus 10 per issue, floored
// at zero.
func Overall(issues []domain.Issue) int {
    s := 100 - 10*len(issues)
    if s < 0 {
        s = 0
    }
    return s
}

func clamp(n, lo, hi float64) float64 {
    return math.Max(lo, math.Min(hi, n))
}
