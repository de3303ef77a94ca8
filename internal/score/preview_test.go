package score

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "rankypulse/internal/domain"
)

func issue(id string, p domain.Priority) domain.Issue {
    return domain.Issue{IssueID: id, Title: "Issue " + id, Priority: p}
}

func TestBuildPreviewComposition(t *testing.T) {
    issues := []domain.Issue{
        issue("a", domain.FixNow),
        issue("b", domain.FixNow),
        issue("c", domain.FixLater),
    }
    p := BuildPreview(issues, Options{})

    require.Len(t, p.Items, 3)
    assert.Equal(t, "a", p.Items[0].IssueID)
    assert.Equal(t, "b", p.Items[1].IssueID)
    assert.Equal(t, "c", p.Items[2].IssueID)
    assert.GreaterOrEqual(t, p.TotalMin, 4.0)
    assert.Equal(t, 4.5, p.TotalMin)
    assert.Equal(t, 7.0, p.TotalMax)
    assert.Equal(t, "Fix these → score +5–7", p.Headline)
}

func TestBuildPreviewDeterministic(t *testing.T) {
    issues := []domain.Issue{
        issue("a", domain.FixLater),
        issue("b", domain.FixNow),
        issue("c", domain.FixNext),
        issue("d", domain.FixNow),
    }
    first := BuildPreview(issues, Options{})
    second := BuildPreview(issues, Options{})
    assert.Equal(t, first, second)
}

func TestBuildPreviewStableTieOrder(t *testing.T) {
    issues := []domain.Issue{
        issue("first", domain.FixNext),
        issue("second", domain.FixNext),
        issue("third", domain.FixNext),
    }
    p := BuildPreview(issues, Options{})
    require.Len(t, p.Items, 3)
    assert.Equal(t, "first", p.Items[0].IssueID)
    assert.Equal(t, "second", p.Items[1].IssueID)
    assert.Equal(t, "third", p.Items[2].IssueID)
}

// The greedy accumulator only checks thresholds before a pick, so the issue
// that crosses both targets is always included in full.
func TestBuildPreviewOvershoot(t *testing.T) {
    issues := []domain.Issue{
        issue("a", domain.FixNow),
        issue("b", domain.FixNow),
        issue("c", domain.FixNow),
        issue("d", domain.FixNow),
        issue("e", domain.FixNow),
    }
    p := BuildPreview(issues, Options{})

    // After three picks min=6 max=9: max is still under target, so a fourth
    // is taken whole; the fifth is never picked.
    require.Len(t, p.Items, 4)
    assert.Equal(t, 8.0, p.TotalMin)
    assert.Equal(t, 12.0, p.TotalMax)
}

func TestBuildPreviewPickCapAndClamp(t *testing.T) {
    var issues []domain.Issue
    for i := 0; i < 20; i++ {
        issues = append(issues, issue(string(rune('a'+i)), domain.FixNow))
    }
    p := BuildPreview(issues, Options{TargetMin: 100, TargetMax: 100})

    require.Len(t, p.Items, 8)
    assert.LessOrEqual(t, p.TotalMin, 25.0)
    assert.LessOrEqual(t, p.TotalMax, 25.0)
}

func TestBuildPreviewFiltersAndDefaults(t *testing.T) {
    issues := []domain.Issue{
        {Priority: domain.FixNow},              // no id, no title: dropped
        {IssueID: "x"},                         // no priority: defaults to fix_next
        {IssueID: "y", Priority: "mystery"},    // unknown priority: lowest impact
        {Title: "Only a title", Priority: domain.FixLater},
    }
    p := BuildPreview(issues, Options{})

    require.Len(t, p.Items, 3)
    assert.Equal(t, "x", p.Items[0].IssueID)
    assert.Equal(t, domain.FixNext, p.Items[0].Priority)
    assert.Equal(t, 1.0, p.Items[0].ImpactMin)
    assert.Equal(t, 2.0, p.Items[0].ImpactMax)

    // Unknown and fix_later share the lowest impact range; input order holds.
    assert.Equal(t, "y", p.Items[1].IssueID)
    assert.Equal(t, 0.5, p.Items[1].ImpactMin)
    assert.Equal(t, "Only a title", p.Items[2].Label)
}

func TestBuildPreviewEmpty(t *testing.T) {
    p := BuildPreview(nil, Options{})
    assert.Empty(t, p.Items)
    assert.Equal(t, 0.0, p.TotalMin)
    assert.Equal(t, 0.0, p.TotalMax)
    assert.Equal(t, "Fix these → score +0–0", p.Headline)
}

func TestOverall(t *testing.T) {
    assert.Equal(t, 100, Overall(nil))
    assert.Equal(t, 70, Overall(make([]domain.Issue, 3)))
    assert.Equal(t, 0, Overall(make([]domain.Issue, 11)))
}
