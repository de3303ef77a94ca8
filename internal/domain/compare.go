package domain

// issueKey is the diffing identity of an issue. Issue id when present,
// title as a fallback for hand-saved results.
func issueKey(i Issue) string {
    if i.IssueID != "" {
        return i.IssueID
    }
    return i.Title
}

func keySet(issues []Issue) (keys []string, set map[string]bool) {
    set = make(map[string]bool, len(issues))
    for _, i := range issues {
        k := issueKey(i)
        if k == "" || set[k] {
            continue
        }
        set[k] = true
        keys = append(keys, k)
    }
    return keys, set
}

// Compare diffs two audit snapshots by issue key. Purely set-theoretic:
// the operands may be given in either temporal direction.
func Compare(before, after AuditRecord) AuditComparison {
    beforeKeys, beforeSet := keySet(before.Result.Issues)
    afterKeys, afterSet := keySet(after.Result.Issues)

    cmp := AuditComparison{
        BeforeID:   before.ID,
        AfterID:    after.ID,
        ScoreDelta: after.Result.Score - before.Result.Score,
        Resolved:   []string{},
        Introduced: []string{},
        Persisting: []string{},
    }
    for _, k := range beforeKeys {
        if afterSet[k] {
            cmp.Persisting = append(cmp.Persisting, k)
        } else {
            cmp.Resolved = append(cmp.Resolved, k)
        }
    }
    for _, k := range afterKeys {
        if !beforeSet[k] {
            cmp.Introduced = append(cmp.Introduced, k)
        }
    }
    return cmp
}
