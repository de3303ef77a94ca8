package detect

import "rankypulse/internal/domain"

type issueDef struct {
    Title    string
    Priority domain.Priority
    Why      string
    Fix      string
}

// catalog maps stable issue ids to their display definition. Compiled in:
// the ids are the diffing contract across runs, so they live with the
// detectors that emit them.
var catalog = map[string]issueDef{
    "missing_title": {
        Title:    "Missing <title> tag",
        Priority: domain.FixNow,
        Why:      "The title tag is the strongest on-page relevance signal and the headline of your search snippet.",
        Fix:      "Add a unique, descriptive <title> of roughly 30-60 characters.",
    },
    "title_too_long": {
        Title:    "Title tag is too long",
        Priority: domain.FixLater,
        Why:      "Titles over ~60 characters get truncated in search results.",
        Fix:      "Shorten the title to the front-loaded essentials.",
    },
    "missing_meta_description": {
        Title:    "Missing meta description",
        Priority: domain.FixNext,
        Why:      "Without a description, search engines improvise the snippet and click-through suffers.",
        Fix:      "Add a meta description of roughly 70-160 characters that earns the click.",
    },
    "description_too_long": {
        Title:    "Meta description is too long",
        Priority: domain.FixLater,
        Why:      "Descriptions over ~160 characters get cut mid-sentence in the snippet.",
        Fix:      "Trim the description so the pitch survives truncation.",
    },
    "missing_h1": {
        Title:    "Missing H1 heading",
        Priority: domain.FixNext,
        Why:      "The H1 confirms the page topic for both readers and crawlers.",
        Fix:      "Add exactly one H1 that states what the page is about.",
    },
    "multiple_h1": {
        Title:    "Multiple H1 headings",
        Priority: domain.FixLater,
        Why:      "Several H1s dilute the topical focus of the page.",
        Fix:      "Keep one H1; demote the rest to H2.",
    },
    "http_status_error": {
        Title:    "Page returns an HTTP error status",
        Priority: domain.FixNow,
        Why:      "Error statuses drop the page from the index and waste crawl budget.",
        Fix:      "Serve 200 for live content or a proper redirect for moved content.",
    },
    "redirect_chain_too_long": {
        Title:    "Redirect chain is too long",
        Priority: domain.FixNext,
        Why:      "Every extra hop leaks link equity and slows the first byte.",
        Fix:      "Point the original URL straight at the final destination.",
    },
    "http_not_redirecting_to_https": {
        Title:    "HTTP does not redirect to HTTPS",
        Priority: domain.FixNow,
        Why:      "Serving the page over plain HTTP splits signals between two URLs and browsers flag it insecure.",
        Fix:      "301-redirect all HTTP traffic to the HTTPS URL.",
    },
    "redirect_loop": {
        Title:    "Redirect loop detected",
        Priority: domain.FixNow,
        Why:      "A loop makes the URL unreachable for crawlers and visitors alike.",
        Fix:      "Break the cycle so the chain terminates at a 200.",
    },
}

// mkIssue builds an issue from its catalog definition. Unknown ids still
// produce a usable issue with the id as title and the default priority.
func mkIssue(detector, issueID string, evidence map[string]any) domain.Issue {
    def, ok := catalog[issueID]
    if !ok {
        def = issueDef{Title: issueID, Priority: domain.FixNext}
    }
    return domain.Issue{
        IssueID:  issueID,
        Title:    def.Title,
        Priority: def.Priority,
        Evidence: evidence,
        Detector: detector,
        Why:      def.Why,
        Fix:      def.Fix,
    }
}
