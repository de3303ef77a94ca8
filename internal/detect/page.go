package detect

import (
    "bytes"
    "strings"

    "golang.org/x/net/html"
)

// Page is the parsed view of a fetched document that detectors read.
// Parsed once per audit; conceptually read-only.
type Page struct {
    Title           string
    MetaDescription string
    H1s             []string
    Canonical       string
    RobotsMeta      string
}

// ParsePage extracts the SEO-relevant structure from an HTML body. The
// parser is tolerant: malformed markup yields whatever was recoverable,
// never an error.
func ParsePage(body []byte) *Page {
    p := &Page{}
    doc, err := html.Parse(bytes.NewReader(body))
    if err != nil {
        return p
    }
    walk(doc, p)
    return p
}

func walk(n *html.Node, p *Page) {
    if n.Type == html.ElementNode {
        switch n.Data {
        case "title":
            if p.Title == "" {
                p.Title = collapse(textContent(n))
            }
        case "h1":
            p.H1s = append(p.H1s, collapse(textContent(n)))
        case "meta":
            name := strings.ToLower(attr(n, "name"))
            switch name {
            case "description":
                if p.MetaDescription == "" {
                    p.MetaDescription = collapse(attr(n, "content"))
                }
            case "robots":
                if p.RobotsMeta == "" {
                    p.RobotsMeta = collapse(attr(n, "content"))
                }
            }
        case "link":
            if strings.EqualFold(attr(n, "rel"), "canonical") && p.Canonical == "" {
                p.Canonical = strings.TrimSpace(attr(n, "href"))
            }
        }
    }
    for c := n.FirstChild; c != nil; c = c.NextSibling {
        walk(c, p)
    }
}

func textContent(n *html.Node) string {
    var b strings.Builder
    var rec func(*html.Node)
    rec = func(n *html.Node) {
        if n.Type == html.TextNode {
            b.WriteString(n.Data)
        }
        for c := n.FirstChild; c != nil; c = c.NextSibling {
            rec(c)
        }
    }
    rec(n)
    return b.String()
}

func attr(n *html.Node, key string) string {
    for _, a := range n.Attr {
        if strings.EqualFold(a.Key, key) {
            return a.Val
        }
    }
    return ""
}

func collapse(s string) string {
    return strings.Join(strings.Fields(s), " ")
}
