// File: internal/browser/resolve/strategies.go
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// CSSStrategy tries a list of precise selectors in order. This is the first
// cascade layer: exact class names from the current deployment.
type CSSStrategy struct {
	Selectors []string
}

func (s CSSStrategy) Name() string { return "css" }

func (s CSSStrategy) Resolve(ctx context.Context, p Page) (Locator, bool, error) {
	for _, sel := range s.Selectors {
		ok, err := p.QueryVisible(ctx, sel)
		if err != nil {
			return Locator{}, false, err
		}
		if ok {
			return CSS(sel), true, nil
		}
	}
	return Locator{}, false, nil
}

// AttrContains matches elements whose attribute contains one of the given
// substrings. This survives class-name hashing as long as a semantic token
// ("publish", "upload") remains somewhere in the attribute value.
type AttrContains struct {
	Tag        string // empty means any element
	Attr       string
	Substrings []string
}

func (s AttrContains) Name() string { return "attr-contains" }

func (s AttrContains) Resolve(ctx context.Context, p Page) (Locator, bool, error) {
	tag := s.Tag
	if tag == "" {
		tag = "*"
	}
	for _, sub := range s.Substrings {
		sel := fmt.Sprintf(`%s[%s*="%s"]`, tag, s.Attr, sub)
		ok, err := p.QueryVisible(ctx, sel)
		if err != nil {
			return Locator{}, false, err
		}
		if ok {
			return CSS(sel), true, nil
		}
	}
	return Locator{}, false, nil
}

// TextScan searches a document snapshot for elements of the given tags whose
// text contains one of the expected phrases, bounded to the first
// MaxCandidates matches per tag. It emits a positional XPath so the caller
// can address the element on the live page.
type TextScan struct {
	Tags    []string
	Phrases []string
	// MaxCandidates bounds the scan; zero means the default of 50.
	MaxCandidates int
}

func (s TextScan) Name() string { return "text-scan" }

func (s TextScan) Resolve(ctx context.Context, p Page) (Locator, bool, error) {
	snapshot, err := p.Snapshot(ctx)
	if err != nil {
		return Locator{}, false, err
	}
	doc, err := htmlquery.Parse(strings.NewReader(snapshot))
	if err != nil {
		return Locator{}, false, fmt.Errorf("parse snapshot: %w", err)
	}

	limit := s.MaxCandidates
	if limit <= 0 {
		limit = 50
	}

	for _, tag := range s.Tags {
		nodes, err := htmlquery.QueryAll(doc, "//"+tag)
		if err != nil {
			return Locator{}, false, fmt.Errorf("query %s nodes: %w", tag, err)
		}
		if len(nodes) > limit {
			nodes = nodes[:limit]
		}
		for _, node := range nodes {
			if !snapshotVisible(node) {
				continue
			}
			text := strings.TrimSpace(htmlquery.InnerText(node))
			if text == "" {
				continue
			}
			for _, phrase := range s.Phrases {
				if strings.Contains(text, phrase) {
					return XPath(NodeXPath(node)), true, nil
				}
			}
		}
	}
	return Locator{}, false, nil
}

// NthVisible picks the n-th (0-based) visible element of a tag from the
// snapshot, optionally filtered by an attribute substring. This is the last
// cascade layer: pure position, used when nothing semantic survived.
type NthVisible struct {
	Tag     string
	Index   int
	Attr    string // optional attribute filter
	Contains string
}

func (s NthVisible) Name() string { return "nth-visible" }

func (s NthVisible) Resolve(ctx context.Context, p Page) (Locator, bool, error) {
	snapshot, err := p.Snapshot(ctx)
	if err != nil {
		return Locator{}, false, err
	}
	doc, err := htmlquery.Parse(strings.NewReader(snapshot))
	if err != nil {
		return Locator{}, false, fmt.Errorf("parse snapshot: %w", err)
	}

	nodes, err := htmlquery.QueryAll(doc, "//"+s.Tag)
	if err != nil {
		return Locator{}, false, fmt.Errorf("query %s nodes: %w", s.Tag, err)
	}

	seen := 0
	for _, node := range nodes {
		if !snapshotVisible(node) {
			continue
		}
		if s.Attr != "" && !strings.Contains(htmlquery.SelectAttr(node, s.Attr), s.Contains) {
			continue
		}
		if seen == s.Index {
			return XPath(NodeXPath(node)), true, nil
		}
		seen++
	}
	return Locator{}, false, nil
}

// snapshotVisible applies the visibility heuristics available in static
// HTML: inline styles and the hidden attribute. Computed styles are not
// observable here, so this errs toward visible.
func snapshotVisible(node *html.Node) bool {
	for n := node; n != nil && n.Type == html.ElementNode; n = n.Parent {
		if hasAttr(n, "hidden") {
			return false
		}
		style := strings.ToLower(htmlquery.SelectAttr(n, "style"))
		style = strings.ReplaceAll(style, " ", "")
		if strings.Contains(style, "display:none") ||
			strings.Contains(style, "visibility:hidden") ||
			strings.Contains(style, "opacity:0;") ||
			strings.HasSuffix(style, "opacity:0") {
			return false
		}
		if typ := htmlquery.SelectAttr(n, "type"); n.Data == "input" && typ == "hidden" {
			return false
		}
	}
	return true
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}
