// File: internal/browser/resolve/resolve_test.go
package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixturePage answers QueryVisible from a selector table and Snapshot from a
// fixture document, standing in for a live session.
type fixturePage struct {
	visible map[string]bool
	html    string
	queried []string
}

func (f *fixturePage) QueryVisible(_ context.Context, css string) (bool, error) {
	f.queried = append(f.queried, css)
	return f.visible[css], nil
}

func (f *fixturePage) Snapshot(_ context.Context) (string, error) {
	return f.html, nil
}

func TestResolveFirstStrategyWins(t *testing.T) {
	page := &fixturePage{visible: map[string]bool{"button.publishBtn": true}}
	role := Role{
		Name: "submit",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{"button.publishBtn"}},
			AttrContains{Tag: "button", Attr: "class", Substrings: []string{"submit"}},
		},
	}

	loc, err := NewResolver(nil).Resolve(context.Background(), page, role)
	require.NoError(t, err)
	assert.Equal(t, CSS("button.publishBtn"), loc)
	// No fallback probing after a hit.
	assert.Equal(t, []string{"button.publishBtn"}, page.queried)
}

func TestResolveFallsThroughToTextScan(t *testing.T) {
	// The fixture matches only the text-content layer: precise selectors
	// and attribute patterns all miss.
	page := &fixturePage{
		visible: map[string]bool{},
		html: `<html><body>
			<div id="actions">
				<button class="x9f3a">取消</button>
				<button class="z1b7c">发布</button>
			</div>
		</body></html>`,
	}
	role := Role{
		Name: "submit",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{"button.publishBtn"}},
			AttrContains{Tag: "button", Attr: "class", Substrings: []string{"submit", "publish"}},
			TextScan{Tags: []string{"button"}, Phrases: []string{"发布"}},
		},
	}

	loc, err := NewResolver(nil).Resolve(context.Background(), page, role)
	require.NoError(t, err)
	assert.Equal(t, ByXPath, loc.By)
	assert.Equal(t, "//*[@id='actions']/button[2]", loc.Query)
}

func TestResolveSkipsInvisibleEarlierMatch(t *testing.T) {
	// An element matching strategy 1 exists but is hidden; the cascade must
	// not short-circuit on it and must land on the visible text match.
	page := &fixturePage{
		// QueryVisible already folds in visibility, so the hidden
		// strategy-1 element reports false.
		visible: map[string]bool{"button.publishBtn": false},
		html: `<html><body>
			<button class="publishBtn" style="display:none">发布</button>
			<div id="bar"><button class="q8">发布</button></div>
		</body></html>`,
	}
	role := Role{
		Name: "submit",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{"button.publishBtn"}},
			TextScan{Tags: []string{"button"}, Phrases: []string{"发布"}},
		},
	}

	loc, err := NewResolver(nil).Resolve(context.Background(), page, role)
	require.NoError(t, err)
	assert.Equal(t, ByXPath, loc.By)
	assert.Equal(t, "//*[@id='bar']/button[1]", loc.Query,
		"the hidden strategy-1 element must not win, and the text scan must skip it too")
}

func TestResolveNotFound(t *testing.T) {
	page := &fixturePage{visible: map[string]bool{}, html: "<html><body></body></html>"}
	role := Role{
		Name: "ghost",
		Strategies: []Strategy{
			CSSStrategy{Selectors: []string{".a"}},
			TextScan{Tags: []string{"button"}, Phrases: []string{"没有"}},
		},
	}

	_, err := NewResolver(nil).Resolve(context.Background(), page, role)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "ghost")
	assert.Contains(t, err.Error(), "css, text-scan", "error names the attempted strategies")
}

func TestResolveStrategyErrorDoesNotAbortCascade(t *testing.T) {
	page := &fixturePage{
		visible: map[string]bool{`button[class*="ok"]`: true},
		html:    "not parseable as useful html",
	}
	role := Role{
		Name: "resilient",
		Strategies: []Strategy{
			failingStrategy{},
			AttrContains{Tag: "button", Attr: "class", Substrings: []string{"ok"}},
		},
	}

	loc, err := NewResolver(nil).Resolve(context.Background(), page, role)
	require.NoError(t, err)
	assert.Equal(t, `button[class*="ok"]`, loc.Query)
}

type failingStrategy struct{}

func (failingStrategy) Name() string { return "failing" }
func (failingStrategy) Resolve(context.Context, Page) (Locator, bool, error) {
	return Locator{}, false, errors.New("boom")
}

func TestNthVisible(t *testing.T) {
	page := &fixturePage{
		html: `<html><body id="root">
			<div class="tab-a tab">视频</div>
			<div class="tab-b tab" style="visibility:hidden">旧图文</div>
			<div class="tab-c tab">图文</div>
		</body></html>`,
	}

	strat := NthVisible{Tag: "div", Attr: "class", Contains: "tab", Index: 1}
	loc, ok, err := strat.Resolve(context.Background(), page)
	require.NoError(t, err)
	require.True(t, ok)
	// The hidden middle tab is not counted.
	assert.Equal(t, "//*[@id='root']/div[3]", loc.Query)
}

func TestSnapshotVisibilityInheritsFromAncestors(t *testing.T) {
	page := &fixturePage{
		html: `<html><body>
			<div style="display: none"><button id="inside">发布</button></div>
		</body></html>`,
	}
	strat := TextScan{Tags: []string{"button"}, Phrases: []string{"发布"}}
	_, ok, err := strat.Resolve(context.Background(), page)
	require.NoError(t, err)
	assert.False(t, ok, "children of display:none subtrees are invisible")
}

func TestTextScanBoundsCandidates(t *testing.T) {
	html := "<html><body id='root'>"
	for i := 0; i < 60; i++ {
		html += "<button>无关</button>"
	}
	html += "<button>发布</button></body></html>"
	page := &fixturePage{html: html}

	// The target sits past the candidate bound, so the scan gives up.
	strat := TextScan{Tags: []string{"button"}, Phrases: []string{"发布"}, MaxCandidates: 50}
	_, ok, err := strat.Resolve(context.Background(), page)
	require.NoError(t, err)
	assert.False(t, ok)

	// Raising the bound finds it.
	strat.MaxCandidates = 100
	loc, ok, err := strat.Resolve(context.Background(), page)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "//*[@id='root']/button[61]", loc.Query)
}
