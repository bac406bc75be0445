// File: internal/browser/resolve/resolve.go

// Package resolve locates page elements through ordered strategy cascades.
// The target application renames CSS classes and reshuffles its DOM between
// deployments, so no single selector is trusted. Each UI element is modeled
// as a Role with a list of strategies ordered from most precise to most
// generic; resolution walks the list and returns the first visible match.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ErrNotFound is returned when every strategy for a role came up empty.
var ErrNotFound = errors.New("element not found")

// By is the locator addressing scheme.
type By string

const (
	ByCSS   By = "css"
	ByXPath By = "xpath"
)

// Locator addresses a single element on the live page.
type Locator struct {
	Query string
	By    By
}

// CSS builds a css Locator.
func CSS(query string) Locator { return Locator{Query: query, By: ByCSS} }

// XPath builds an xpath Locator.
func XPath(query string) Locator { return Locator{Query: query, By: ByXPath} }

// Page is the minimal page surface a strategy needs. The browser session
// implements it against the live page; tests implement it against fixtures.
type Page interface {
	// QueryVisible reports whether the css selector matches at least one
	// visible element.
	QueryVisible(ctx context.Context, css string) (bool, error)
	// Snapshot returns the current document HTML.
	Snapshot(ctx context.Context) (string, error)
}

// Strategy is one way of locating a role's element.
type Strategy interface {
	Name() string
	// Resolve returns a locator and true on a visible match. A miss is
	// (zero, false, nil); only infrastructure failures return an error.
	Resolve(ctx context.Context, p Page) (Locator, bool, error)
}

// Role names a UI element together with its resolution cascade.
type Role struct {
	Name       string
	Strategies []Strategy
}

// Resolver runs role cascades and records which strategy produced each hit.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver builds a Resolver. A nil logger is replaced with a no-op.
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger.Named("resolve")}
}

// Resolve walks the role's strategies in order and returns the first
// locator whose element is present and visible. Strategies that error are
// logged and skipped so a broken heuristic never masks a later match.
func (r *Resolver) Resolve(ctx context.Context, p Page, role Role) (Locator, error) {
	if len(role.Strategies) == 0 {
		return Locator{}, fmt.Errorf("role %q has no strategies: %w", role.Name, ErrNotFound)
	}

	var attempted []string
	for _, strat := range role.Strategies {
		if err := ctx.Err(); err != nil {
			return Locator{}, err
		}
		attempted = append(attempted, strat.Name())

		loc, ok, err := strat.Resolve(ctx, p)
		if err != nil {
			r.logger.Debug("Strategy failed, trying next",
				zap.String("role", role.Name),
				zap.String("strategy", strat.Name()),
				zap.Error(err))
			continue
		}
		if ok {
			r.logger.Debug("Resolved element",
				zap.String("role", role.Name),
				zap.String("strategy", strat.Name()),
				zap.String("locator", loc.Query))
			return loc, nil
		}
	}

	return Locator{}, fmt.Errorf("role %q (tried %s): %w",
		role.Name, strings.Join(attempted, ", "), ErrNotFound)
}
