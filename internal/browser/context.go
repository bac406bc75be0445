// File: internal/browser/context.go
package browser

import "context"

// CombineContext derives a context from parentCtx that is additionally
// canceled when secondaryCtx ends. chromedp actions must run on the session
// context to reach the right target, but they still have to honor the
// caller's per-operation deadline; this ties the two together.
func CombineContext(parentCtx, secondaryCtx context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(parentCtx)

	go func() {
		select {
		case <-secondaryCtx.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}
