package browser

import (
	"context"
	"fmt"
)

// TryClick clicks the first element matching loc inside parent, or inside
// the document when parent is nil. A missing element or a failed click is
// not an error, the result only tells whether the click happened.
func TryClick(ctx context.Context, d Driver, parent Element, loc Locator) bool {
	var el Element
	var ok bool
	if parent == nil {
		el, ok = d.Locate(ctx, loc)
	} else {
		el, ok = d.LocateIn(ctx, parent, loc)
	}
	if !ok {
		return false
	}
	return d.Click(ctx, el) == nil
}

// ClickAll waits for and clicks each locator in order. Failures are passed
// to onError (when not nil) and do not stop the remaining clicks.
func ClickAll(ctx context.Context, d Driver, wait Wait, onError func(loc Locator, err error), locs ...Locator) {
	for _, loc := range locs {
		el, err := d.WaitFor(ctx, loc, wait)
		if err == nil {
			err = d.Click(ctx, el)
		}
		if err != nil && onError != nil {
			onError(loc, fmt.Errorf("click %s: %w", loc, err))
		}
	}
}

// TextOf locates loc inside parent and returns its text, ok is false when
// the element is missing.
func TextOf(ctx context.Context, d Driver, parent Element, loc Locator) (text string, ok bool, err error) {
	el, found := d.LocateIn(ctx, parent, loc)
	if !found {
		return "", false, nil
	}
	text, err = d.Text(ctx, el)
	if err != nil {
		return "", true, err
	}
	return text, true, nil
}
