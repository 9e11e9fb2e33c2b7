package browser

import "errors"

var (
	// ErrElementNotFound is returned when an element did not appear before
	// a wait timed out, it is recoverable.
	ErrElementNotFound = errors.New("element not found")
	// ErrScript is returned when a script or a simulated interaction failed
	// inside the page, it is recoverable.
	ErrScript = errors.New("script failed")
	// ErrSessionClosed is returned by every operation once the tab or the
	// browser is gone, it is fatal.
	ErrSessionClosed = errors.New("browser session closed")
)
