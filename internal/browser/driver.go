package browser

import (
	"context"
	"fmt"
	"time"
)

// Locator is a css selector.
type Locator string

func ByID(id string) Locator {
	return Locator("#" + id)
}

func ByClass(class string) Locator {
	return Locator("." + class)
}

func (l Locator) String() string {
	return string(l)
}

// LocatorFormat is a css selector with a single %d verb, used for
// positional lookups like the nth post of a feed.
type LocatorFormat string

func (f LocatorFormat) Nth(i int) Locator {
	return Locator(fmt.Sprintf(string(f), i))
}

// Element is an opaque handle to a node owned by the Driver that returned
// it, it must not be passed to another Driver.
type Element interface {
	String() string
}

type ScrollBehavior string

const (
	ScrollSmooth ScrollBehavior = "smooth"
	ScrollAuto   ScrollBehavior = "auto"
)

type ScrollAlignment string

const (
	AlignStart   ScrollAlignment = "start"
	AlignCenter  ScrollAlignment = "center"
	AlignEnd     ScrollAlignment = "end"
	AlignNearest ScrollAlignment = "nearest"
)

// ScrollOptions mirrors the options object of Element.scrollIntoView.
type ScrollOptions struct {
	Behavior ScrollBehavior
	Block    ScrollAlignment
	Inline   ScrollAlignment
}

var ScrollCentered = ScrollOptions{
	Behavior: ScrollAuto,
	Block:    AlignCenter,
	Inline:   AlignCenter,
}

type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires"`
	HttpOnly bool      `json:"http_only"`
	Secure   bool      `json:"secure"`
}

// Driver is the set of primitives scrapers use to drive a page.
//
// Lookups (Locate*, LocateAll*) never wait and never fail, absence is
// reported as false or an empty slice. WaitFor* polls until the element
// appears and fails with ErrElementNotFound on timeout.
//
// note: fault injection point
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// WaitLoaded waits until document.readyState is "complete".
	WaitLoaded(ctx context.Context) error

	Locate(ctx context.Context, loc Locator) (Element, bool)
	LocateAll(ctx context.Context, loc Locator) []Element
	LocateIn(ctx context.Context, parent Element, loc Locator) (Element, bool)
	LocateAllIn(ctx context.Context, parent Element, loc Locator) []Element
	WaitFor(ctx context.Context, loc Locator, wait Wait) (Element, error)
	WaitForIn(ctx context.Context, parent Element, loc Locator, wait Wait) (Element, error)

	// Text returns the rendered text of the element with surrounding
	// whitespace trimmed.
	Text(ctx context.Context, el Element) (string, error)
	// Type waits for the element located by loc and sends keystrokes to it.
	Type(ctx context.Context, loc Locator, text string) error
	Click(ctx context.Context, el Element) error
	Hover(ctx context.Context, el Element) error
	ScrollIntoView(ctx context.Context, el Element, opts ScrollOptions) error
	// RunScript calls the js function declaration fn with JSON encodable
	// args and decodes its return value into out (which may be nil).
	RunScript(ctx context.Context, fn string, out any, args ...any) error
	Sleep(ctx context.Context, d time.Duration) error

	Cookies(ctx context.Context) ([]Cookie, error)
	SetCookies(ctx context.Context, cookies []Cookie) error
}
