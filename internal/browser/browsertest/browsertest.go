// Package browsertest implements browser.Driver over static html documents
// parsed with goquery, so that scrapers can be tested without a browser.
//
// Dynamic behavior is scripted with handlers that mutate the document when
// an element matching a locator is clicked, hovered or typed into. Time never
// passes: sleeps are recorded and waits resolve immediately, failing with
// browser.ErrElementNotFound when the element is absent.
package browsertest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"threadscrape/internal/browser"
	"threadscrape/lib/htmlutil"
	"time"

	"github.com/PuerkitoBio/goquery"
)

type element struct {
	sel *goquery.Selection
}

func (e element) String() string {
	out := "<" + goquery.NodeName(e.sel)
	if id, ok := e.sel.Attr("id"); ok {
		out += " #" + id
	}
	if class, ok := e.sel.Attr("class"); ok {
		out += " ." + strings.Join(strings.Fields(class), ".")
	}
	return out + ">"
}

// Selection returns the goquery selection behind an element returned by a
// Browser.
func Selection(el browser.Element) *goquery.Selection {
	e, ok := el.(element)
	if !ok {
		panic(fmt.Sprintf("element %v was not returned by browsertest", el))
	}
	return e.sel
}

// Handler is called with the element an interaction happened on.
type Handler func(b *Browser, el *goquery.Selection) error

type binding struct {
	loc     browser.Locator
	handler Handler
}

// Browser is an in-memory browser.Driver.
type Browser struct {
	mutex sync.Mutex

	pages   map[string]string
	doc     *goquery.Document
	url     string
	clicks  []binding
	hovers  []binding
	scripts map[string]func(args []any) (any, error)
	cookies []browser.Cookie
	crashed bool

	Navigations []string
	Clicked     []string
	Hovered     []string
	Typed       map[browser.Locator][]string
	Scrolled    []browser.ScrollOptions
	Slept       []time.Duration
	Waits       []browser.Wait
}

func New() *Browser {
	return &Browser{
		pages:   map[string]string{},
		scripts: map[string]func(args []any) (any, error){},
		Typed:   map[browser.Locator][]string{},
	}
}

// AddPage registers the html returned when navigating to url.
func (b *Browser) AddPage(url, html string) *Browser {
	b.pages[url] = html
	return b
}

// OnClick registers a handler for clicks on elements matching loc. When
// several handlers match, the first registered one wins.
func (b *Browser) OnClick(loc browser.Locator, handler Handler) *Browser {
	b.clicks = append(b.clicks, binding{loc: loc, handler: handler})
	return b
}

func (b *Browser) OnHover(loc browser.Locator, handler Handler) *Browser {
	b.hovers = append(b.hovers, binding{loc: loc, handler: handler})
	return b
}

// OnScript registers the result of RunScript for an exact function
// declaration.
func (b *Browser) OnScript(fn string, handler func(args []any) (any, error)) *Browser {
	b.scripts[fn] = handler
	return b
}

// Crash makes every later operation fail with browser.ErrSessionClosed,
// like a tab that died mid run.
func (b *Browser) Crash() {
	b.crashed = true
}

func (b *Browser) alive(ctx context.Context) error {
	if b.crashed {
		return fmt.Errorf("%w: tab crashed", browser.ErrSessionClosed)
	}
	return ctx.Err()
}

// Document returns the document currently loaded.
func (b *Browser) Document() *goquery.Document {
	return b.doc
}

// Load replaces the current document without navigating.
func (b *Browser) Load(html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return err
	}
	b.doc = doc
	return nil
}

// TotalSlept is the sum of every recorded sleep.
func (b *Browser) TotalSlept() time.Duration {
	var total time.Duration
	for _, d := range b.Slept {
		total += d
	}
	return total
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	if err := b.alive(ctx); err != nil {
		return err
	}
	html, ok := b.pages[url]
	if !ok {
		return fmt.Errorf("navigate to %s: no page registered", url)
	}
	b.Navigations = append(b.Navigations, url)
	b.url = url
	return b.Load(html)
}

func (b *Browser) WaitLoaded(ctx context.Context) error {
	if b.doc == nil {
		return fmt.Errorf("no page loaded")
	}
	return b.alive(ctx)
}

func (b *Browser) root() *goquery.Selection {
	if b.doc == nil {
		return &goquery.Selection{}
	}
	return b.doc.Selection
}

func split(sel *goquery.Selection) []browser.Element {
	out := make([]browser.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, element{sel: s})
	})
	return out
}

func (b *Browser) find(parent browser.Element, loc browser.Locator) *goquery.Selection {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if parent == nil {
		return b.root().Find(string(loc))
	}
	return Selection(parent).Find(string(loc))
}

func (b *Browser) Locate(ctx context.Context, loc browser.Locator) (browser.Element, bool) {
	return b.LocateIn(ctx, nil, loc)
}

func (b *Browser) LocateIn(ctx context.Context, parent browser.Element, loc browser.Locator) (browser.Element, bool) {
	found := b.find(parent, loc)
	if found.Length() == 0 || b.alive(ctx) != nil {
		return nil, false
	}
	return element{sel: found.First()}, true
}

func (b *Browser) LocateAll(ctx context.Context, loc browser.Locator) []browser.Element {
	return b.LocateAllIn(ctx, nil, loc)
}

func (b *Browser) LocateAllIn(ctx context.Context, parent browser.Element, loc browser.Locator) []browser.Element {
	if b.alive(ctx) != nil {
		return nil
	}
	return split(b.find(parent, loc))
}

func (b *Browser) WaitFor(ctx context.Context, loc browser.Locator, wait browser.Wait) (browser.Element, error) {
	return b.WaitForIn(ctx, nil, loc, wait)
}

func (b *Browser) WaitForIn(ctx context.Context, parent browser.Element, loc browser.Locator, wait browser.Wait) (browser.Element, error) {
	if err := b.alive(ctx); err != nil {
		return nil, err
	}
	b.Waits = append(b.Waits, wait)
	el, ok := b.LocateIn(ctx, parent, loc)
	if !ok {
		return nil, fmt.Errorf("wait for %s: %w", loc, browser.ErrElementNotFound)
	}
	return el, nil
}

// Text approximates innerText by collapsing whitespace.
func (b *Browser) Text(ctx context.Context, el browser.Element) (string, error) {
	if err := b.alive(ctx); err != nil {
		return "", err
	}
	return htmlutil.InnerText(Selection(el)), nil
}

func (b *Browser) Type(ctx context.Context, loc browser.Locator, text string) error {
	el, err := b.WaitFor(ctx, loc, browser.Wait{})
	if err != nil {
		return err
	}
	sel := Selection(el)
	sel.SetAttr("value", sel.AttrOr("value", "")+text)
	b.Typed[loc] = append(b.Typed[loc], text)
	return nil
}

func (b *Browser) dispatch(bindings []binding, el browser.Element) (bool, error) {
	sel := Selection(el)
	for _, bind := range bindings {
		if sel.Is(string(bind.loc)) {
			return true, bind.handler(b, sel)
		}
	}
	return false, nil
}

func (b *Browser) Click(ctx context.Context, el browser.Element) error {
	if err := b.alive(ctx); err != nil {
		return err
	}
	b.Clicked = append(b.Clicked, el.String())
	_, err := b.dispatch(b.clicks, el)
	if err != nil {
		return fmt.Errorf("%w: click %s: %w", browser.ErrScript, el, err)
	}
	return nil
}

func (b *Browser) Hover(ctx context.Context, el browser.Element) error {
	if err := b.alive(ctx); err != nil {
		return err
	}
	b.Hovered = append(b.Hovered, el.String())
	_, err := b.dispatch(b.hovers, el)
	if err != nil {
		return fmt.Errorf("%w: hover %s: %w", browser.ErrScript, el, err)
	}
	return nil
}

func (b *Browser) ScrollIntoView(ctx context.Context, el browser.Element, opts browser.ScrollOptions) error {
	if err := b.alive(ctx); err != nil {
		return err
	}
	b.Scrolled = append(b.Scrolled, opts)
	return nil
}

func (b *Browser) RunScript(ctx context.Context, fn string, out any, args ...any) error {
	if err := b.alive(ctx); err != nil {
		return err
	}
	handler, ok := b.scripts[fn]
	if !ok {
		return fmt.Errorf("%w: no script registered for %q", browser.ErrScript, fn)
	}
	result, err := handler(args)
	if err != nil {
		return fmt.Errorf("%w: %w", browser.ErrScript, err)
	}
	if out == nil {
		return nil
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, out)
}

func (b *Browser) Sleep(ctx context.Context, d time.Duration) error {
	b.Slept = append(b.Slept, d)
	return b.alive(ctx)
}

func (b *Browser) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	out := make([]browser.Cookie, len(b.cookies))
	copy(out, b.cookies)
	return out, b.alive(ctx)
}

func (b *Browser) SetCookies(ctx context.Context, cookies []browser.Cookie) error {
	b.cookies = append(b.cookies, cookies...)
	return b.alive(ctx)
}

var _ browser.Driver = (*Browser)(nil)
