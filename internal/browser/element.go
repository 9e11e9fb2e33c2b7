package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/attribute"
)

type node struct {
	n *cdp.Node
}

func (n node) String() string {
	return fmt.Sprintf("<%s #%d>", strings.ToLower(n.n.LocalName), n.n.NodeID)
}

func (n node) ids() []cdp.NodeID {
	return []cdp.NodeID{n.n.NodeID}
}

func asNode(el Element) (node, error) {
	n, ok := el.(node)
	if !ok || n.n == nil {
		return node{}, fmt.Errorf("element %v does not belong to a chromedp session", el)
	}
	return n, nil
}

func (s *Session) query(ctx context.Context, parent *cdp.Node, loc Locator) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if parent != nil {
		opts = append(opts, chromedp.FromNode(parent))
	}
	err := s.run(ctx, chromedp.Nodes(string(loc), &nodes, opts...))
	return nodes, err
}

func (s *Session) lookup(ctx context.Context, parent Element, loc Locator) ([]Element, error) {
	var parentNode *cdp.Node
	if parent != nil {
		n, err := asNode(parent)
		if err != nil {
			return nil, err
		}
		parentNode = n.n
	}
	nodes, err := s.query(ctx, parentNode, loc)
	if err != nil {
		return nil, err
	}
	out := make([]Element, len(nodes))
	for i, n := range nodes {
		out[i] = node{n: n}
	}
	return out, nil
}

func (s *Session) first(ctx context.Context, parent Element, loc Locator) (Element, error) {
	found, err := s.lookup(ctx, parent, loc)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, loc)
	}
	return found[0], nil
}

func (s *Session) Locate(ctx context.Context, loc Locator) (Element, bool) {
	el, err := s.first(ctx, nil, loc)
	return el, err == nil
}

func (s *Session) LocateIn(ctx context.Context, parent Element, loc Locator) (Element, bool) {
	el, err := s.first(ctx, parent, loc)
	return el, err == nil
}

func (s *Session) LocateAll(ctx context.Context, loc Locator) []Element {
	found, err := s.lookup(ctx, nil, loc)
	if err != nil {
		return nil
	}
	return found
}

func (s *Session) LocateAllIn(ctx context.Context, parent Element, loc Locator) []Element {
	found, err := s.lookup(ctx, parent, loc)
	if err != nil {
		return nil
	}
	return found
}

func (s *Session) WaitFor(ctx context.Context, loc Locator, wait Wait) (Element, error) {
	return s.WaitForIn(ctx, nil, loc, wait)
}

func (s *Session) WaitForIn(ctx context.Context, parent Element, loc Locator, wait Wait) (el Element, err error) {
	ctx, span := s.startSpan(ctx, "WaitFor", attribute.String("locator", string(loc)))
	defer func() { endSpan(span, err) }()

	el, err = Until(ctx, wait, func(ctx context.Context) (Element, error) {
		el, err := s.first(ctx, parent, loc)
		if err == nil || errors.Is(err, ErrElementNotFound) || errors.Is(err, ErrSessionClosed) || ctx.Err() != nil {
			return el, err
		}
		// lookups can fail while the page navigates, a closed session cannot
		// recover and is returned as is
		return nil, fmt.Errorf("%w: %s: %w", ErrElementNotFound, loc, err)
	})
	if err != nil {
		return nil, fmt.Errorf("wait for %s: %w", loc, err)
	}
	return el, nil
}

func (s *Session) Text(ctx context.Context, el Element) (string, error) {
	n, err := asNode(el)
	if err != nil {
		return "", err
	}
	var text string
	err = s.run(ctx, chromedp.Text(n.ids(), &text, chromedp.ByNodeID))
	if err != nil {
		return "", fmt.Errorf("%w: read text of %s: %w", ErrScript, n, err)
	}
	return strings.TrimSpace(text), nil
}

func (s *Session) Type(ctx context.Context, loc Locator, text string) (err error) {
	ctx, span := s.startSpan(ctx, "Type", attribute.String("locator", string(loc)))
	defer func() { endSpan(span, err) }()

	el, err := s.WaitFor(ctx, loc, Wait{})
	if err != nil {
		return err
	}
	n, err := asNode(el)
	if err != nil {
		return err
	}
	if err = s.throttle(ctx); err != nil {
		return err
	}
	err = s.run(ctx, chromedp.SendKeys(n.ids(), text, chromedp.ByNodeID))
	if err != nil {
		return fmt.Errorf("%w: type into %s: %w", ErrScript, loc, err)
	}
	return nil
}

func (s *Session) Click(ctx context.Context, el Element) (err error) {
	ctx, span := s.startSpan(ctx, "Click", attribute.String("element", el.String()))
	defer func() { endSpan(span, err) }()

	n, err := asNode(el)
	if err != nil {
		return err
	}
	if err = s.throttle(ctx); err != nil {
		return err
	}
	err = s.run(ctx, chromedp.MouseClickNode(n.n))
	if err != nil {
		return fmt.Errorf("%w: click %s: %w", ErrScript, n, err)
	}
	return nil
}

func quadCenter(quad dom.Quad) (float64, float64) {
	var x, y float64
	for i := 0; i+1 < len(quad); i += 2 {
		x += quad[i]
		y += quad[i+1]
	}
	points := float64(len(quad) / 2)
	return math.Round(x / points), math.Round(y / points)
}

// Hover moves the mouse over the center of the element.
func (s *Session) Hover(ctx context.Context, el Element) (err error) {
	ctx, span := s.startSpan(ctx, "Hover", attribute.String("element", el.String()))
	defer func() { endSpan(span, err) }()

	n, err := asNode(el)
	if err != nil {
		return err
	}
	if err = s.throttle(ctx); err != nil {
		return err
	}
	err = s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		err := dom.ScrollIntoViewIfNeeded().WithNodeID(n.n.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		quads, err := dom.GetContentQuads().WithNodeID(n.n.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		if len(quads) == 0 {
			return fmt.Errorf("element has no layout")
		}
		x, y := quadCenter(quads[0])
		return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("%w: hover %s: %w", ErrScript, n, err)
	}
	return nil
}

func (s *Session) ScrollIntoView(ctx context.Context, el Element, opts ScrollOptions) (err error) {
	n, err := asNode(el)
	if err != nil {
		return err
	}
	if err = s.throttle(ctx); err != nil {
		return err
	}
	encoded, err := json.Marshal(map[string]string{
		"behavior": string(opts.Behavior),
		"block":    string(opts.Block),
		"inline":   string(opts.Inline),
	})
	if err != nil {
		return err
	}
	fn := fmt.Sprintf(`function() { this.scrollIntoView(%s); }`, encoded)

	err = s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		object, err := dom.ResolveNode().WithNodeID(n.n.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		defer runtime.ReleaseObject(object.ObjectID).Do(ctx)

		_, exception, err := runtime.CallFunctionOn(fn).
			WithObjectID(object.ObjectID).
			Do(ctx)
		if err != nil {
			return err
		}
		if exception != nil {
			return exception
		}
		return nil
	}))
	if err != nil {
		return fmt.Errorf("%w: scroll %s into view: %w", ErrScript, n, err)
	}
	return nil
}

func (s *Session) RunScript(ctx context.Context, fn string, out any, args ...any) (err error) {
	ctx, span := s.startSpan(ctx, "RunScript")
	defer func() { endSpan(span, err) }()

	err = s.run(ctx, chromedp.CallFunctionOn(fn, out, func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
		return p.WithAwaitPromise(true)
	}, args...))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrScript, err)
	}
	return nil
}

func (s *Session) Cookies(ctx context.Context) ([]Cookie, error) {
	var cookies []*network.Cookie
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("get cookies: %w", err)
	}

	out := make([]Cookie, len(cookies))
	for i, c := range cookies {
		out[i] = Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HttpOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		// session cookies have a negative expiry
		if c.Expires > 0 {
			sec, frac := math.Modf(c.Expires)
			out[i].Expires = time.Unix(int64(sec), int64(frac*1e9))
		}
	}
	return out, nil
}

func (s *Session) SetCookies(ctx context.Context, cookies []Cookie) error {
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			params := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithHTTPOnly(c.HttpOnly).
				WithSecure(c.Secure)
			if !c.Expires.IsZero() {
				expires := cdp.TimeSinceEpoch(c.Expires)
				params = params.WithExpires(&expires)
			}
			err := params.Do(ctx)
			if err != nil {
				return fmt.Errorf("set cookie %s: %w", c.Name, err)
			}
		}
		return nil
	}))
	if err != nil {
		return fmt.Errorf("set cookies: %w", err)
	}
	return nil
}
