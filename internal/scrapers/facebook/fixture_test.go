package facebook

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"threadscrape/internal/browser"
	"threadscrape/internal/browser/browsertest"

	"github.com/PuerkitoBio/goquery"
)

var (
	tagPattern      = regexp.MustCompile(`^[a-zA-Z]*`)
	nthChildPattern = regexp.MustCompile(`^:nth-child\((\d+)\)`)
	nthTypePattern  = regexp.MustCompile(`^:nth-of-type\((\d+)\)`)
	lastChild       = ":last-child"
	attrPattern     = regexp.MustCompile(`^\[([\w-]+)(?:=("?)([^"\]]*)"?)?\]`)
	idPattern       = regexp.MustCompile(`^#([\w-]+)`)
)

type step struct {
	tag       string
	attrs     []string
	nthChild  int
	nthOfType int
}

func parseStep(t testing.TB, raw string) step {
	s := step{tag: tagPattern.FindString(raw)}
	rest := raw[len(s.tag):]
	if s.tag == "" {
		s.tag = "span"
	}
	for rest != "" {
		switch {
		case strings.HasPrefix(rest, lastChild):
			rest = rest[len(lastChild):]
		case nthChildPattern.MatchString(rest):
			m := nthChildPattern.FindStringSubmatch(rest)
			s.nthChild, _ = strconv.Atoi(m[1])
			rest = rest[len(m[0]):]
		case nthTypePattern.MatchString(rest):
			m := nthTypePattern.FindStringSubmatch(rest)
			s.nthOfType, _ = strconv.Atoi(m[1])
			rest = rest[len(m[0]):]
		case attrPattern.MatchString(rest):
			m := attrPattern.FindStringSubmatch(rest)
			s.attrs = append(s.attrs, fmt.Sprintf(`%s="%s"`, m[1], m[3]))
			rest = rest[len(m[0]):]
		case idPattern.MatchString(rest):
			m := idPattern.FindStringSubmatch(rest)
			s.attrs = append(s.attrs, fmt.Sprintf(`id="%s"`, m[1]))
			rest = rest[len(m[0]):]
		default:
			t.Fatalf("unsupported selector step %q", raw)
		}
	}
	return s
}

// nest renders the minimal markup matched by a chain of child combinators,
// with inner placed inside the last element. Positional constraints are met
// by inserting filler siblings before each element.
func nest(t testing.TB, loc browser.Locator, inner string) string {
	t.Helper()
	steps := strings.Split(string(loc), " > ")

	var open, closing strings.Builder
	for _, raw := range steps {
		s := parseStep(t, strings.TrimSpace(raw))
		for i := 1; i < s.nthChild; i++ {
			open.WriteString("<s></s>")
		}
		for i := 1; i < s.nthOfType; i++ {
			fmt.Fprintf(&open, "<%s></%s>", s.tag, s.tag)
		}
		open.WriteString("<" + s.tag)
		for _, attr := range s.attrs {
			open.WriteString(" " + attr)
		}
		open.WriteString(">")
	}
	for i := len(steps) - 1; i >= 0; i-- {
		closing.WriteString("</" + parseStep(t, strings.TrimSpace(steps[i])).tag + ">")
	}
	return open.String() + inner + closing.String()
}

func trimRoot(t testing.TB, loc browser.Locator, root string) browser.Locator {
	t.Helper()
	trimmed, ok := strings.CutPrefix(string(loc), root+" > ")
	if !ok {
		t.Fatalf("%s does not start with %s", loc, root)
	}
	return browser.Locator(trimmed)
}

type testPost struct {
	text  string
	time  string
	likes string
	// full is revealed by clicking the "see more" button when not empty
	full string
}

// tooltipContainer is the parent of the time tooltip leaf.
var tooltipContainer = browser.Locator(strings.TrimSuffix(string(timeTooltip), " > span"))

func renderFeed(t testing.TB, posts []testPost) string {
	t.Helper()

	var feed strings.Builder
	for _, p := range posts {
		fmt.Fprintf(&feed, `<div class="post" data-time="%s">`, p.time)
		feed.WriteString(nest(t, timeTrigger, "2h"))
		feed.WriteString(nest(t, postText, p.text))
		if p.likes != "" {
			feed.WriteString(nest(t, postLikes, p.likes))
		}
		if p.full != "" {
			feed.WriteString(`<div class="shrunk" data-full="` + p.full + `">`)
			feed.WriteString(nest(t, shrunkMessage, "See more"))
			feed.WriteString(`</div>`)
		}
		feed.WriteString(`</div>`)
	}

	tooltip := nest(t, trimRoot(t, tooltipContainer, "body"), "")
	root := fmt.Sprintf(`<div><div><div role="main"><div id="feed">%s</div></div></div></div>`, feed.String())
	return "<html><body>" + tooltip + root + "</body></html>"
}

func postOf(el *goquery.Selection) *goquery.Selection {
	return el.Closest("div.post")
}

// newFeed serves the given posts at url and scripts the tooltip and the
// "see more" button the way the feed does.
func newFeed(t testing.TB, url string, posts []testPost) *browsertest.Browser {
	t.Helper()

	b := browsertest.New().AddPage(url, renderFeed(t, posts))
	b.OnHover(timeTrigger, func(b *browsertest.Browser, el *goquery.Selection) error {
		stamp := postOf(el).AttrOr("data-time", "")
		b.Document().Find(string(tooltipContainer)).AppendHtml("<span>" + stamp + "</span>")
		return nil
	})
	b.OnHover(postText, func(b *browsertest.Browser, el *goquery.Selection) error {
		b.Document().Find(string(timeTooltip)).Remove()
		return nil
	})
	b.OnClick(shrunkMessage, func(b *browsertest.Browser, el *goquery.Selection) error {
		post := postOf(el)
		full := el.Closest("div.shrunk").AttrOr("data-full", "")
		post.Find(string(postText)).First().SetText(full)
		return nil
	})
	return b
}
