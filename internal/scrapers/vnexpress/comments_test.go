package vnexpress

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"threadscrape/internal/browser"
	"threadscrape/internal/browser/browsertest"
	"threadscrape/internal/components/chrono"
	"threadscrape/internal/components/telemetry"
	"threadscrape/internal/scrape"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const articleURL = "https://vnexpress.net/some-article-123.html"

var scrapedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type testComment struct {
	id      string
	user    string
	message string
	time    string
	// long comments are rendered cut short with a "show full" control
	long    bool
	replies []testComment
	// hidden replies are only added by clicking "load more replies"
	hidden []testComment
}

func renderComment(c testComment, class string) string {
	var content string
	if c.long {
		content = fmt.Sprintf(
			`<p class="content_less"><a class="nickname"><b>%s</b></a> %s... <a class="icon_show_full_comment">more</a></p>`+
				`<p class="content_more" style="display:none"><span class="txt-name"><a class="nickname"><b>%s</b></a></span> %s</p>`,
			c.user, c.message[:len(c.message)/2], c.user, c.message,
		)
	} else {
		content = fmt.Sprintf(`<p class="full_content"><span class="txt-name"><a class="nickname"><b>%s</b></a></span> %s</p>`, c.user, c.message)
	}

	var replies strings.Builder
	for _, r := range c.replies {
		replies.WriteString(renderComment(r, "sub_comment_item comment_item width_common"))
	}
	loadMore := ""
	if len(c.hidden) > 0 {
		loadMore = `<p class="count-reply"><a class="view_all_reply">more replies</a></p>`
	}

	return fmt.Sprintf(
		`<div class="%s" id="%s"><div class="content-comment">%s</div><span class="time-com">%s</span>%s<div class="sub_comment">%s</div></div>`,
		class, c.id, content, c.time, loadMore, replies.String(),
	)
}

func renderArticle(comments []testComment, extra []testComment) string {
	var list strings.Builder
	for _, c := range comments {
		list.WriteString(renderComment(c, "comment_item width_common"))
	}
	viewMore := ""
	if len(extra) > 0 {
		viewMore = `<a class="view_more_coment">Xem thêm</a>`
	}
	return fmt.Sprintf(
		`<html><body><article>text</article><div class="box_comment_vne width_common"><div id="list_comment">%s</div>%s</div></body></html>`,
		list.String(), viewMore,
	)
}

// newArticle serves an article whose "load more" controls reveal the hidden
// comments and replies one per click.
func newArticle(url string, comments []testComment, extra []testComment) *browsertest.Browser {
	hidden := map[string][]testComment{}
	var index func(cs []testComment)
	index = func(cs []testComment) {
		for _, c := range cs {
			hidden[c.id] = c.hidden
			index(c.replies)
			index(c.hidden)
		}
	}
	index(comments)
	index(extra)

	b := browsertest.New().AddPage(url, renderArticle(comments, extra))
	b.OnClick(loadMoreComments, func(b *browsertest.Browser, el *goquery.Selection) error {
		for _, c := range extra {
			b.Document().Find("#list_comment").AppendHtml(renderComment(c, "comment_item width_common"))
		}
		el.Remove()
		return nil
	})
	b.OnClick(loadMoreReplies, func(b *browsertest.Browser, el *goquery.Selection) error {
		item := el.Closest(".comment_item")
		id := item.AttrOr("id", "")
		pending := hidden[id]
		if len(pending) == 0 {
			return fmt.Errorf("nothing left to load for %s", id)
		}
		item.ChildrenFiltered("div.sub_comment").AppendHtml(renderComment(pending[0], "sub_comment_item comment_item width_common"))
		hidden[id] = pending[1:]
		if len(hidden[id]) == 0 {
			el.Parent().Remove()
		}
		return nil
	})
	b.OnClick(shrunkComment, func(b *browsertest.Browser, el *goquery.Selection) error {
		el.Closest("div.content-comment").Find("p.content_more").RemoveAttr("style")
		return nil
	})
	return b
}

func newCommentScraper(driver browser.Driver, tel telemetry.API, opts CommentOptions, sinks ...scrape.Sink[Comment]) *CommentScraper {
	opts.Clock = chrono.FixedImpl{Time: scrapedAt}
	return NewCommentScraper(driver, tel, opts, sinks...)
}

func leaf(user, message, time string) Comment {
	return Comment{User: user, Message: message, Timestamp: time, Replies: []Comment{}}
}

func TestScrapeCommentTree(t *testing.T) {
	comments := []testComment{
		{
			id: "c1", user: "alice", message: "great article", time: "2h",
			replies: []testComment{
				{id: "r1", user: "bob", message: "agreed", time: "1h"},
			},
			hidden: []testComment{
				{id: "r2", user: "carol", message: "not really", time: "50m"},
				{id: "r3", user: "dave", message: "why not", time: "40m"},
			},
		},
		{id: "c2", user: "erin", message: "first!", time: "3h"},
	}
	b := newArticle(articleURL, comments, nil)
	tel := telemetry.NewRecorder()
	collector := &scrape.Collector[Comment]{}

	pages, err := newCommentScraper(b, tel, CommentOptions{}, collector).Scrape(context.Background(), []string{articleURL})
	require.NoError(t, err)
	require.Len(t, pages, 1)

	expected := scrape.Page[Comment]{
		Count:    5,
		Sequence: 1,
		URL:      articleURL,
		Scraped:  scrapedAt,
		Elements: []Comment{
			{
				User: "alice", Message: "great article", Timestamp: "2h",
				Replies: []Comment{
					leaf("bob", "agreed", "1h"),
					leaf("carol", "not really", "50m"),
					leaf("dave", "why not", "40m"),
				},
			},
			leaf("erin", "first!", "3h"),
		},
	}
	if diff := cmp.Diff(expected, pages[0]); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, pages, collector.Pages)
	require.Empty(t, tel.Filter(telemetry.KindWarning, ""))

	counts := tel.Filter(telemetry.KindCount, "comments.extracted")
	require.Len(t, counts, 1)
	require.EqualValues(t, 5, counts[0].Count)
}

func TestScrapeLoadsMoreComments(t *testing.T) {
	b := newArticle(articleURL,
		[]testComment{{id: "c1", user: "alice", message: "one", time: "2h"}},
		[]testComment{{id: "c2", user: "bob", message: "two", time: "3h"}},
	)

	pages, err := newCommentScraper(b, telemetry.NewRecorder(), CommentOptions{}).Scrape(context.Background(), []string{articleURL})
	require.NoError(t, err)
	require.Equal(t, []Comment{
		leaf("alice", "one", "2h"),
		leaf("bob", "two", "3h"),
	}, pages[0].Elements)
}

func TestScrapeShrunkComment(t *testing.T) {
	b := newArticle(articleURL, []testComment{
		{id: "c1", user: "Alice", message: "a rather long comment that was cut short", time: "2h", long: true},
	}, nil)

	pages, err := newCommentScraper(b, telemetry.NewRecorder(), CommentOptions{}).Scrape(context.Background(), []string{articleURL})
	require.NoError(t, err)
	require.Equal(t, leaf("Alice", "a rather long comment that was cut short", "2h"), pages[0].Elements[0])
	require.Equal(t, []string{"<a .icon_show_full_comment>"}, b.Clicked)
}

func TestScrapeZeroRepliesIsEmpty(t *testing.T) {
	b := newArticle(articleURL, []testComment{{id: "c1", user: "alice", message: "hi", time: "2h"}}, nil)

	pages, err := newCommentScraper(b, telemetry.NewRecorder(), CommentOptions{}).Scrape(context.Background(), []string{articleURL})
	require.NoError(t, err)
	require.NotNil(t, pages[0].Elements[0].Replies)
	require.Empty(t, pages[0].Elements[0].Replies)
}

func TestScrapeCapsExpansions(t *testing.T) {
	b := newArticle(articleURL, []testComment{
		{
			id: "c1", user: "alice", message: "hi", time: "2h",
			hidden: []testComment{
				{id: "r1", user: "bob", message: "one", time: "1h"},
				{id: "r2", user: "carol", message: "two", time: "1h"},
				{id: "r3", user: "dave", message: "three", time: "1h"},
			},
		},
	}, nil)
	tel := telemetry.NewRecorder()

	pages, err := newCommentScraper(b, tel, CommentOptions{MaxExpansions: 2}).Scrape(context.Background(), []string{articleURL})
	require.NoError(t, err)
	require.Len(t, pages[0].Elements[0].Replies, 2)
	require.Equal(t, 3, pages[0].Count)

	warnings := tel.Filter(telemetry.KindWarning, "comments.expand-replies")
	require.Len(t, warnings, 1)
	require.ErrorIs(t, warnings[0].Params[0].(error), scrape.ErrExpansionIncomplete)
}

func TestScrapeKeepsMessageWithoutUserPrefix(t *testing.T) {
	b := browsertest.New().AddPage(articleURL, `<html><body><div class="box_comment_vne width_common">
		<div class="comment_item width_common"><div class="content-comment">
			<p class="full_content">@<a class="nickname"><b>alice</b></a> hi</p>
		</div><span class="time-com">2h</span></div>
	</div></body></html>`)
	tel := telemetry.NewRecorder()

	pages, err := newCommentScraper(b, tel, CommentOptions{}).Scrape(context.Background(), []string{articleURL})
	require.NoError(t, err)
	require.Equal(t, leaf("alice", "@alice hi", "2h"), pages[0].Elements[0])
	require.Len(t, tel.Filter(telemetry.KindWarning, "comments.user-prefix"), 1)
}

func TestScrapeMissingCommentBox(t *testing.T) {
	b := browsertest.New().AddPage(articleURL, `<html><body><p>no comments here</p></body></html>`)
	tel := telemetry.NewRecorder()

	pages, err := newCommentScraper(b, tel, CommentOptions{}).Scrape(context.Background(), []string{articleURL})
	require.ErrorIs(t, err, browser.ErrElementNotFound)
	require.Empty(t, pages)
	require.Len(t, tel.Filter(telemetry.KindBroken, "comments.scrape"), 1)
}

func TestScrapeInvalidComment(t *testing.T) {
	b := browsertest.New().AddPage(articleURL, `<html><body><div class="box_comment_vne width_common">
		<div class="comment_item width_common"><div class="content-comment"><p class="full_content">no user</p></div></div>
	</div></body></html>`)

	_, err := newCommentScraper(b, telemetry.NewRecorder(), CommentOptions{}).Scrape(context.Background(), []string{articleURL})
	require.ErrorIs(t, err, scrape.ErrInvalidRecord)
	require.ErrorContains(t, err, "user, timestamp")
}

func TestScrapeShrunkReplyDoesNotExpandParent(t *testing.T) {
	b := newArticle(articleURL, []testComment{
		{
			id: "c1", user: "alice", message: "short", time: "2h",
			replies: []testComment{
				{id: "r1", user: "bob", message: "a long reply that was cut short by the site", time: "1h", long: true},
			},
		},
	}, nil)
	tel := telemetry.NewRecorder()

	pages, err := newCommentScraper(b, tel, CommentOptions{}).Scrape(context.Background(), []string{articleURL})
	require.NoError(t, err)

	expected := []Comment{
		{
			User: "alice", Message: "short", Timestamp: "2h",
			Replies: []Comment{
				leaf("bob", "a long reply that was cut short by the site", "1h"),
			},
		},
	}
	if diff := cmp.Diff(expected, pages[0].Elements); diff != "" {
		t.Fatal(diff)
	}
	// only the reply's own control is clicked
	require.Equal(t, []string{"<a .icon_show_full_comment>"}, b.Clicked)
	require.Empty(t, tel.Filter(telemetry.KindWarning, ""))
}

func TestStripUserTrimsSeparator(t *testing.T) {
	s := newCommentScraper(browsertest.New(), telemetry.NewRecorder(), CommentOptions{})

	require.Equal(t, "hi there", s.stripUser("alice \t hi there", "alice", variantCollapsed))
	require.Equal(t, "hi", s.stripUser("Alice hi", "alice", variantExpanded))
	require.Equal(t, "", s.stripUser("alice", "alice", variantCollapsed))
}

func TestScrapeStopsWhenSessionCloses(t *testing.T) {
	const secondURL = "https://vnexpress.net/another-article-456.html"
	b := newArticle(articleURL, []testComment{{id: "c1", user: "alice", message: "hi", time: "2h"}}, nil)
	b.AddPage(secondURL, renderArticle([]testComment{{id: "c2", user: "bob", message: "yo", time: "1h"}}, nil))
	tel := telemetry.NewRecorder()
	collector := &scrape.Collector[Comment]{}

	scraper := newCommentScraper(&crashAfterNavigate{Browser: b}, tel, CommentOptions{}, collector)
	pages, err := scraper.Scrape(context.Background(), []string{articleURL, secondURL})
	require.ErrorIs(t, err, browser.ErrSessionClosed)
	require.NotErrorIs(t, err, browser.ErrElementNotFound)
	require.Empty(t, pages)
	require.Empty(t, collector.Pages)
	require.Equal(t, []string{articleURL}, b.Navigations)
	require.Len(t, tel.Filter(telemetry.KindBroken, "comments.scrape"), 1)
}

// crashAfterNavigate is a Browser whose tab crashes as soon as a page is
// loaded.
type crashAfterNavigate struct {
	*browsertest.Browser
}

func (c *crashAfterNavigate) Navigate(ctx context.Context, url string) error {
	err := c.Browser.Navigate(ctx, url)
	c.Browser.Crash()
	return err
}
