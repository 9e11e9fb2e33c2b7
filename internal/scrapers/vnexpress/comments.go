package vnexpress

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"threadscrape/internal/browser"
	"threadscrape/internal/components/assert"
	"threadscrape/internal/components/chrono"
	"threadscrape/internal/components/telemetry"
	"threadscrape/internal/scrape"
	"threadscrape/lib/textutil"
	"time"
	"unicode"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	report_comments_scrape      = "comments.scrape"
	report_comments_extract     = "comments.extract"
	report_comments_user_prefix = "comments.user-prefix"
	report_comments_expand      = "comments.expand-replies"
	report_comments_extracted   = "comments.extracted"
	report_comments_metrics     = "comments.metrics"
)

var meter = otel.Meter("threadscrape/internal/scrapers/vnexpress")

const (
	DefaultMaxExpansions    = 100
	DefaultExpansionTimeout = 2 * time.Minute
)

type CommentOptions struct {
	// ContainerWait bounds how long to wait for the comment box of an
	// article, an article without one fails.
	ContainerWait browser.Wait
	// MaxExpansions caps the number of "load more replies" clicks per
	// comment, a negative value means no cap.
	MaxExpansions int
	// ExpansionTimeout caps the time spent clicking "load more replies" on a
	// single comment.
	ExpansionTimeout time.Duration

	Clock    chrono.API
	Sequence *scrape.Sequence
}

func (o CommentOptions) withDefaults() CommentOptions {
	if o.MaxExpansions == 0 {
		o.MaxExpansions = DefaultMaxExpansions
	}
	if o.ExpansionTimeout <= 0 {
		o.ExpansionTimeout = DefaultExpansionTimeout
	}
	if o.Clock == nil {
		o.Clock = chrono.StandardImpl{}
	}
	if o.Sequence == nil {
		o.Sequence = &scrape.Sequence{}
	}
	return o
}

// CommentScraper scrapes the comment threads of vnexpress articles.
type CommentScraper struct {
	driver browser.Driver
	tel    telemetry.API
	opts   CommentOptions
	sinks  []scrape.Sink[Comment]

	extracted  metric.Int64Counter
	expansions metric.Int64Counter

	// comments extracted from the current url, replies included
	count int
}

func NewCommentScraper(driver browser.Driver, tel telemetry.API, opts CommentOptions, sinks ...scrape.Sink[Comment]) *CommentScraper {
	assert.NotNil(driver)
	assert.NotNil(tel)

	s := &CommentScraper{
		driver: driver,
		tel:    telemetry.NewScopedAPI("vnexpress", tel),
		opts:   opts.withDefaults(),
		sinks:  sinks,
	}
	s.extracted = s.counter("comments_extracted")
	s.expansions = s.counter("reply_expansions")
	return s
}

func (s *CommentScraper) counter(name string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name)
	if err != nil {
		s.tel.ReportBroken(report_comments_metrics, err, name)
		return noop.Int64Counter{}
	}
	return counter
}

// Scrape scrapes every comment of each url in order. A url that fails is
// skipped, the returned error joins every failure. A closed browser session
// ends the whole run.
func (s *CommentScraper) Scrape(ctx context.Context, urls []string) ([]scrape.Page[Comment], error) {
	var pages []scrape.Page[Comment]
	var errs []error
	for _, url := range urls {
		page, err := s.scrapePage(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return pages, ctx.Err()
			}
			s.tel.ReportBroken(report_comments_scrape, err, url)
			errs = append(errs, fmt.Errorf("scrape %s: %w", url, err))
			if errors.Is(err, browser.ErrSessionClosed) {
				break
			}
			continue
		}
		pages = append(pages, page)

		err = scrape.WriteAll(ctx, page, s.sinks...)
		if err != nil {
			s.tel.ReportBroken(report_comments_scrape, fmt.Errorf("write page: %w", err), url)
			errs = append(errs, err)
		}
	}
	return pages, errors.Join(errs...)
}

func (s *CommentScraper) scrapePage(ctx context.Context, url string) (scrape.Page[Comment], error) {
	s.tel.ReportDebug("loading article", url)
	s.count = 0

	err := s.driver.Navigate(ctx, url)
	if err != nil {
		return scrape.Page[Comment]{}, err
	}
	box, err := s.driver.WaitFor(ctx, commentBox, s.opts.ContainerWait)
	if err != nil {
		return scrape.Page[Comment]{}, fmt.Errorf("comment box: %w", err)
	}
	if browser.TryClick(ctx, s.driver, box, loadMoreComments) {
		s.tel.ReportDebug("loaded more comments")
	}

	builder := scrape.NewPageBuilder[Comment](s.opts.Sequence, s.opts.Clock).SetURL(url)
	for _, el := range s.driver.LocateAllIn(ctx, box, topLevelComment) {
		comment, err := s.extract(ctx, el)
		if err != nil {
			s.tel.ReportBroken(report_comments_extract, err, url)
			return scrape.Page[Comment]{}, err
		}
		builder.AddElement(comment)
	}

	s.tel.ReportCount(report_comments_extracted, int64(s.count))
	return builder.SetCount(s.count).Build()
}

// extract reads a comment and, recursively, its replies.
func (s *CommentScraper) extract(ctx context.Context, el browser.Element) (Comment, error) {
	s.count++
	s.extracted.Add(ctx, 1)

	builder := &CommentBuilder{}
	variant := variantCollapsed
	// replies are nested inside their parent, the first content block is
	// the comment's own.
	content, ok := s.driver.LocateIn(ctx, el, commentContent)
	if ok {
		var err error
		variant, err = s.readContent(ctx, content, builder)
		if err != nil {
			return Comment{}, err
		}
	}

	timestamp, found, err := browser.TextOf(ctx, s.driver, el, commentTime)
	if err != nil {
		return Comment{}, err
	}
	if found {
		builder.SetTimestamp(timestamp)
	}

	comment, err := builder.Build()
	if err != nil {
		return Comment{}, fmt.Errorf("%s comment: %w", variant, err)
	}

	err = s.expandReplies(ctx, el)
	if err != nil {
		return Comment{}, err
	}
	for _, replyEl := range s.driver.LocateAllIn(ctx, el, replyComment) {
		reply, err := s.extract(ctx, replyEl)
		if err != nil {
			return Comment{}, err
		}
		comment.Replies = append(comment.Replies, reply)
	}
	return comment, nil
}

// readContent reads the user and the message of a content block, expanding
// it first when it was cut short.
func (s *CommentScraper) readContent(ctx context.Context, content browser.Element, builder *CommentBuilder) (markupVariant, error) {
	variant := variantCollapsed
	if browser.TryClick(ctx, s.driver, content, shrunkComment) {
		variant = variantExpanded
	}
	locs := variant.locators()

	user, found, err := browser.TextOf(ctx, s.driver, content, locs.user)
	if err != nil {
		return variant, err
	}
	if found {
		builder.SetUser(user)
	}

	raw, found, err := browser.TextOf(ctx, s.driver, content, locs.message)
	if err != nil {
		return variant, err
	}
	if found {
		builder.SetMessage(s.stripUser(raw, user, variant))
	}
	return variant, nil
}

// stripUser removes the user name the message markup starts with, and the
// whitespace separating it from the message.
func (s *CommentScraper) stripUser(message, user string, variant markupVariant) string {
	rest, ok := textutil.TrimPrefixFold(message, user)
	if !ok {
		s.tel.ReportWarning(report_comments_user_prefix, variant.String(), user, message)
		return message
	}
	return strings.TrimLeftFunc(rest, unicode.IsSpace)
}

// expandReplies clicks "load more replies" until it disappears or a cap is
// hit, in which case the visible replies are kept and a warning reported.
func (s *CommentScraper) expandReplies(ctx context.Context, el browser.Element) error {
	start := s.opts.Clock.Now()
	for expansions := 0; ; expansions++ {
		if _, more := s.driver.LocateIn(ctx, el, loadMoreReplies); !more {
			return ctx.Err()
		}

		capped := s.opts.MaxExpansions > 0 && expansions >= s.opts.MaxExpansions
		if capped || s.opts.Clock.Now().Sub(start) >= s.opts.ExpansionTimeout {
			s.tel.ReportWarning(
				report_comments_expand,
				fmt.Errorf("%w: gave up after %d expansions", scrape.ErrExpansionIncomplete, expansions),
			)
			return nil
		}

		if !browser.TryClick(ctx, s.driver, el, loadMoreReplies) {
			return ctx.Err()
		}
		s.expansions.Add(ctx, 1)
	}
}
