package facebook

import (
	"context"
	"errors"
	"fmt"
	"threadscrape/internal/browser"
	"threadscrape/internal/components/assert"
	"threadscrape/internal/components/chrono"
	"threadscrape/internal/components/telemetry"
	"threadscrape/internal/scrape"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	report_posts_scrape         = "posts.scrape"
	report_posts_extract        = "posts.extract"
	report_posts_feed_exhausted = "posts.feed-exhausted"
	report_posts_extracted      = "posts.extracted"
	report_posts_metrics        = "posts.metrics"
)

var meter = otel.Meter("threadscrape/internal/scrapers/facebook")

const (
	// DefaultInitialPageWait leaves the feed's scripts time to settle after
	// the page reports it is loaded.
	DefaultInitialPageWait = 5 * time.Second
	// DefaultTooltipDelay is how long the feed takes to render (and remove)
	// the time tooltip after the mouse moves.
	DefaultTooltipDelay = 2 * time.Second
)

type PostOptions struct {
	InitialPageWait time.Duration
	TooltipDelay    time.Duration
	// FeedWait bounds how long to wait for the next post to load, the feed
	// is considered exhausted when it times out.
	FeedWait browser.Wait
	// MaxPosts ends a page after that many posts, 0 means no limit.
	MaxPosts int

	Clock    chrono.API
	Sequence *scrape.Sequence
}

func (o PostOptions) withDefaults() PostOptions {
	if o.InitialPageWait <= 0 {
		o.InitialPageWait = DefaultInitialPageWait
	}
	if o.TooltipDelay <= 0 {
		o.TooltipDelay = DefaultTooltipDelay
	}
	if o.Clock == nil {
		o.Clock = chrono.StandardImpl{}
	}
	if o.Sequence == nil {
		o.Sequence = &scrape.Sequence{}
	}
	return o
}

// PostScraper scrapes the feed of facebook pages, the driver must already be
// logged in.
type PostScraper struct {
	driver browser.Driver
	tel    telemetry.API
	opts   PostOptions
	sinks  []scrape.Sink[Post]

	extracted metric.Int64Counter
}

func NewPostScraper(driver browser.Driver, tel telemetry.API, opts PostOptions, sinks ...scrape.Sink[Post]) *PostScraper {
	assert.NotNil(driver)
	assert.NotNil(tel)

	s := &PostScraper{
		driver: driver,
		tel:    telemetry.NewScopedAPI("facebook", tel),
		opts:   opts.withDefaults(),
		sinks:  sinks,
	}

	extracted, err := meter.Int64Counter("posts_extracted")
	if err != nil {
		s.tel.ReportBroken(report_posts_metrics, err)
		extracted = noop.Int64Counter{}
	}
	s.extracted = extracted
	return s
}

// Scrape scrapes each url in order until stop returns true for a post (that
// post included) or the feed runs out. A nil stop scrapes until the feed
// runs out.
//
// a url that fails is skipped, the returned error joins every failure. A
// closed browser session ends the whole run.
func (s *PostScraper) Scrape(ctx context.Context, urls []string, stop scrape.StopFunc[Post]) ([]scrape.Page[Post], error) {
	var pages []scrape.Page[Post]
	var errs []error
	for _, url := range urls {
		page, err := s.scrapePage(ctx, url, stop)
		if err != nil {
			if ctx.Err() != nil {
				return pages, ctx.Err()
			}
			s.tel.ReportBroken(report_posts_scrape, err, url)
			errs = append(errs, fmt.Errorf("scrape %s: %w", url, err))
			if errors.Is(err, browser.ErrSessionClosed) {
				break
			}
			continue
		}
		pages = append(pages, page)

		err = scrape.WriteAll(ctx, page, s.sinks...)
		if err != nil {
			s.tel.ReportBroken(report_posts_scrape, fmt.Errorf("write page: %w", err), url)
			errs = append(errs, err)
		}
	}
	return pages, errors.Join(errs...)
}

func (s *PostScraper) scrapePage(ctx context.Context, url string, stop scrape.StopFunc[Post]) (scrape.Page[Post], error) {
	s.tel.ReportDebug("loading page", url)
	err := s.driver.Navigate(ctx, url)
	if err == nil {
		err = s.driver.WaitLoaded(ctx)
	}
	if err == nil {
		err = s.driver.Sleep(ctx, s.opts.InitialPageWait)
	}
	if err != nil {
		return scrape.Page[Post]{}, err
	}

	if stop == nil {
		stop = scrape.Never[Post]()
	}
	if s.opts.MaxPosts > 0 {
		stop = scrape.StopAny(stop, scrape.StopAfter[Post](s.opts.MaxPosts))
	}

	builder := scrape.NewPageBuilder[Post](s.opts.Sequence, s.opts.Clock).SetURL(url)
	count := 0
	for index := 1; ; index++ {
		el, err := s.driver.WaitFor(ctx, postFormat.Nth(index), s.opts.FeedWait)
		if errors.Is(err, browser.ErrElementNotFound) {
			s.tel.ReportWarning(report_posts_feed_exhausted, url, index)
			break
		}
		if err != nil {
			return scrape.Page[Post]{}, err
		}

		post, err := s.extract(ctx, el)
		if err != nil {
			s.tel.ReportBroken(report_posts_extract, err, url, index)
			return scrape.Page[Post]{}, fmt.Errorf("post %d: %w", index, err)
		}
		builder.AddElement(post)
		count++
		s.extracted.Add(ctx, 1, metric.WithAttributes(attribute.String("url", url)))

		if stop(post) {
			break
		}
	}

	s.tel.ReportCount(report_posts_extracted, int64(count))
	return builder.SetCount(count).Build()
}

func (s *PostScraper) extract(ctx context.Context, post browser.Element) (Post, error) {
	trigger, ok := s.driver.LocateIn(ctx, post, timeTrigger)
	if !ok {
		return Post{}, fmt.Errorf("%w: time trigger", browser.ErrElementNotFound)
	}
	textEl, ok := s.driver.LocateIn(ctx, post, postText)
	if !ok {
		return Post{}, fmt.Errorf("%w: post text", browser.ErrElementNotFound)
	}

	err := s.driver.ScrollIntoView(ctx, trigger, browser.ScrollCentered)
	if err != nil {
		return Post{}, err
	}
	if browser.TryClick(ctx, s.driver, post, shrunkMessage) {
		s.tel.ReportDebug("expanded shrunk message")
	}

	builder := &PostBuilder{}
	text, err := s.driver.Text(ctx, textEl)
	if err != nil {
		return Post{}, err
	}
	builder.SetText(text)

	likes, found, err := browser.TextOf(ctx, s.driver, post, postLikes)
	if err != nil {
		return Post{}, err
	}
	if found {
		builder.SetLikes(likes)
	}

	// the full time only exists in a tooltip rendered on hover
	err = s.driver.Hover(ctx, trigger)
	if err == nil {
		err = s.driver.Sleep(ctx, s.opts.TooltipDelay)
	}
	if err != nil {
		return Post{}, err
	}
	if tooltip, ok := s.driver.Locate(ctx, timeTooltip); ok {
		stamp, err := s.driver.Text(ctx, tooltip)
		if err != nil {
			return Post{}, err
		}
		builder.SetTime(stamp)
	}

	// moving away lets the feed remove the tooltip before the next post
	err = s.driver.Hover(ctx, textEl)
	if err == nil {
		err = s.driver.Sleep(ctx, s.opts.TooltipDelay)
	}
	if err != nil {
		return Post{}, err
	}

	return builder.Build()
}
