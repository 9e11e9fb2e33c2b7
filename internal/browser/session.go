package browser

import (
	"context"
	"fmt"
	"threadscrape/internal/components/telemetry"
	"time"

	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("threadscrape/internal/browser")

const (
	report_session_open = "session.open"
	report_session_cdp  = "session.cdp"
)

type Options struct {
	// RemoteURL attaches to an already running browser, either its DevTools
	// http endpoint or its browser websocket. When empty a local browser is
	// launched.
	RemoteURL string
	// ExecPath of the local browser, empty to let chromedp find one.
	ExecPath     string
	Headless     bool
	WindowWidth  int
	WindowHeight int
	UserAgent    string
	// ActionsPerSecond throttles navigation and simulated input, 0 disables
	// throttling.
	ActionsPerSecond float64
}

// Session is a Driver backed by a single chromedp tab. It is owned by whoever
// opened it and must be closed by them.
type Session struct {
	ctx     context.Context
	cancel  context.CancelFunc
	limiter *rate.Limiter
	tel     telemetry.API
}

// Open starts (or attaches to) a browser and opens a tab in it.
func Open(ctx context.Context, opts Options, tel telemetry.API) (*Session, error) {
	tel = telemetry.NewScopedAPI("browser", tel)

	var allocCtx context.Context
	var cancelAlloc context.CancelFunc
	if opts.RemoteURL != "" {
		ws, err := discoverWebsocket(ctx, opts.RemoteURL, tel)
		if err != nil {
			return nil, err
		}
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(context.Background(), ws, chromedp.NoModifyURL)
	} else {
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(context.Background(), execOptions(opts)...)
	}

	tabCtx, cancelTab := chromedp.NewContext(
		allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			tel.ReportDebug(fmt.Sprintf(format, args...))
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			tel.ReportWarning(report_session_cdp, fmt.Sprintf(format, args...))
		}),
	)

	s := &Session{
		ctx: tabCtx,
		cancel: func() {
			cancelTab()
			cancelAlloc()
		},
		tel: tel,
	}
	if opts.ActionsPerSecond > 0 {
		burst := int(opts.ActionsPerSecond)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.ActionsPerSecond), burst)
	}

	// the first run allocates the tab, it must not happen on a context that
	// is canceled before the session is closed.
	err := chromedp.Run(tabCtx)
	if err == nil && opts.RemoteURL != "" && opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		err = chromedp.Run(tabCtx, chromedp.EmulateViewport(int64(opts.WindowWidth), int64(opts.WindowHeight)))
	}
	if err != nil {
		s.cancel()
		tel.ReportBroken(report_session_open, err)
		return nil, fmt.Errorf("open browser session: %w", err)
	}
	return s, nil
}

func execOptions(opts Options) []chromedp.ExecAllocatorOption {
	out := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.IgnoreCertErrors,
	)
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		out = append(out, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if opts.UserAgent != "" {
		out = append(out, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		out = append(out, chromedp.ExecPath(opts.ExecPath))
	}
	return out
}

// Close closes the tab and releases the browser (killing it when it was
// launched locally). It is safe to call more than once.
func (s *Session) Close() {
	s.cancel()
}

// bind derives a context from the tab context that is also canceled when ctx
// is done and carries ctx's deadline.
func (s *Session) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(s.ctx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		cancelParent := cancel
		cancel = func() {
			cancelDeadline()
			cancelParent()
		}
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := s.bind(ctx)
	defer cancel()
	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil && s.ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrSessionClosed, err)
	}
	return err
}

// throttle blocks until the rate limiter allows another interaction.
func (s *Session) throttle(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func (s *Session) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Session) Navigate(ctx context.Context, url string) (err error) {
	ctx, span := s.startSpan(ctx, "Navigate", attribute.String("url", url))
	defer func() { endSpan(span, err) }()

	if err = s.throttle(ctx); err != nil {
		return err
	}
	s.tel.ReportDebug("navigate", url)
	err = s.run(ctx, chromedp.Navigate(url))
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

var errPageLoading = fmt.Errorf("page is still loading")

func (s *Session) WaitLoaded(ctx context.Context) (err error) {
	ctx, span := s.startSpan(ctx, "WaitLoaded")
	defer func() { endSpan(span, err) }()

	_, err = Until(ctx, Wait{Ignore: []error{errPageLoading, ErrScript}}, func(ctx context.Context) (struct{}, error) {
		var state string
		err := s.run(ctx, chromedp.Evaluate(`document.readyState`, &state))
		if err != nil {
			return struct{}{}, fmt.Errorf("%w: %w", ErrScript, err)
		}
		if state != "complete" {
			return struct{}{}, errPageLoading
		}
		return struct{}{}, nil
	})
	return err
}

// Sleep pauses for d or until ctx is done.
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Screenshot captures the whole page as a png.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, chromedp.FullScreenshot(&buf, 100))
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

// Location returns the url of the page currently loaded.
func (s *Session) Location(ctx context.Context) (string, error) {
	var location string
	err := s.run(ctx, chromedp.Location(&location))
	return location, err
}

var _ Driver = (*Session)(nil)
