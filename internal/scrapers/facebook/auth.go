package facebook

import (
	"context"
	"errors"
	"fmt"
	"threadscrape/internal/browser"
	"threadscrape/internal/components/assert"
	"threadscrape/internal/components/telemetry"
	"threadscrape/internal/scrape"
	"threadscrape/lib/textutil"
	"time"
)

const (
	report_auth_login        = "auth.login"
	report_auth_two_factor   = "auth.two-factor"
	report_auth_device_trust = "auth.device-trust"
	report_auth_login_review = "auth.login-review"
)

// ErrTooManyCodeAttempts is returned when every allowed two-factor code was
// rejected.
var ErrTooManyCodeAttempts = fmt.Errorf("%w: too many two-factor code attempts", scrape.ErrAuthenticationFailed)

type State int

const (
	StateAnonymousLoaded State = iota
	StateCredentialsSubmitted
	StateTwoFactorPending
	StateDeviceTrustPending
	StateLoginReview
	StateAuthenticated
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateAnonymousLoaded:
		return "anonymous-loaded"
	case StateCredentialsSubmitted:
		return "credentials-submitted"
	case StateTwoFactorPending:
		return "two-factor-pending"
	case StateDeviceTrustPending:
		return "device-trust-pending"
	case StateLoginReview:
		return "login-review"
	case StateAuthenticated:
		return "authenticated"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// CodePrompter asks a human for a two-factor code, retry is true when the
// previous code was rejected.
type CodePrompter interface {
	PromptCode(ctx context.Context, retry bool) (string, error)
}

type AuthOptions struct {
	// LoginURL defaults to DefaultLoginURL.
	LoginURL string
	// Landmark is only shown to a logged in account, it defaults to the
	// profile shortcut of the navigation bar.
	Landmark browser.Locator
	// ChallengeWait bounds how long to look for an optional step of the
	// flow (two-factor input, device trust form, account landmark).
	ChallengeWait browser.Wait
	// LoginReviewDelay is slept after each click of the login review form.
	LoginReviewDelay time.Duration
	// MaxCodeAttempts caps the two-factor loop, a negative value means no cap.
	MaxCodeAttempts int
}

const (
	DefaultLoginReviewDelay = 5 * time.Second
	DefaultMaxCodeAttempts  = 5
)

var defaultChallengeWait = browser.Wait{Timeout: 3 * time.Second, Poll: 500 * time.Millisecond}

func (o AuthOptions) withDefaults() AuthOptions {
	if o.LoginURL == "" {
		o.LoginURL = DefaultLoginURL
	}
	if o.Landmark == "" {
		o.Landmark = accountLandmark
	}
	if o.ChallengeWait.Timeout <= 0 {
		o.ChallengeWait = defaultChallengeWait
	}
	if o.LoginReviewDelay <= 0 {
		o.LoginReviewDelay = DefaultLoginReviewDelay
	}
	if o.MaxCodeAttempts == 0 {
		o.MaxCodeAttempts = DefaultMaxCodeAttempts
	}
	return o
}

// Authenticator drives the login flow of a browser session.
type Authenticator struct {
	driver   browser.Driver
	prompter CodePrompter
	tel      telemetry.API
	opts     AuthOptions

	transitions []State
}

func NewAuthenticator(driver browser.Driver, prompter CodePrompter, tel telemetry.API, opts AuthOptions) *Authenticator {
	assert.NotNil(driver)
	assert.NotNil(prompter)
	assert.NotNil(tel)

	return &Authenticator{
		driver:   driver,
		prompter: prompter,
		tel:      telemetry.NewScopedAPI("facebook", tel),
		opts:     opts.withDefaults(),
	}
}

func (a *Authenticator) enter(state State) {
	a.transitions = append(a.transitions, state)
	a.tel.ReportDebug("auth state", state.String())
}

// State returns the state the flow is currently in.
func (a *Authenticator) State() State {
	if len(a.transitions) == 0 {
		return StateAnonymousLoaded
	}
	return a.transitions[len(a.transitions)-1]
}

// Transitions returns every state visited by the last Login, in order.
func (a *Authenticator) Transitions() []State {
	out := make([]State, len(a.transitions))
	copy(out, a.transitions)
	return out
}

func (a *Authenticator) abort(err error) error {
	a.enter(StateAborted)
	a.tel.ReportBroken(report_auth_login, err)
	if errors.Is(err, scrape.ErrAuthenticationFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", scrape.ErrAuthenticationFailed, err)
}

// Login signs in with the given credentials, any failure is returned
// wrapping scrape.ErrAuthenticationFailed.
func (a *Authenticator) Login(ctx context.Context, creds Credentials) error {
	a.transitions = nil
	a.tel.ReportDebug("logging in", creds.String())

	err := a.driver.Navigate(ctx, a.opts.LoginURL)
	if err == nil {
		err = a.driver.WaitLoaded(ctx)
	}
	if err != nil {
		return a.abort(fmt.Errorf("load login page: %w", err))
	}
	a.enter(StateAnonymousLoaded)

	err = a.driver.Type(ctx, usernameInput, creds.Username)
	if err == nil {
		err = a.driver.Type(ctx, passwordInput, creds.Password)
	}
	if err != nil {
		return a.abort(fmt.Errorf("enter credentials: %w", err))
	}
	browser.ClickAll(ctx, a.driver, browser.Wait{}, func(loc browser.Locator, err error) {
		a.tel.ReportWarning(report_auth_login, err)
	}, loginButton)
	err = a.driver.WaitLoaded(ctx)
	if err != nil {
		return a.abort(fmt.Errorf("submit credentials: %w", err))
	}
	a.enter(StateCredentialsSubmitted)

	_, err = a.driver.WaitFor(ctx, twoFactorInput, a.opts.ChallengeWait)
	switch {
	case err == nil:
		err = a.resolveChallenges(ctx)
		if err != nil {
			return a.abort(err)
		}
	case ctx.Err() != nil:
		return a.abort(ctx.Err())
	}

	_, err = a.driver.WaitFor(ctx, a.opts.Landmark, a.opts.ChallengeWait)
	if err != nil {
		if ctx.Err() != nil {
			return a.abort(ctx.Err())
		}
		return a.abort(fmt.Errorf("%w: account landmark is missing", scrape.ErrAuthenticationFailed))
	}
	a.enter(StateAuthenticated)
	return nil
}

func (a *Authenticator) resolveChallenges(ctx context.Context) error {
	a.enter(StateTwoFactorPending)
	err := a.submitCodes(ctx)
	if err != nil {
		return err
	}
	err = a.trustDevice(ctx)
	if err != nil {
		return err
	}
	err = a.reviewLogins(ctx)
	if err != nil {
		return err
	}
	return a.driver.WaitLoaded(ctx)
}

func (a *Authenticator) submitCodes(ctx context.Context) error {
	retry := false
	for attempt := 1; ; attempt++ {
		if a.opts.MaxCodeAttempts > 0 && attempt > a.opts.MaxCodeAttempts {
			return ErrTooManyCodeAttempts
		}

		code, err := a.prompter.PromptCode(ctx, retry)
		if err != nil {
			return fmt.Errorf("prompt two-factor code: %w", err)
		}
		err = a.driver.Type(ctx, twoFactorInput, code)
		if err != nil {
			return fmt.Errorf("enter two-factor code: %w", err)
		}
		browser.ClickAll(ctx, a.driver, browser.Wait{}, func(loc browser.Locator, err error) {
			a.tel.ReportWarning(report_auth_two_factor, err)
		}, checkpointSubmit)
		err = a.driver.WaitLoaded(ctx)
		if err != nil {
			return fmt.Errorf("submit two-factor code: %w", err)
		}

		if _, invalid := a.driver.Locate(ctx, twoFactorError); !invalid {
			a.tel.ReportDebug("two-factor code accepted", attempt)
			return nil
		}
		a.tel.ReportWarning(report_auth_two_factor, "code rejected", attempt)
		retry = true
	}
}

// trustDevice confirms the "save browser" form when it is shown.
func (a *Authenticator) trustDevice(ctx context.Context) error {
	submit, err := a.driver.WaitFor(ctx, checkpointSubmit, a.opts.ChallengeWait)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}
	a.enter(StateDeviceTrustPending)
	err = a.driver.Click(ctx, submit)
	if err != nil {
		a.tel.ReportWarning(report_auth_device_trust, err)
		return nil
	}
	return a.driver.WaitLoaded(ctx)
}

func (a *Authenticator) askedLoginReview(ctx context.Context) bool {
	titles := a.driver.LocateAll(ctx, checkpointTitle)
	if len(titles) != 1 {
		return false
	}
	text, err := a.driver.Text(ctx, titles[0])
	if err != nil {
		return false
	}
	return textutil.FuzzyContains(text, loginReviewTitle, 0.9)
}

// reviewLogins answers "review recent logins" with "confirm" then "this
// was me", after which the device trust form shows up again.
func (a *Authenticator) reviewLogins(ctx context.Context) error {
	if !a.askedLoginReview(ctx) {
		return nil
	}
	a.enter(StateLoginReview)

	for _, step := range []string{"confirm", "this was me"} {
		submit, err := a.driver.WaitFor(ctx, checkpointSubmit, browser.Wait{})
		if err != nil {
			return fmt.Errorf("login review %s: %w", step, err)
		}
		err = a.driver.Click(ctx, submit)
		if err != nil {
			return fmt.Errorf("login review %s: %w", step, err)
		}
		err = a.driver.Sleep(ctx, a.opts.LoginReviewDelay)
		if err != nil {
			return err
		}
		a.tel.ReportDebug("login review step", step)
	}
	return a.trustDevice(ctx)
}
