package facebook

import (
	"context"
	"errors"
	"testing"
	"threadscrape/internal/browser"
	"threadscrape/internal/browser/browsertest"
	"threadscrape/internal/components/telemetry"
	"threadscrape/internal/scrape"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const (
	loginPage = `<html><body>
<form method="post"><div>
	<input id="email"><input id="pass">
	<button name="login">Log in</button>
</div></form>
</body></html>`
	homePage        = `<html><body><div id="profile">Me</div></body></html>`
	blankPage       = `<html><body><p>Something went wrong</p></body></html>`
	twoFactorPage   = `<html><body><input id="approvals_code"><button id="checkpointSubmitButton">Continue</button></body></html>`
	wrongCodePage   = `<html><body><span data-xui-error="1">Wrong code</span><input id="approvals_code"><button id="checkpointSubmitButton">Continue</button></body></html>`
	saveBrowserPage = `<html><body><strong id="title">Remember browser</strong><button id="checkpointSubmitButton">Continue</button></body></html>`
	reviewPage      = `<html><body><strong id="title">Review Recent Login</strong><button id="checkpointSubmitButton">Continue</button></body></html>`
)

const testLandmark = browser.Locator("#profile")

var testCreds = Credentials{Username: "someone@example.com", Password: "hunter2"}

type siteOptions struct {
	twoFactor   bool
	loginReview bool
	validCode   string
	noLandmark  bool
}

// newSite scripts the login flow, every submit loads the next page of the
// flow as a navigation would.
func newSite(opts siteOptions) *browsertest.Browser {
	b := browsertest.New().AddPage(DefaultLoginURL, loginPage)

	b.OnClick(loginButton, func(b *browsertest.Browser, _ *goquery.Selection) error {
		switch {
		case opts.twoFactor:
			return b.Load(twoFactorPage)
		case opts.noLandmark:
			return b.Load(blankPage)
		default:
			return b.Load(homePage)
		}
	})

	stage := "code"
	b.OnClick(checkpointSubmit, func(b *browsertest.Browser, _ *goquery.Selection) error {
		switch stage {
		case "code":
			code := b.Document().Find(string(twoFactorInput)).AttrOr("value", "")
			if code != opts.validCode {
				return b.Load(wrongCodePage)
			}
			stage = "trust"
			if opts.loginReview {
				stage = "trust-before-review"
			}
			return b.Load(saveBrowserPage)
		case "trust-before-review":
			stage = "review-confirm"
			return b.Load(reviewPage)
		case "review-confirm":
			stage = "review-this-was-me"
			return b.Load(reviewPage)
		case "review-this-was-me":
			stage = "trust"
			return b.Load(saveBrowserPage)
		case "trust":
			stage = "done"
			if opts.noLandmark {
				return b.Load(blankPage)
			}
			return b.Load(homePage)
		}
		return errors.New("unexpected submit")
	})
	return b
}

type fakePrompter struct {
	codes   []string
	retries []bool
}

func (p *fakePrompter) PromptCode(ctx context.Context, retry bool) (string, error) {
	p.retries = append(p.retries, retry)
	if len(p.codes) == 0 {
		return "", errors.New("no more codes")
	}
	code := p.codes[0]
	p.codes = p.codes[1:]
	return code, nil
}

func newAuthenticator(b browser.Driver, prompter CodePrompter, tel telemetry.API, opts AuthOptions) *Authenticator {
	opts.Landmark = testLandmark
	return NewAuthenticator(b, prompter, tel, opts)
}

func TestLoginWithoutTwoFactor(t *testing.T) {
	b := newSite(siteOptions{})
	prompter := &fakePrompter{}
	auth := newAuthenticator(b, prompter, telemetry.NewRecorder(), AuthOptions{})

	require.NoError(t, auth.Login(context.Background(), testCreds))
	require.Equal(t, StateAuthenticated, auth.State())
	require.Equal(t, []State{
		StateAnonymousLoaded,
		StateCredentialsSubmitted,
		StateAuthenticated,
	}, auth.Transitions())

	require.Equal(t, []string{DefaultLoginURL}, b.Navigations)
	require.Equal(t, []string{testCreds.Username}, b.Typed[usernameInput])
	require.Equal(t, []string{testCreds.Password}, b.Typed[passwordInput])
	require.Empty(t, prompter.retries)
}

func TestLoginRetriesRejectedCodes(t *testing.T) {
	b := newSite(siteOptions{twoFactor: true, validCode: "222222"})
	prompter := &fakePrompter{codes: []string{"111111", "222222"}}
	tel := telemetry.NewRecorder()
	auth := newAuthenticator(b, prompter, tel, AuthOptions{})

	require.NoError(t, auth.Login(context.Background(), testCreds))
	require.Equal(t, []State{
		StateAnonymousLoaded,
		StateCredentialsSubmitted,
		StateTwoFactorPending,
		StateDeviceTrustPending,
		StateAuthenticated,
	}, auth.Transitions())

	require.Equal(t, []bool{false, true}, prompter.retries)
	require.Equal(t, []string{"111111", "222222"}, b.Typed[twoFactorInput])
	require.Len(t, tel.Filter(telemetry.KindWarning, "auth.two-factor"), 1)
}

func TestLoginGivesUpAfterMaxCodeAttempts(t *testing.T) {
	b := newSite(siteOptions{twoFactor: true, validCode: "222222"})
	prompter := &fakePrompter{codes: []string{"000000", "000001", "000002"}}
	auth := newAuthenticator(b, prompter, telemetry.NewRecorder(), AuthOptions{MaxCodeAttempts: 2})

	err := auth.Login(context.Background(), testCreds)
	require.ErrorIs(t, err, ErrTooManyCodeAttempts)
	require.ErrorIs(t, err, scrape.ErrAuthenticationFailed)
	require.Equal(t, StateAborted, auth.State())
	require.Len(t, prompter.retries, 2)
}

func TestLoginReviewsRecentLogins(t *testing.T) {
	b := newSite(siteOptions{twoFactor: true, loginReview: true, validCode: "123456"})
	prompter := &fakePrompter{codes: []string{"123456"}}
	auth := newAuthenticator(b, prompter, telemetry.NewRecorder(), AuthOptions{})

	require.NoError(t, auth.Login(context.Background(), testCreds))
	require.Equal(t, []State{
		StateAnonymousLoaded,
		StateCredentialsSubmitted,
		StateTwoFactorPending,
		StateDeviceTrustPending,
		StateLoginReview,
		StateDeviceTrustPending,
		StateAuthenticated,
	}, auth.Transitions())
	require.Equal(t, 2*DefaultLoginReviewDelay, b.TotalSlept())
}

func TestLoginFailsWithoutLandmark(t *testing.T) {
	for _, opts := range []siteOptions{
		{noLandmark: true},
		{noLandmark: true, twoFactor: true, validCode: "1"},
	} {
		b := newSite(opts)
		tel := telemetry.NewRecorder()
		auth := newAuthenticator(b, &fakePrompter{codes: []string{"1"}}, tel, AuthOptions{})

		err := auth.Login(context.Background(), testCreds)
		require.ErrorIs(t, err, scrape.ErrAuthenticationFailed)
		require.Equal(t, StateAborted, auth.State())
		require.Len(t, tel.Filter(telemetry.KindBroken, "auth.login"), 1)
	}
}

func TestLoginPrompterFailure(t *testing.T) {
	b := newSite(siteOptions{twoFactor: true, validCode: "1"})
	auth := newAuthenticator(b, &fakePrompter{}, telemetry.NewRecorder(), AuthOptions{})

	err := auth.Login(context.Background(), testCreds)
	require.ErrorIs(t, err, scrape.ErrAuthenticationFailed)
	require.ErrorContains(t, err, "no more codes")
}

func TestStateString(t *testing.T) {
	require.Equal(t, "two-factor-pending", StateTwoFactorPending.String())
	require.Equal(t, "state(42)", State(42).String())
}
