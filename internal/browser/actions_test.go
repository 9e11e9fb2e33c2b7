package browser_test

import (
	"context"
	"testing"
	"threadscrape/internal/browser"
	"threadscrape/internal/browser/browsertest"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const form = `<html><body>
<form>
	<input id="email">
	<button id="submit">Log in</button>
	<div class="notice"><a class="dismiss">x</a></div>
</form>
</body></html>`

func TestTryClick(t *testing.T) {
	ctx := context.Background()
	b := browsertest.New().AddPage("https://example.com", form)
	b.OnClick(".dismiss", func(b *browsertest.Browser, el *goquery.Selection) error {
		el.Parent().Remove()
		return nil
	})
	require.NoError(t, b.Navigate(ctx, "https://example.com"))

	require.True(t, browser.TryClick(ctx, b, nil, ".dismiss"))
	require.False(t, browser.TryClick(ctx, b, nil, ".dismiss"))

	formEl, ok := b.Locate(ctx, "form")
	require.True(t, ok)
	require.True(t, browser.TryClick(ctx, b, formEl, "#submit"))
	require.False(t, browser.TryClick(ctx, b, formEl, "#missing"))
}

func TestClickAllContinuesOnError(t *testing.T) {
	ctx := context.Background()
	b := browsertest.New().AddPage("https://example.com", form)
	require.NoError(t, b.Navigate(ctx, "https://example.com"))

	var failed []browser.Locator
	browser.ClickAll(ctx, b, browser.Wait{}, func(loc browser.Locator, err error) {
		require.ErrorIs(t, err, browser.ErrElementNotFound)
		failed = append(failed, loc)
	}, "#missing", "#submit", ".gone")

	require.Equal(t, []browser.Locator{"#missing", ".gone"}, failed)
	require.Equal(t, []string{"<button #submit>"}, b.Clicked)
}

func TestTextOf(t *testing.T) {
	ctx := context.Background()
	b := browsertest.New().AddPage("https://example.com", form)
	require.NoError(t, b.Navigate(ctx, "https://example.com"))

	body, ok := b.Locate(ctx, "body")
	require.True(t, ok)

	text, found, err := browser.TextOf(ctx, b, body, "#submit")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Log in", text)

	_, found, err = browser.TextOf(ctx, b, body, "#nothing")
	require.NoError(t, err)
	require.False(t, found)
}
