package commands

import (
	"context"
	"strings"
	"testing"
	"threadscrape/internal/browser"
	"threadscrape/internal/browser/browsertest"

	"github.com/stretchr/testify/require"
)

func TestOuterSnippets(t *testing.T) {
	b := browsertest.New()
	b.OnScript(outerHTMLScript, func(args []any) (any, error) {
		require.Equal(t, []any{"div.post"}, args)
		return []string{
			`<div class="post">
				first</div>`,
			`<div class="post">` + strings.Repeat("x", 200) + `</div>`,
		}, nil
	})

	snippets, err := outerSnippets(context.Background(), b, "div.post")
	require.NoError(t, err)
	require.Len(t, snippets, 2)
	require.Equal(t, `<div class="post"> first</div>`, snippets[0])
	require.Len(t, []rune(snippets[1]), snippetRunes+1)
	require.True(t, strings.HasSuffix(snippets[1], "…"))
}

func TestOuterSnippetsScriptError(t *testing.T) {
	_, err := outerSnippets(context.Background(), browsertest.New(), "div.post")
	require.ErrorIs(t, err, browser.ErrScript)
}
