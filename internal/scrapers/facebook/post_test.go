package facebook

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"threadscrape/internal/scrape"

	"github.com/stretchr/testify/require"
)

func TestPostBuilder(t *testing.T) {
	post, err := (&PostBuilder{}).SetText("hello").SetTime("yesterday").Build()
	require.NoError(t, err)
	require.Equal(t, Post{Text: "hello", Time: "yesterday", Replies: []Reply{}}, post)

	_, err = (&PostBuilder{}).SetText("hello").SetLikes("3").Build()
	require.ErrorIs(t, err, scrape.ErrInvalidRecord)
	require.ErrorContains(t, err, "time")

	_, err = (&PostBuilder{}).Build()
	require.ErrorIs(t, err, scrape.ErrInvalidRecord)
	require.ErrorContains(t, err, "text, time")

	// an empty text is still a text
	_, err = (&PostBuilder{}).SetText("").SetTime("now").Build()
	require.NoError(t, err)
}

func TestTimeContains(t *testing.T) {
	stop := TimeContains("22:22")
	require.True(t, stop(Post{Time: "Monday, May 1, 2024 at 22:22"}))
	require.False(t, stop(Post{Time: "Monday, May 1, 2024 at 22:23"}))
}

func TestLinePrompter(t *testing.T) {
	out := &bytes.Buffer{}
	prompter := NewLinePrompter(strings.NewReader("\n123456\n"), out)

	code, err := prompter.PromptCode(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, "123456", code)
	require.Equal(t, 2, strings.Count(out.String(), "Enter the two-factor code"))

	_, err = prompter.PromptCode(context.Background(), true)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.Contains(t, out.String(), "rejected")
}
