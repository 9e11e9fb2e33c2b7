package vnexpress

import (
	"testing"
	"threadscrape/internal/scrape"

	"github.com/stretchr/testify/require"
)

func TestCommentBuilder(t *testing.T) {
	testCases := []struct {
		name    string
		build   func(b *CommentBuilder)
		missing string
	}{
		{
			name:    "nothing set",
			build:   func(b *CommentBuilder) {},
			missing: "user, message, timestamp",
		},
		{
			name:    "missing user",
			build:   func(b *CommentBuilder) { b.SetMessage("hi").SetTimestamp("2h") },
			missing: "user",
		},
		{
			name:    "missing message",
			build:   func(b *CommentBuilder) { b.SetUser("alice").SetTimestamp("2h") },
			missing: "message",
		},
		{
			name:    "missing timestamp",
			build:   func(b *CommentBuilder) { b.SetUser("alice").SetMessage("hi") },
			missing: "timestamp",
		},
		{
			name:  "empty strings are set",
			build: func(b *CommentBuilder) { b.SetUser("").SetMessage("").SetTimestamp("") },
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			builder := &CommentBuilder{}
			test.build(builder)
			comment, err := builder.Build()
			if test.missing != "" {
				require.ErrorIs(t, err, scrape.ErrInvalidRecord)
				require.ErrorContains(t, err, "missing "+test.missing)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, comment.Replies)
		})
	}
}

func TestCommentReplies(t *testing.T) {
	reply, err := (&CommentBuilder{}).SetUser("bob").SetMessage("agreed").SetTimestamp("1h").Build()
	require.NoError(t, err)

	builder := (&CommentBuilder{}).SetUser("alice").SetMessage("hi").SetTimestamp("2h").AddReply(reply).AddReply(reply)
	comment, err := builder.Build()
	require.NoError(t, err)
	require.Len(t, comment.Replies, 2)
	require.Equal(t, 3, comment.Size())

	// later replies do not leak into comments that were already built
	builder.AddReply(reply)
	require.Len(t, comment.Replies, 2)
}

func TestMarkupVariantLocators(t *testing.T) {
	require.NotEqual(t, variantCollapsed.locators(), variantExpanded.locators())
	require.Equal(t, "expanded", variantExpanded.String())
	require.Equal(t, "collapsed", variantCollapsed.String())
}
