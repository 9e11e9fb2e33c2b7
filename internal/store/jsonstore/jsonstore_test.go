package jsonstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"threadscrape/internal/scrape"
	"threadscrape/internal/scrapers/vnexpress"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var commentPages = []scrape.Page[vnexpress.Comment]{
	{
		Count:    2,
		Sequence: 1,
		URL:      "https://vnexpress.net/a.html",
		Scraped:  time.Date(2024, 5, 1, 10, 0, 0, 500, time.FixedZone("ICT", 7*60*60)),
		Elements: []vnexpress.Comment{
			{
				User: "alice", Message: "say \"hi\"\nplease", Timestamp: "2h",
				Replies: []vnexpress.Comment{
					{User: "bob", Message: "hi", Timestamp: "1h", Replies: []vnexpress.Comment{}},
				},
			},
		},
	},
	{
		Sequence: 2,
		URL:      "https://vnexpress.net/b.html",
		Scraped:  time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC),
		Elements: []vnexpress.Comment{},
	},
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.json")
	require.NoError(t, Write(path, commentPages))

	decoded, err := Decode[vnexpress.Comment](path)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	for i := range decoded {
		require.True(t, commentPages[i].Scraped.Equal(decoded[i].Scraped))
		decoded[i].Scraped = commentPages[i].Scraped
	}
	if diff := cmp.Diff(commentPages, decoded); diff != "" {
		t.Fatal(diff)
	}
}

func TestReadGeneric(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.json")
	require.NoError(t, Write(path, commentPages))

	pages, err := Read(path)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	require.Equal(t, "https://vnexpress.net/a.html", pages[0]["url"])
	require.EqualValues(t, 2, pages[0]["count"])

	elements := pages[0]["elements"].([]any)
	first := elements[0].(map[string]any)
	require.Equal(t, "alice", first["user"])
	require.Equal(t, "say \"hi\"\nplease", first["message"])
	require.Len(t, first["replies"], 1)
	require.Empty(t, pages[1]["elements"])
}

func TestReadLenient(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edited.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		// kept for later
		{url: "https://vnexpress.net/a.html", count: 0, elements: [],},
	]`), 0644))

	pages, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, "https://vnexpress.net/a.html", pages[0]["url"])
}

func TestWriteEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, Write[vnexpress.Comment](path, nil))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "[]\n", string(contents))
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.json")
	sink := NewFileSink[vnexpress.Comment](path)

	require.NoError(t, sink.WritePage(context.Background(), commentPages[0]))
	decoded, err := Decode[vnexpress.Comment](path)
	require.NoError(t, err)
	require.Len(t, decoded, 1)

	require.NoError(t, sink.WritePage(context.Background(), commentPages[1]))
	decoded, err = Decode[vnexpress.Comment](path)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	require.Len(t, sink.Pages(), 2)
}

func TestFileSinkKeepsEarlierRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.json")

	first := NewFileSink[vnexpress.Comment](path)
	require.NoError(t, first.WritePage(context.Background(), commentPages[0]))
	second := NewFileSink[vnexpress.Comment](path)
	require.NoError(t, second.WritePage(context.Background(), commentPages[1]))

	decoded, err := Decode[vnexpress.Comment](path)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	require.Equal(t, commentPages[0].URL, decoded[0].URL)
	require.Equal(t, commentPages[1].URL, decoded[1].URL)
	require.Len(t, second.Pages(), 2)
}

func TestFileSinkRefusesCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	err := NewFileSink[vnexpress.Comment](path).WritePage(context.Background(), commentPages[0])
	require.Error(t, err)
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "not json", string(contents))
}
