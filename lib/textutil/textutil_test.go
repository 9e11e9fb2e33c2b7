package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{input: "Review recent login", expected: "review recent login"},
		{input: "  Review\n\trecent   login ", expected: "review recent login"},
		{input: "", expected: ""},
	}

	for _, row := range table {
		require.Equal(t, row.expected, Normalize(row.input))
	}
}

func TestFuzzyContains(t *testing.T) {
	table := []struct {
		text     string
		expected bool
	}{
		{text: "Review recent login", expected: true},
		{text: "Review recent logins", expected: true},
		{text: "  REVIEW RECENT LOGIN  ", expected: true},
		{text: "Please Review recent login attempts", expected: true},
		{text: "Review recnt login", expected: true},
		{text: "Remember browser", expected: false},
		{text: "Enter login code", expected: false},
		{text: "", expected: false},
	}

	for _, row := range table {
		require.Equal(t, row.expected, FuzzyContains(row.text, "Review recent login", 0.9), row.text)
	}
}

func TestTrimPrefixFold(t *testing.T) {
	rest, ok := TrimPrefixFold("Minh Anh Bài viết hay", "minh anh")
	require.True(t, ok)
	require.Equal(t, " Bài viết hay", rest)

	rest, ok = TrimPrefixFold("Hoa no prefix", "Minh")
	require.False(t, ok)
	require.Equal(t, "Hoa no prefix", rest)
}
