package facebook

import (
	"fmt"
	"strings"
	"threadscrape/internal/scrape"
)

// Post is a single post of a page feed.
//
// Replies is never filled by the scraper, it is kept in the output (always
// as an empty list) so that comment extraction can be added without
// changing the format.
type Post struct {
	Text    string  `json:"text"`
	Time    string  `json:"time"`
	Likes   string  `json:"likes"`
	Replies []Reply `json:"replies"`
}

type Reply struct {
	User      string `json:"user"`
	Text      string `json:"text"`
	Time      string `json:"time"`
	Reactions string `json:"reactions"`
}

func (p Post) String() string {
	return fmt.Sprintf("Text: %s\nTime: %s\nLikes: %s\n", p.Text, p.Time, p.Likes)
}

type PostBuilder struct {
	text, time, likes string
	hasText, hasTime  bool
}

func (b *PostBuilder) SetText(text string) *PostBuilder {
	b.text = text
	b.hasText = true
	return b
}

func (b *PostBuilder) SetTime(time string) *PostBuilder {
	b.time = time
	b.hasTime = true
	return b
}

func (b *PostBuilder) SetLikes(likes string) *PostBuilder {
	b.likes = likes
	return b
}

// Build fails with scrape.ErrInvalidRecord when the text or the time was
// never set, likes are optional.
func (b *PostBuilder) Build() (Post, error) {
	var missing []string
	if !b.hasText {
		missing = append(missing, "text")
	}
	if !b.hasTime {
		missing = append(missing, "time")
	}
	if len(missing) > 0 {
		return Post{}, fmt.Errorf("%w: post is missing %s", scrape.ErrInvalidRecord, strings.Join(missing, ", "))
	}
	return Post{
		Text:    b.text,
		Time:    b.time,
		Likes:   b.likes,
		Replies: []Reply{},
	}, nil
}

// TimeContains stops once a post's time contains the given text, ex.
// "22:22" to scrape back to the first post published at 22:22.
func TimeContains(text string) scrape.StopFunc[Post] {
	return scrape.StopWhen(func(p Post) bool {
		return strings.Contains(p.Time, text)
	})
}

// TextContains stops once a post's text contains the given text.
func TextContains(text string) scrape.StopFunc[Post] {
	return scrape.StopWhen(func(p Post) bool {
		return strings.Contains(p.Text, text)
	})
}
