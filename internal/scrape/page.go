package scrape

import (
	"fmt"
	"strings"
	"sync/atomic"
	"threadscrape/internal/components/chrono"
	"time"
)

// Page is the result of scraping a single url.
type Page[T any] struct {
	// Count is the number of records the scraper extracted for this page,
	// nested ones included, so it can be larger than len(Elements).
	Count int `json:"count"`
	// Sequence numbers pages in the order they were built.
	Sequence int64     `json:"sequence"`
	URL      string    `json:"url"`
	Scraped  time.Time `json:"scraped"`
	Elements []T       `json:"elements"`
}

// Sequence numbers built pages, it is shared by every PageBuilder of a run
// and is safe for concurrent use.
type Sequence struct {
	n atomic.Int64
}

// Current returns the number of pages built so far.
func (s *Sequence) Current() int64 {
	return s.n.Load()
}

func (s *Sequence) next() int64 {
	return s.n.Add(1)
}

type PageBuilder[T any] struct {
	seq   *Sequence
	clock chrono.API

	url      string
	scraped  time.Time
	elements []T
	count    int
	hasCount bool
}

func NewPageBuilder[T any](seq *Sequence, clock chrono.API) *PageBuilder[T] {
	return &PageBuilder[T]{seq: seq, clock: clock, elements: []T{}}
}

func (b *PageBuilder[T]) SetURL(url string) *PageBuilder[T] {
	b.url = url
	return b
}

// SetScraped overrides the scrape time, it defaults to the clock's time
// when Build is called.
func (b *PageBuilder[T]) SetScraped(t time.Time) *PageBuilder[T] {
	b.scraped = t
	return b
}

// SetElements replaces the elements with a copy of the given slice.
func (b *PageBuilder[T]) SetElements(elements []T) *PageBuilder[T] {
	b.elements = append(make([]T, 0, len(elements)), elements...)
	return b
}

func (b *PageBuilder[T]) AddElement(element T) *PageBuilder[T] {
	b.elements = append(b.elements, element)
	return b
}

func (b *PageBuilder[T]) AddElements(elements []T) *PageBuilder[T] {
	b.elements = append(b.elements, elements...)
	return b
}

// SetCount sets the extracted record count, it defaults to the number of
// elements.
func (b *PageBuilder[T]) SetCount(count int) *PageBuilder[T] {
	b.count = count
	b.hasCount = true
	return b
}

// Build validates the page and takes the next sequence number, the sequence
// is left untouched when validation fails.
func (b *PageBuilder[T]) Build() (Page[T], error) {
	if strings.TrimSpace(b.url) == "" {
		return Page[T]{}, fmt.Errorf("%w: url is required", ErrInvalidPage)
	}

	scraped := b.scraped
	if scraped.IsZero() {
		scraped = b.clock.Now()
	}
	count := len(b.elements)
	if b.hasCount {
		count = b.count
	}
	elements := append(make([]T, 0, len(b.elements)), b.elements...)

	return Page[T]{
		Count:    count,
		Sequence: b.seq.next(),
		URL:      b.url,
		Scraped:  scraped,
		Elements: elements,
	}, nil
}
