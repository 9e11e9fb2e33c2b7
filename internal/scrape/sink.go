package scrape

import (
	"context"
	"errors"
)

// Sink receives every page as soon as it has been scraped.
type Sink[T any] interface {
	WritePage(ctx context.Context, page Page[T]) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc[T any] func(ctx context.Context, page Page[T]) error

func (f SinkFunc[T]) WritePage(ctx context.Context, page Page[T]) error {
	return f(ctx, page)
}

// Collector is a Sink that keeps pages in memory.
type Collector[T any] struct {
	Pages []Page[T]
}

func (c *Collector[T]) WritePage(_ context.Context, page Page[T]) error {
	c.Pages = append(c.Pages, page)
	return nil
}

// WriteAll hands the page to every sink, a failing sink does not prevent
// the others from receiving it.
func WriteAll[T any](ctx context.Context, page Page[T], sinks ...Sink[T]) error {
	var errs []error
	for _, sink := range sinks {
		if err := sink.WritePage(ctx, page); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
