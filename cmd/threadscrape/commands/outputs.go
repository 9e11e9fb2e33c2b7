package commands

import (
	"context"
	"fmt"
	"log/slog"
	"threadscrape/internal/scrape"
	"threadscrape/internal/scrapers/facebook"
	"threadscrape/internal/scrapers/vnexpress"
	"threadscrape/internal/store/jsonstore"
	"threadscrape/internal/store/sqlitestore"
	"threadscrape/lib/configutil"
)

type outputFlags struct {
	json string
	db   string
}

func (f outputFlags) config() OutputConfig {
	out := cfg.Output
	if f.json != "" {
		out.Json = f.json
	}
	if f.db != "" {
		out.Db.File = f.db
		out.Db.Url = ""
	}
	return out
}

// outputs opens the configured sinks, closeOutputs must be called once the run is
// over.
func outputs(ctx context.Context, flags outputFlags) (postSinks []scrape.Sink[facebook.Post], commentSinks []scrape.Sink[vnexpress.Comment], closeOutputs func(), err error) {
	out := flags.config()
	closeOutputs = func() {}

	if out.Json != "" {
		path, err := configutil.ResolvePath(out.Json)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("resolve %s: %w", out.Json, err)
		}
		postSinks = append(postSinks, jsonstore.NewFileSink[facebook.Post](path))
		commentSinks = append(commentSinks, jsonstore.NewFileSink[vnexpress.Comment](path))
	}
	if out.Db.Enabled() {
		store, err := sqlitestore.Open(ctx, out.Db, clock, tel)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open db: %w", err)
		}
		slog.Debug("saving pages to db", "run", store.RunID())
		postSinks = append(postSinks, store.PostSink())
		commentSinks = append(commentSinks, store.CommentSink())
		closeOutputs = func() {
			store.Close()
		}
	}
	if len(postSinks) == 0 {
		slog.Warn("no output configured, pages will only be logged")
	}
	return postSinks, commentSinks, closeOutputs, nil
}

func logPages[T any](pages []scrape.Page[T]) {
	for _, page := range pages {
		slog.Info("scraped page", "url", page.URL, "elements", len(page.Elements), "count", page.Count)
	}
}
