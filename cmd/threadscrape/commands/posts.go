package commands

import (
	"context"
	"threadscrape/internal/scrape"
	"threadscrape/internal/scrapers/facebook"

	"github.com/spf13/cobra"
)

var postsFlags struct {
	output           outputFlags
	stopTimeContains string
	stopTextContains string
	maxPosts         int
	schedule         string
}

func init() {
	flags := postsCmd.Flags()
	flags.StringVar(&postsFlags.output.json, "out", "", "The JSON file to write pages to.")
	flags.StringVar(&postsFlags.output.db, "db", "", "The sqlite database to write pages to.")
	flags.StringVar(&postsFlags.stopTimeContains, "stop-time-contains", "", "Stop a page after the first post whose time contains this text.")
	flags.StringVar(&postsFlags.stopTextContains, "stop-text-contains", "", "Stop a page after the first post whose text contains this text.")
	flags.IntVar(&postsFlags.maxPosts, "max-posts", 0, "Stop a page after this many posts.")
	flags.StringVar(&postsFlags.schedule, "schedule", "", "A cron spec to scrape on repeatedly instead of once.")
	rootCmd.AddCommand(postsCmd)
}

var postsCmd = &cobra.Command{
	Use:   "posts [urls...]",
	Short: "Logs into facebook and scrapes the feed of each page.",
	RunE: func(cmd *cobra.Command, args []string) error {
		urls, err := urlsOr(args, cfg.Facebook.Urls)
		if err != nil {
			return err
		}
		return runOnSchedule(cmd.Context(), postsFlags.schedule, func(ctx context.Context) error {
			return scrapePosts(ctx, urls)
		})
	},
}

// postStop combines the configured stop conditions, a page stops at the
// first post matching any of them.
func postStop() scrape.StopFunc[facebook.Post] {
	var stops []scrape.StopFunc[facebook.Post]
	if text := firstNonEmpty(postsFlags.stopTimeContains, cfg.Facebook.StopTimeContains); text != "" {
		stops = append(stops, facebook.TimeContains(text))
	}
	if text := firstNonEmpty(postsFlags.stopTextContains, cfg.Facebook.StopTextContains); text != "" {
		stops = append(stops, facebook.TextContains(text))
	}
	if len(stops) == 0 {
		return scrape.Never[facebook.Post]()
	}
	return scrape.StopAny(stops...)
}

func firstNonEmpty(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func scrapePosts(ctx context.Context, urls []string) error {
	sinks, _, closeOutputs, err := outputs(ctx, postsFlags.output)
	if err != nil {
		return err
	}
	defer closeOutputs()

	session, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer session.Close()

	err = login(ctx, session)
	if err != nil {
		return err
	}

	maxPosts := postsFlags.maxPosts
	if maxPosts == 0 {
		maxPosts = cfg.Facebook.MaxPosts
	}
	scraper := facebook.NewPostScraper(session, tel, facebook.PostOptions{
		InitialPageWait: millis(cfg.Facebook.InitialPageWaitMs),
		TooltipDelay:    millis(cfg.Facebook.TooltipDelayMs),
		FeedWait:        cfg.Facebook.FeedWait.wait(),
		MaxPosts:        maxPosts,
		Clock:           clock,
	}, sinks...)

	pages, err := scraper.Scrape(ctx, urls, postStop())
	logPages(pages)
	return err
}
