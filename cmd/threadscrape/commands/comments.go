package commands

import (
	"context"
	"threadscrape/internal/scrapers/vnexpress"

	"github.com/spf13/cobra"
)

var commentsFlags struct {
	output        outputFlags
	maxExpansions int
	schedule      string
}

func init() {
	flags := commentsCmd.Flags()
	flags.StringVar(&commentsFlags.output.json, "out", "", "The JSON file to write pages to.")
	flags.StringVar(&commentsFlags.output.db, "db", "", "The sqlite database to write pages to.")
	flags.IntVar(&commentsFlags.maxExpansions, "max-expansions", 0, "How many times to load more replies of a single comment, negative for no limit.")
	flags.StringVar(&commentsFlags.schedule, "schedule", "", "A cron spec to scrape on repeatedly instead of once.")
	rootCmd.AddCommand(commentsCmd)
}

var commentsCmd = &cobra.Command{
	Use:   "comments [urls...]",
	Short: "Scrapes the comment threads of vnexpress articles.",
	RunE: func(cmd *cobra.Command, args []string) error {
		urls, err := urlsOr(args, cfg.Vnexpress.Urls)
		if err != nil {
			return err
		}
		return runOnSchedule(cmd.Context(), commentsFlags.schedule, func(ctx context.Context) error {
			return scrapeComments(ctx, urls)
		})
	},
}

func scrapeComments(ctx context.Context, urls []string) error {
	_, sinks, closeOutputs, err := outputs(ctx, commentsFlags.output)
	if err != nil {
		return err
	}
	defer closeOutputs()

	session, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer session.Close()

	maxExpansions := commentsFlags.maxExpansions
	if maxExpansions == 0 {
		maxExpansions = cfg.Vnexpress.MaxExpansions
	}
	scraper := vnexpress.NewCommentScraper(session, tel, vnexpress.CommentOptions{
		ContainerWait:    cfg.Vnexpress.ContainerWait.wait(),
		MaxExpansions:    maxExpansions,
		ExpansionTimeout: millis(cfg.Vnexpress.ExpansionTimeoutMs),
		Clock:            clock,
	}, sinks...)

	pages, err := scraper.Scrape(ctx, urls)
	logPages(pages)
	return err
}
