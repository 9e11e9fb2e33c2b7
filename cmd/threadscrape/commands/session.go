package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"threadscrape/internal/browser"
	"threadscrape/internal/components/chrono"
	"threadscrape/internal/scrapers/facebook"
)

// openSession opens the configured browser and loads the saved cookies, the
// caller owns the session and must close it.
func openSession(ctx context.Context) (*browser.Session, error) {
	session, err := browser.Open(ctx, cfg.Browser.options(), tel)
	if err != nil {
		return nil, fmt.Errorf("open browser: %w", err)
	}
	if cfg.Browser.CookiesFile == "" {
		return session, nil
	}

	cookies, err := loadCookies(cfg.Browser.CookiesFile)
	if os.IsNotExist(err) {
		return session, nil
	}
	if err == nil {
		err = session.SetCookies(ctx, cookies)
	}
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("load cookies: %w", err)
	}
	slog.Debug("loaded cookies", "count", len(cookies), "path", cfg.Browser.CookiesFile)
	return session, nil
}

func loadCookies(path string) ([]browser.Cookie, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cookies []browser.Cookie
	err = json.Unmarshal(contents, &cookies)
	return cookies, err
}

func saveCookies(path string, cookies []browser.Cookie) error {
	encoded, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, encoded, 0600)
}

// login signs into facebook, two-factor codes are read from stdin.
func login(ctx context.Context, driver browser.Driver) error {
	creds, err := cfg.Facebook.credentials()
	if err != nil {
		return err
	}
	auth := facebook.NewAuthenticator(
		driver,
		facebook.NewLinePrompter(os.Stdin, os.Stderr),
		tel,
		facebook.AuthOptions{
			LoginURL:         cfg.Facebook.LoginURL,
			ChallengeWait:    cfg.Facebook.ChallengeWait.wait(),
			LoginReviewDelay: millis(cfg.Facebook.LoginReviewDelayMs),
			MaxCodeAttempts:  cfg.Facebook.MaxCodeAttempts,
		},
	)
	err = auth.Login(ctx, creds)
	if err != nil {
		return err
	}
	slog.Info("logged in", "user", creds.Username)
	return nil
}

// runOnSchedule calls run once, or on every tick of a cron spec until ctx
// is canceled when spec is not empty.
func runOnSchedule(ctx context.Context, spec string, run func(ctx context.Context) error) error {
	if spec == "" {
		return run(ctx)
	}

	cron := chrono.NewStandardCron(clock, tel)
	defer cron.Stop()
	err := cron.Cron(spec, func() {
		err := run(ctx)
		if err != nil && ctx.Err() == nil {
			tel.ReportBroken("schedule", err, spec)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}

	slog.Info("waiting for scheduled runs, press Ctrl+C to stop", "schedule", spec)
	<-ctx.Done()
	return nil
}

func urlsOr(args, configured []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(configured) > 0 {
		return configured, nil
	}
	return nil, fmt.Errorf("no urls given as arguments or in the config")
}
