package commands

import (
	"fmt"
	"threadscrape/internal/browser"
	"threadscrape/internal/scrapers/facebook"
	configlibsql "threadscrape/lib/configutil/libsql"
	"time"
)

type BrowserConfig struct {
	// Remote is the DevTools endpoint of a running browser, ex.
	// http://localhost:9222, a local browser is launched when it is empty.
	Remote           string  `json:"remote" yaml:"remote"`
	ExecPath         string  `json:"exec_path" yaml:"exec_path"`
	Headful          bool    `json:"headful" yaml:"headful"`
	WindowWidth      int     `json:"window_width" yaml:"window_width"`
	WindowHeight     int     `json:"window_height" yaml:"window_height"`
	UserAgent        string  `json:"user_agent" yaml:"user_agent"`
	ActionsPerSecond float64 `json:"actions_per_second" yaml:"actions_per_second"`
	// CookiesFile holds cookies saved with `cookies --save`, they are
	// loaded into every new session.
	CookiesFile string `json:"cookies_file" yaml:"cookies_file"`
}

func (c BrowserConfig) options() browser.Options {
	return browser.Options{
		RemoteURL:        c.Remote,
		ExecPath:         c.ExecPath,
		Headless:         !c.Headful,
		WindowWidth:      c.WindowWidth,
		WindowHeight:     c.WindowHeight,
		UserAgent:        c.UserAgent,
		ActionsPerSecond: c.ActionsPerSecond,
	}
}

// WaitConfig is a browser.Wait in milliseconds.
type WaitConfig struct {
	TimeoutMs int `json:"timeout_ms" yaml:"timeout_ms"`
	PollMs    int `json:"poll_ms" yaml:"poll_ms"`
}

func (c WaitConfig) wait() browser.Wait {
	return browser.Wait{
		Timeout: millis(c.TimeoutMs),
		Poll:    millis(c.PollMs),
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

type FacebookConfig struct {
	// CredentialsFile is a two line file, username then password.
	CredentialsFile string               `json:"credentials_file" yaml:"credentials_file"`
	Credentials     facebook.Credentials `json:"credentials" yaml:"credentials"`
	LoginURL        string               `json:"login_url" yaml:"login_url"`
	Urls            []string             `json:"urls" yaml:"urls"`

	ChallengeWait      WaitConfig `json:"challenge_wait" yaml:"challenge_wait"`
	FeedWait           WaitConfig `json:"feed_wait" yaml:"feed_wait"`
	LoginReviewDelayMs int        `json:"login_review_delay_ms" yaml:"login_review_delay_ms"`
	InitialPageWaitMs  int        `json:"initial_page_wait_ms" yaml:"initial_page_wait_ms"`
	TooltipDelayMs     int        `json:"tooltip_delay_ms" yaml:"tooltip_delay_ms"`
	MaxCodeAttempts    int        `json:"max_code_attempts" yaml:"max_code_attempts"`

	StopTimeContains string `json:"stop_time_contains" yaml:"stop_time_contains"`
	StopTextContains string `json:"stop_text_contains" yaml:"stop_text_contains"`
	MaxPosts         int    `json:"max_posts" yaml:"max_posts"`
}

func (c FacebookConfig) credentials() (facebook.Credentials, error) {
	if !c.Credentials.Empty() {
		return c.Credentials, nil
	}
	if c.CredentialsFile == "" {
		return facebook.Credentials{}, fmt.Errorf("neither facebook.credentials nor facebook.credentials_file is set")
	}
	return facebook.LoadCredentials(c.CredentialsFile)
}

type VnExpressConfig struct {
	Urls               []string   `json:"urls" yaml:"urls"`
	ContainerWait      WaitConfig `json:"container_wait" yaml:"container_wait"`
	MaxExpansions      int        `json:"max_expansions" yaml:"max_expansions"`
	ExpansionTimeoutMs int        `json:"expansion_timeout_ms" yaml:"expansion_timeout_ms"`
}

type OutputConfig struct {
	// Json is the path of the JSON document pages are written to.
	Json string              `json:"json" yaml:"json"`
	Db   configlibsql.Struct `json:"db" yaml:"db"`
}

type Config struct {
	// Timezone is the IANA name scrape times are recorded in, the local
	// timezone when empty.
	Timezone  string          `json:"timezone" yaml:"timezone"`
	Browser   BrowserConfig   `json:"browser" yaml:"browser"`
	Facebook  FacebookConfig  `json:"facebook" yaml:"facebook"`
	Vnexpress VnExpressConfig `json:"vnexpress" yaml:"vnexpress"`
	Output    OutputConfig    `json:"output" yaml:"output"`
}
