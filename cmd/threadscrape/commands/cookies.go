package commands

import (
	"fmt"
	"os"
	"threadscrape/internal/scrapers/facebook"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var cookiesFlags struct {
	url   string
	login bool
	save  string
}

func init() {
	flags := cookiesCmd.Flags()
	flags.StringVar(&cookiesFlags.url, "url", "", "A url to visit before listing cookies, defaults to the facebook login url.")
	flags.BoolVar(&cookiesFlags.login, "login", false, "Log into facebook before listing cookies.")
	flags.StringVar(&cookiesFlags.save, "save", "", "Write the cookies to this file, point browser.cookies_file at it to reuse them.")
	rootCmd.AddCommand(cookiesCmd)
}

var cookiesCmd = &cobra.Command{
	Use:   "cookies [--login] [--save <cookies.json>]",
	Short: "Lists the cookies of a browser session.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		session, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer session.Close()

		if cookiesFlags.login {
			err = login(ctx, session)
		} else {
			url := cookiesFlags.url
			if url == "" {
				url = cfg.Facebook.LoginURL
			}
			if url == "" {
				url = facebook.DefaultLoginURL
			}
			err = session.Navigate(ctx, url)
		}
		if err != nil {
			return err
		}

		cookies, err := session.Cookies(ctx)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Name", "Domain", "Path", "Expires", "Secure", "HttpOnly"})
		for _, c := range cookies {
			expires := "session"
			if !c.Expires.IsZero() {
				expires = c.Expires.In(clock.Location()).Format("2006-01-02 15:04")
			}
			t.AppendRow(table.Row{c.Name, c.Domain, c.Path, expires, c.Secure, c.HttpOnly})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		if cookiesFlags.save != "" {
			err = saveCookies(cookiesFlags.save, cookies)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "saved %d cookies to %s\n", len(cookies), cookiesFlags.save)
		}
		return nil
	},
}
