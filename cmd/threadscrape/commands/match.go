package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"threadscrape/internal/browser"
	"threadscrape/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var matchFlags struct {
	login      bool
	screenshot string
	wait       WaitConfig
}

func init() {
	flags := matchCmd.Flags()
	flags.BoolVar(&matchFlags.login, "login", false, "Log into facebook first.")
	flags.StringVar(&matchFlags.screenshot, "screenshot", "", "Write a full page png screenshot to this file.")
	flags.IntVar(&matchFlags.wait.TimeoutMs, "timeout", 15000, "How long to wait for the selector, in milliseconds.")
	rootCmd.AddCommand(matchCmd)
}

// matchCmd helps fixing selectors after the markup of a site changed.
var matchCmd = &cobra.Command{
	Use:   "match <url> <selector>",
	Short: "Prints the text of every element matching a css selector on a page.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		loc := browser.Locator(args[1])

		session, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer session.Close()

		if matchFlags.login {
			err = login(ctx, session)
			if err != nil {
				return err
			}
		}
		err = session.Navigate(ctx, args[0])
		if err == nil {
			err = session.WaitLoaded(ctx)
		}
		if err != nil {
			return err
		}

		if matchFlags.screenshot != "" {
			defer func() {
				png, err := session.Screenshot(ctx)
				if err == nil {
					err = os.WriteFile(matchFlags.screenshot, png, 0644)
				}
				if err != nil {
					tel.ReportWarning("match", fmt.Errorf("screenshot: %w", err))
				}
			}()
		}

		location, err := session.Location(ctx)
		if err != nil {
			return err
		}
		_, err = session.WaitFor(ctx, loc, matchFlags.wait.wait())
		if err != nil {
			return fmt.Errorf("%s on %s: %w", loc, location, err)
		}

		snippets, err := outerSnippets(ctx, session, loc)
		if err != nil {
			tel.ReportWarning("match", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetTitle(fmt.Sprintf("%s on %s", loc, location))
		t.AppendHeader(table.Row{"#", "Element", "Text", "HTML"})
		for i, el := range session.LocateAll(ctx, loc) {
			text, err := session.Text(ctx, el)
			if err != nil {
				text = fmt.Sprintf("<%v>", err)
			}
			snippet := ""
			if i < len(snippets) {
				snippet = snippets[i]
			}
			t.AppendRow(table.Row{i + 1, el.String(), text, snippet})
		}
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, WidthMax: 60}, {Number: 4, WidthMax: 60}})
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

const outerHTMLScript = `function(selector) {
	return Array.from(document.querySelectorAll(selector), el => el.outerHTML);
}`

// snippetRunes caps the markup printed per matched element.
const snippetRunes = 160

// outerSnippets returns the shortened outer html of every element matching
// loc, in document order.
func outerSnippets(ctx context.Context, driver browser.Driver, loc browser.Locator) ([]string, error) {
	var markup []string
	err := driver.RunScript(ctx, outerHTMLScript, &markup, string(loc))
	if err != nil {
		return nil, fmt.Errorf("outer html of %s: %w", loc, err)
	}
	out := make([]string, len(markup))
	for i, html := range markup {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return nil, err
		}
		out[i] = htmlutil.Snippet(doc.Find("body").Children().First(), snippetRunes)
	}
	return out, nil
}
