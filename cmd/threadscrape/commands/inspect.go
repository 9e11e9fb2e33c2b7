package commands

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"threadscrape/internal/store/jsonstore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var inspectMaxWidth int

func init() {
	inspectCmd.Flags().IntVar(&inspectMaxWidth, "width", 60, "The maximum width of a column.")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.json>",
	Short: "Prints the pages of a JSON file written by posts or comments.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pages, err := jsonstore.Read(args[0])
		if err != nil {
			return err
		}
		for _, page := range pages {
			renderPage(page)
		}
		return nil
	},
}

// elementColumns lists the scalar fields of the elements, in a stable order.
func elementColumns(elements []any) []string {
	seen := map[string]bool{}
	var columns []string
	for _, el := range elements {
		fields, ok := el.(map[string]any)
		if !ok {
			continue
		}
		for key, value := range fields {
			if _, nested := value.([]any); nested || seen[key] {
				continue
			}
			seen[key] = true
			columns = append(columns, key)
		}
	}
	slices.Sort(columns)
	return columns
}

func appendElements(t table.Writer, columns []string, elements []any, prefix string) {
	for i, el := range elements {
		fields, ok := el.(map[string]any)
		if !ok {
			continue
		}
		index := fmt.Sprintf("%s%d", prefix, i+1)
		row := table.Row{index}
		for _, column := range columns {
			row = append(row, fmt.Sprint(fields[column]))
		}
		t.AppendRow(row)

		replies, _ := fields["replies"].([]any)
		appendElements(t, columns, replies, index+".")
	}
}

func renderPage(page map[string]any) {
	elements, _ := page["elements"].([]any)
	columns := elementColumns(elements)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("%v (count: %v, scraped: %v)", page["url"], page["count"], page["scraped"]))

	header := table.Row{"#"}
	configs := []table.ColumnConfig{}
	for i, column := range columns {
		header = append(header, strings.ToUpper(column))
		configs = append(configs, table.ColumnConfig{Number: i + 2, WidthMax: inspectMaxWidth})
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	appendElements(t, columns, elements, "")

	t.SetStyle(table.StyleRounded)
	t.Render()
}
