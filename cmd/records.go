package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abhisek/tierlab/internal/records"
	"github.com/abhisek/tierlab/internal/store"
)

var knownTables = []string{
	records.TableSubmissions,
	records.TableTraces,
	records.TableModules,
	records.TableAssignments,
	records.TableLLMRequests,
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect Record Store tables",
}

var recordsListCmd = &cobra.Command{
	Use:       "list <table>",
	Short:     "Print the rows of a table",
	Long:      "Print the rows of a table. Tables: " + strings.Join(knownTables, ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: knownTables,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		table := args[0]
		if i := slices.IndexFunc(knownTables, func(t string) bool { return strings.EqualFold(t, table) }); i >= 0 {
			table = knownTables[i]
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		rows, err := d.store.ReadAll(cmd.Context(), table)
		if err != nil {
			return fmt.Errorf("read %s: %w", table, err)
		}
		if len(rows) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No rows in %s.\n", table)
			return nil
		}
		if limit > 0 && len(rows) > limit {
			rows = rows[len(rows)-limit:]
		}
		return printRows(cmd.OutOrStdout(), rows)
	},
}

func init() {
	recordsListCmd.Flags().IntP("limit", "n", 0, "Show only the last n rows (0 shows all)")
	recordsCmd.AddCommand(recordsListCmd)
}

// printRows writes rows as an aligned table. Columns are the union of all
// row keys in sorted order.
func printRows(w io.Writer, rows []store.Row) error {
	seen := make(map[string]bool)
	var columns []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	slices.Sort(columns)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	for _, r := range rows {
		vals := make([]string, len(columns))
		for i, c := range columns {
			vals[i] = truncate(strings.ReplaceAll(r[c], "\n", " "), 40)
		}
		fmt.Fprintln(tw, strings.Join(vals, "\t"))
	}
	return tw.Flush()
}
