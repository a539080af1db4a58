package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/tierlab/internal/records"
	"github.com/abhisek/tierlab/internal/store"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "Manage topic modules",
}

var modulesImportCmd = &cobra.Command{
	Use:   "import <workbook.xlsx>",
	Short: "Import the Modules and Assignments sheets of a workbook",
	Long: "Copies the Modules sheet (topic_id, title, question, options, " +
		"correct_answer, scaffold_goal) and the Assignments sheet (group, topic_id) " +
		"of an xlsx workbook into the configured Record Store. A later import of " +
		"the same topic replaces the earlier one.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		src, err := store.OpenXLSX(args[0])
		if err != nil {
			return fmt.Errorf("open workbook: %w", err)
		}
		defer src.Close()
		in := records.New(src)

		mods, err := in.Modules.All(ctx)
		if err != nil {
			return fmt.Errorf("read modules: %w", err)
		}
		assignments, err := in.Assignments.All(ctx)
		if err != nil {
			return fmt.Errorf("read assignments: %w", err)
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.tables.Modules.Append(ctx, mods...); err != nil {
			return fmt.Errorf("write modules: %w", err)
		}
		if err := d.tables.Assignments.Append(ctx, assignments...); err != nil {
			return fmt.Errorf("write assignments: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d modules and %d assignments.\n", len(mods), len(assignments))
		return nil
	},
}

func init() {
	modulesCmd.AddCommand(modulesImportCmd)
}
