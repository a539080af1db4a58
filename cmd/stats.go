package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/tierlab/internal/analytics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-topic assessment statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		opts := analytics.DefaultOptions()
		opts.ConfidentAt = d.cfg.Analytics.ConfidentAt

		reports, err := analytics.Build(cmd.Context(), d.tables, opts)
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No submissions recorded yet.")
			return nil
		}
		printReports(cmd.OutOrStdout(), reports)
		return nil
	},
}

var reportCategories = []analytics.Category{
	analytics.CategoryScientific,
	analytics.CategoryLuckyGuess,
	analytics.CategoryMisconception,
	analytics.CategoryLackOfKnowledge,
	analytics.CategoryUnknown,
}

func printReports(w io.Writer, reports []analytics.TopicReport) {
	rule := strings.Repeat("─", 72)
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title := r.TopicID
		if r.Title != "" {
			title += " (" + r.Title + ")"
		}
		fmt.Fprintln(w, title)
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Submissions   initial %d  mastery %d  corrected %d\n", r.Initial, r.Mastery, r.Corrected)
		fmt.Fprintf(w, "Mastery       %d of %d students (%.0f%%)\n", r.Mastered, r.Students, r.MasteryRate*100)
		fmt.Fprintf(w, "Correct       initial %d  revised %d\n", r.InitialCorrect, r.RevisedCorrect)
		fmt.Fprintf(w, "Confidence    tier2 %s  tier4 %s  tier6 %s\n",
			formatConfidence(r.AnswerConfidence), formatConfidence(r.ReasonConfidence), formatConfidence(r.RevisedConfidence))

		var cats []string
		for _, c := range reportCategories {
			if n := r.Categories[c]; n > 0 {
				cats = append(cats, fmt.Sprintf("%s %d", c, n))
			}
		}
		fmt.Fprintf(w, "Diagnosis     %s\n", strings.Join(cats, "  "))

		for _, g := range r.Groups {
			fmt.Fprintf(w, "  %-14s %3d students  %3d mastered  %5.1f%%\n", g.Group, g.Students, g.Mastered, g.MasteryRate*100)
		}
	}
}

func formatConfidence(s analytics.ConfidenceSummary) string {
	if s.N == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f/%.1f (n=%d)", s.Mean, s.Median, s.N)
}
