package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/tierlab/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "tierlab",
	Short: "Four-tier diagnostic assessments with an AI tutor",
	Long: "tierlab records four-tier diagnostic answers, tutors students through " +
		"their misconceptions and records the revised answer once mastery is shown.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("db", "", "Path to the sqlite database (overrides store.path)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tutorCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig applies --config, then --db on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.Path = p
	}
	return cfg, nil
}
