package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"Concert-Scout-Go/pkg/config"
	"Concert-Scout-Go/pkg/db"
)

var runsFlags struct {
	limit int
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs, newest first",
	RunE:  listRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsFlags.limit, "limit", db.DefaultListLimit, "Maximum number of runs to list")
}

func listRuns(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	database, err := db.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer database.Close()

	runs, err := database.ListRuns(cmd.Context(), runsFlags.limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tREPORT")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Report)
	}
	return w.Flush()
}
