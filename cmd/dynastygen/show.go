package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/dynasty-gen/internal/persistence"
)

var showCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show a saved run",
	Long: `Show loads a saved run from the database given by --db and prints its
statistics, family tree and most recent events. Without a run ID the last
saved run is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		id := ""
		if len(args) == 1 {
			id = args[0]
		} else if id, err = db.LastRun(); err != nil {
			return fmt.Errorf("no run id given: %w", err)
		}

		run, err := db.LoadRun(id)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Run %s, seed %d, saved %s\n\n", run.ID, run.Seed, humanize.Time(run.CreatedAt))

		depth, _ := cmd.Flags().GetInt("tree-depth")
		if err := printReport(w, run.Dynasty, depth); err != nil {
			return err
		}

		n, _ := cmd.Flags().GetInt("events")
		events := run.Dynasty.Events
		if n <= 0 || len(events) == 0 {
			return nil
		}
		fmt.Fprintf(w, "\nLast %d events:\n", min(n, len(events)))
		for _, e := range events[max(0, len(events)-n):] {
			fmt.Fprintf(w, "  %-10s %-8s %s\n", e.Date(), e.Category, e.Description)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().Int("tree-depth", 2, "depth of the printed family tree")
	showCmd.Flags().Int("events", 10, "number of recent events to print")
	rootCmd.AddCommand(showCmd)
}

// openDB opens the run database named by --db, the config or the environment.
func openDB() (*persistence.DB, error) {
	path := v.GetString("output.db")
	if path == "" {
		return nil, errors.New("no database: pass --db or set output.db")
	}
	return persistence.Open(path)
}
