package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pable/dcwbuild/internal/report"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [build-id]",
	Short: "List recorded builds, or one build's standings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of builds to list (0 = all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := openLedger()
	if err != nil {
		return err
	}
	defer db.Close()
	w := cmd.OutOrStdout()

	if len(args) == 0 {
		builds, err := db.ListBuilds(historyLimit)
		if err != nil {
			return fmt.Errorf("list builds: %w", err)
		}
		report.PrintBuilds(w, builds)
		return nil
	}

	b, err := db.GetBuildByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("find build: %w", err)
	}
	if b == nil {
		return fmt.Errorf("no build matching %q", args[0])
	}
	fmt.Fprintf(w, "\nBuild %s  |  %s  |  %s\n\n", b.ID, b.StartedAt.Format("2006-01-02 15:04:05"), b.Status)
	if b.CurrentEventID == 0 {
		fmt.Fprintln(w, "No current event recorded.")
		return nil
	}
	rows, err := db.Standings(b.ID, b.CurrentEventID)
	if err != nil {
		return fmt.Errorf("load standings: %w", err)
	}
	report.PrintBuildStandings(w, rows)
	return nil
}
