package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/dcwbuild/internal/model"
	"github.com/pable/dcwbuild/internal/output"
	"github.com/pable/dcwbuild/internal/report"
	"github.com/pable/dcwbuild/internal/routes"
)

var (
	reportEvent  int
	reportClan   string
	reportCustom bool
)

var reportCmd = &cobra.Command{
	Use:   "report [snapshot-or-dir]",
	Short: "Print leaderboards and superlatives from a written snapshot",
	Long: `Read snapshot.json (or snapshot.json.zst) from an output directory, default
"public", and print an event's division standings and stat leaders.
Without --event the current event is shown, falling back to the previous one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().IntVar(&reportEvent, "event", 0, "event id to report (default current, else previous)")
	reportCmd.Flags().StringVar(&reportClan, "clan", "", "print one clan's current stat leaders instead")
	reportCmd.Flags().BoolVar(&reportCustom, "custom", false, "print the all-clan custom leaderboard")
}

func runReport(cmd *cobra.Command, args []string) error {
	path := "public"
	if len(args) == 1 {
		path = args[0]
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		found, err := output.FindSnapshot(path)
		if err != nil {
			return err
		}
		path = found
	}
	snap, err := output.ReadSnapshot(path)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	if reportCustom {
		report.PrintCustomLeaderboard(w, routes.CustomLeaderboard(snap))
		return nil
	}

	if reportClan != "" {
		var clan *model.Clan
		for i := range snap.Clans {
			if snap.Clans[i].ID == reportClan {
				clan = &snap.Clans[i]
			}
		}
		if clan == nil {
			return fmt.Errorf("clan %s not in snapshot", reportClan)
		}
		fmt.Fprintf(w, "\n%s [%s]\n\n", clan.Name, clan.Tag)
		report.PrintSuperlatives(w, clan.CurrentStats)
		return nil
	}

	id := reportEvent
	if id == 0 {
		id = snap.CurrentEventID
	}
	if id == 0 {
		id = snap.PreviousEventID
	}
	if id == 0 {
		fmt.Fprintln(w, "No current or previous event in snapshot.")
		return nil
	}
	for _, e := range snap.Events {
		if e.ID != id {
			continue
		}
		report.PrintEventSummary(w, e)
		report.PrintStandings(w, e.Leaderboards)
		report.PrintSuperlatives(w, e.Stats)
		return nil
	}
	return fmt.Errorf("event %d not in snapshot", id)
}
