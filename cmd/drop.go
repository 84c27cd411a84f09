package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dropForce bool
	dropBuild string
)

// dropCmd deletes the build ledger, or a single build from it.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the build ledger",
	Long:  "Permanently delete the SQLite build ledger. All recorded builds and standings will be lost. With --build only that build is removed.",
	Args:  cobra.NoArgs,
	RunE:  runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().StringVar(&dropBuild, "build", "", "delete only the build with this id (or id prefix)")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if dropBuild != "" {
		return dropOne(cmd)
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(cmd.OutOrStdout(), "Ledger does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove ledger: %w", err)
	}
	// WAL side files.
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(dbPath + suffix)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", dbPath)
	return nil
}

func dropOne(cmd *cobra.Command) error {
	db, err := openLedger()
	if err != nil {
		return err
	}
	defer db.Close()

	b, err := db.GetBuildByPrefix(dropBuild)
	if err != nil {
		return fmt.Errorf("find build: %w", err)
	}
	if b == nil {
		return fmt.Errorf("no build matching %q", dropBuild)
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete build %s (%s).\n", b.ID, b.StartedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if _, err := db.DeleteBuild(b.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted build: %s\n", b.ID)
	return nil
}
