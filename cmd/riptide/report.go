package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"riptide/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report [name]",
	Short: "Show stored benchmark reports",
	Long:  `List stored benchmark reports, or print one by scenario name`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().String("report", "", "report store directory (default: XDG cache)")
	reportCmd.Flags().Bool("drop", false, "remove every stored report")
}

func runReport(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	drop, err := cmd.Flags().GetBool("drop")
	if err != nil {
		return fmt.Errorf("failed to get drop flag: %w", err)
	}
	if drop {
		return store.DropAll()
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		var rep report.Report
		ok, err := store.Get(args[0], &rep)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no stored report named %q", args[0])
		}
		printSummary(out, &rep, rep.Elapsed(), colorEnabled(cmd))
		fmt.Fprintf(out, "  started:    %s\n", rep.StartedAt.Format(time.RFC3339))
		return nil
	}

	names, err := store.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Fprintln(out, "no stored reports (run 'riptide bench' first)")
		return nil
	}
	for _, name := range names {
		var rep report.Report
		ok, err := store.Get(name, &rep)
		if err != nil || !ok {
			continue
		}
		fmt.Fprintf(out, "%-16s %8d tasks  %10.0f tasks/s  %s\n",
			name, rep.Completed, rep.Throughput(), rep.Elapsed().Round(time.Microsecond))
	}
	return nil
}
