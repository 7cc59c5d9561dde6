package main

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"riptide/internal/report"
	"riptide/internal/scenario"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run every configured scenario and store reports",
	Long:  `Run each [[scenario]] from riptide.toml on its own runtime and persist the resulting reports for later comparison`,
	Args:  cobra.NoArgs,
	RunE:  runBench,
}

func init() {
	benchCmd.Flags().String("report", "", "report store directory (default: XDG cache)")
	benchCmd.Flags().Int("jobs", 0, "scenarios to run concurrently (0 = NumCPU)")
}

func runBench(cmd *cobra.Command, _ []string) error {
	mf, ok, err := loadManifest(".")
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(noRiptideTomlMessage)
	}
	if len(mf.Config.Scenarios) == 0 {
		return fmt.Errorf("%s: no [[scenario]] entries to bench", mf.Path)
	}

	tracer, cleanup, err := setupTracing(cmd, mf)
	if err != nil {
		return err
	}
	defer cleanup()

	workersOverride, err := cmd.Root().PersistentFlags().GetInt("workers")
	if err != nil {
		return fmt.Errorf("failed to get workers flag: %w", err)
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}

	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	reports := make([]*report.Report, len(mf.Config.Scenarios))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, sc := range mf.Config.Scenarios {
		i, sc := i, sc
		g.Go(func() error {
			spec, err := mf.specFor(sc)
			if err != nil {
				return err
			}
			spec.Tracer = tracer
			if workersOverride > 0 {
				spec.Workers = workersOverride
			}
			rep, err := scenario.Run(spec, nil)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", sc.Name, err)
			}
			reports[i] = rep
			return store.Put(sc.Name, rep)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	if !quiet {
		out := cmd.OutOrStdout()
		colored := colorEnabled(cmd)
		for _, rep := range reports {
			printSummary(out, rep, time.Duration(rep.ElapsedNS), colored)
			fmt.Fprintln(out)
		}
	}
	return nil
}

func openStore(cmd *cobra.Command) (*report.Store, error) {
	dir, err := cmd.Flags().GetString("report")
	if err != nil {
		return nil, fmt.Errorf("failed to get report flag: %w", err)
	}
	if dir != "" {
		return report.OpenAt(dir)
	}
	return report.Open("riptide")
}
