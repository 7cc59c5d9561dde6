package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"riptide/internal/report"
	"riptide/internal/scenario"
)

var runCmd = &cobra.Command{
	Use:   "run [scenario]",
	Short: "Run one scenario through the runtime",
	Long:  `Run a single workload scenario (fanout|chain|kernel, or a [[scenario]] name from riptide.toml) and print its runtime counters`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScenario,
}

func init() {
	runCmd.Flags().Int("tasks", 256, "fan-out width / kernel count")
	runCmd.Flags().Int("depth", 64, "chain length (chain scenario only)")
	runCmd.Flags().Bool("ui", false, "show live progress UI")
}

func runScenario(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) == 1 {
		name = args[0]
	}

	mf, _, err := loadManifest(".")
	if err != nil {
		return err
	}

	spec, err := resolveRunSpec(cmd, mf, name)
	if err != nil {
		return err
	}

	tracer, cleanup, err := setupTracing(cmd, mf)
	if err != nil {
		return err
	}
	defer cleanup()
	spec.Tracer = tracer

	if workers, err := cmd.Root().PersistentFlags().GetInt("workers"); err == nil && workers > 0 {
		spec.Workers = workers
	}

	useUI, err := cmd.Flags().GetBool("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}

	started := time.Now()
	var rep *report.Report
	if useUI && isTerminal(os.Stdout) {
		rep, err = runScenarioWithUI(spec)
	} else {
		rep, err = scenario.Run(spec, nil)
	}
	if err != nil {
		return err
	}

	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	if !quiet {
		printSummary(cmd.OutOrStdout(), rep, time.Since(started), colorEnabled(cmd))
	}
	return nil
}

// resolveRunSpec maps the positional argument to a scenario: a [[scenario]]
// name from the manifest first, then a bare kind driven by flags.
func resolveRunSpec(cmd *cobra.Command, mf *manifest, name string) (scenario.Spec, error) {
	if mf != nil && name != "" {
		if sc, ok := mf.scenarioByName(name); ok {
			return mf.specFor(sc)
		}
	}
	if name == "" {
		if mf == nil {
			return scenario.Spec{}, errors.New(noRiptideTomlMessage)
		}
		if len(mf.Config.Scenarios) != 1 {
			return scenario.Spec{}, fmt.Errorf("%s: %d scenarios configured, name one explicitly", mf.Path, len(mf.Config.Scenarios))
		}
		return mf.specFor(mf.Config.Scenarios[0])
	}

	kind, err := scenario.ParseKind(name)
	if err != nil {
		if mf != nil {
			return scenario.Spec{}, fmt.Errorf("%q is neither a [[scenario]] in %s nor a kind: %w", name, mf.Path, err)
		}
		return scenario.Spec{}, err
	}
	tasks, err := cmd.Flags().GetInt("tasks")
	if err != nil {
		return scenario.Spec{}, fmt.Errorf("failed to get tasks flag: %w", err)
	}
	depth, err := cmd.Flags().GetInt("depth")
	if err != nil {
		return scenario.Spec{}, fmt.Errorf("failed to get depth flag: %w", err)
	}
	return scenario.Spec{
		Name:  string(kind),
		Kind:  kind,
		Tasks: tasks,
		Depth: depth,
	}, nil
}

func printSummary(out io.Writer, rep *report.Report, wall time.Duration, colored bool) {
	head := color.New(color.FgCyan, color.Bold)
	good := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	if !colored {
		head.DisableColor()
		good.DisableColor()
		bad.DisableColor()
	}

	head.Fprintf(out, "%s\n", rep.Scenario)
	fmt.Fprintf(out, "  workers:    %d\n", rep.Workers)
	fmt.Fprintf(out, "  spawned:    %d\n", rep.Spawned)
	good.Fprintf(out, "  completed:  %d\n", rep.Completed)
	if rep.Raised > 0 {
		bad.Fprintf(out, "  raised:     %d\n", rep.Raised)
	}
	fmt.Fprintf(out, "  suspended:  %d\n", rep.Suspended)
	fmt.Fprintf(out, "  resumed:    %d\n", rep.Resumed)
	fmt.Fprintf(out, "  elapsed:    %s (wall %s)\n", rep.Elapsed().Round(time.Microsecond), wall.Round(time.Microsecond))
	fmt.Fprintf(out, "  throughput: %.0f tasks/s\n", rep.Throughput())
}
