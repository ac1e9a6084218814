package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"caldera/internal/config"
	"caldera/internal/heap"
	"caldera/internal/snapshot"
	"caldera/internal/ui"
	"caldera/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [flags] <snapshot>",
	Short: "Run invariant checks over every object in a heap snapshot",
	Long:  `Load a captured heap snapshot and sweep every region, applying the configured consistency checks to each object. The first violation prints a full diagnostic and fails the command.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func init() {
	verifyCmd.Flags().Int("jobs", 0, "max parallel region workers (0=auto)")
	verifyCmd.Flags().String("checks", "", "comma-separated checks (correct|region|marked-complete|marked-next|not-in-cset)")
	verifyCmd.Flags().Bool("ui", false, "show interactive per-region progress")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadDefault()
	if err != nil {
		return err
	}

	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if jobs == 0 {
		jobs = cfg.Verify.Jobs
	}

	checksStr, err := cmd.Flags().GetString("checks")
	if err != nil {
		return fmt.Errorf("failed to get checks flag: %w", err)
	}
	names := cfg.Verify.Checks
	if checksStr != "" {
		names = strings.Split(checksStr, ",")
	}
	checks, err := verify.ParseChecks(names)
	if err != nil {
		return err
	}

	withUI, err := cmd.Flags().GetBool("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}

	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	applyColorMode(colorFlag, cfg.Output.Color)

	m, err := snapshot.Read(args[0])
	if err != nil {
		return err
	}

	opts := verify.SweepOptions{Jobs: jobs, Checks: checks}

	var res verify.SweepResult
	if withUI && isTerminal(os.Stdout) {
		res, err = runSweepWithUI(cmd.Context(), "verifying "+args[0], m, opts)
	} else {
		res, err = verify.Sweep(cmd.Context(), m, opts)
	}
	if err != nil {
		var v *verify.Violation
		if errors.As(err, &v) {
			printViolation(v)
			os.Exit(1)
		}
		return err
	}

	ok := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(cmd.OutOrStdout(), "%s swept %d objects in %d regions, all invariants hold\n",
		ok("clean:"), res.Objects, res.Regions)
	return nil
}

type sweepOutcome struct {
	res verify.SweepResult
	err error
}

func runSweepWithUI(ctx context.Context, title string, m *heap.Model, opts verify.SweepOptions) (verify.SweepResult, error) {
	sweepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan verify.SweepEvent, 256)
	outcomeCh := make(chan sweepOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = events
		res, err := verify.Sweep(sweepCtx, m, optsCopy)
		outcomeCh <- sweepOutcome{res: res, err: err}
		close(events)
	}()

	labels := make([]string, m.RegionCount())
	for i := range labels {
		r := m.Region(i)
		labels[i] = fmt.Sprintf("region %03d %s", i, r.State)
	}
	model := ui.NewSweepModel(title, labels, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// The UI is the only consumer of events; once it is gone, cancel so
	// a still-running sweep cannot block on the full progress channel.
	cancel()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.res, uiErr
	}
	return outcome.res, outcome.err
}

func printViolation(v *verify.Violation) {
	head := color.New(color.FgRed, color.Bold)
	site := color.New(color.FgCyan)
	head.Fprintln(os.Stderr, "heap invariant violated")
	site.Fprintf(os.Stderr, "at %s:%d\n\n", v.File, v.Line)
	fmt.Fprintln(os.Stderr, v.Message)
}
