package cli

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/hotbar/internal/harness"
	"github.com/roach88/hotbar/internal/ir"
	"github.com/roach88/hotbar/internal/store"
)

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	*RootOptions
	Database string // optional - also journal the run to SQLite
}

// SimulateResult is the output of one simulated scenario.
type SimulateResult struct {
	Scenario   string                      `json:"scenario"`
	Pass       bool                        `json:"pass"`
	Errors     []string                    `json:"errors,omitempty"`
	Decisions  []harness.TraceEvent        `json:"decisions"`
	Cooldowns  map[string]ir.CooldownEntry `json:"cooldowns"`
	Tick       int64                       `json:"tick"`
	ProbesSent int                         `json:"probes_sent"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Run one scenario against the cooldown engine",
		Long: `Run a scenario file step by step against a fresh session and print
the decisions the engine made (probes, cooldowns, rejections) together with
the final ledger.

With --db the session is also journaled to SQLite, where it can be
inspected with "hotbar trace" and verified with "hotbar replay".

Exit codes:
  0 - All assertions passed
  1 - One or more assertions failed
  2 - Command error (invalid scenario, database error, etc.)

Examples:
  hotbar simulate ./testdata/scenarios/frostbolt.yaml
  hotbar simulate ./testdata/scenarios/frostbolt.yaml --db ./hotbar.db
  hotbar simulate ./testdata/scenarios/frostbolt.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal")

	return cmd
}

func runSimulate(opts *SimulateOptions, path string, cmd *cobra.Command) error {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	var runOpts []harness.Option
	if opts.Verbose {
		runOpts = append(runOpts, harness.WithLogger(slog.Default()))
	}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		runOpts = append(runOpts, harness.WithJournal(st))
	}

	run, err := harness.Run(scenario, runOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	result := SimulateResult{
		Scenario:   scenario.Name,
		Pass:       run.Pass,
		Errors:     run.Errors,
		Decisions:  run.Decisions(),
		Cooldowns:  run.State.Cooldowns,
		Tick:       run.State.Tick,
		ProbesSent: run.ProbesSent,
	}
	if result.Decisions == nil {
		result.Decisions = []harness.TraceEvent{}
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		if err := formatter.SuccessFor(run.State.Token, result); err != nil {
			return err
		}
	} else {
		outputSimulateText(cmd, run.State.Token, result)
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

func outputSimulateText(cmd *cobra.Command, session string, result SimulateResult) {
	w := cmd.OutOrStdout()

	mark := "✓"
	if !result.Pass {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %s (session %s)\n", mark, result.Scenario, session)
	for _, e := range result.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Decisions:")
	if len(result.Decisions) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, d := range result.Decisions {
		fmt.Fprintf(w, "  [tick %d] %s%s\n", d.Tick, d.Kind, formatData(d.Data))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Final tick: %d, probes sent: %d\n", result.Tick, result.ProbesSent)

	abilities := make([]string, 0, len(result.Cooldowns))
	for a := range result.Cooldowns {
		abilities = append(abilities, a)
	}
	sort.Strings(abilities)
	for _, a := range abilities {
		cd := result.Cooldowns[a]
		fmt.Fprintf(w, "  %s: ticks %d..%d\n", a, cd.StartTick, cd.EndTick)
	}
}

// formatData renders entry data as canonical JSON, or nothing when empty.
func formatData(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	b, err := ir.MarshalCanonical(data)
	if err != nil {
		return fmt.Sprintf(" <%v>", err)
	}
	return " " + string(b)
}
