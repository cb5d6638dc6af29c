package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/hotbar/internal/config"
)

// ConfigResult is the effective configuration as printed by the config command.
type ConfigResult struct {
	Source      string         `json:"source"`
	Values      map[string]any `json:"values"`
	JournalPath string         `json:"journal_path,omitempty"`
}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [file.cue]",
		Short: "Validate a config file and print the effective configuration",
		Long: `Load a CUE config file (or the built-in defaults), apply HOTBAR_*
environment variables on top, validate the result and print it.

Exit codes:
  0 - Configuration is valid
  2 - Configuration could not be read or is invalid

Examples:
  hotbar config
  hotbar config ./hotbar.cue
  HOTBAR_PROBE_DELAY_TICKS=4 hotbar config --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runConfig(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runConfig(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	cfg, err := config.Resolve(path)
	if err != nil {
		if opts.Format == "json" {
			_ = formatter.Error("CONFIG_INVALID", err.Error(), nil)
		}
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	source := path
	if source == "" {
		source = "defaults"
	}
	result := ConfigResult{
		Source:      source,
		Values:      cfg.Data(),
		JournalPath: cfg.JournalPath,
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "# %s\n", result.Source)
	keys := make([]string, 0, len(result.Values))
	for k := range result.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s = %v\n", k, result.Values[k])
	}
	if result.JournalPath != "" {
		fmt.Fprintf(w, "journal_path = %s\n", result.JournalPath)
	}
	return nil
}
