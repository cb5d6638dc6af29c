package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// scenarioDir holds the checked-in scenarios shared with the harness tests.
const scenarioDir = "../../testdata/scenarios"

func scenarioPath(name string) string {
	return filepath.Join(scenarioDir, name+".yaml")
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// recordScenario simulates a checked-in scenario into a fresh journal and
// returns the database path.
func recordScenario(t *testing.T, names ...string) string {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "hotbar.db")
	for _, name := range names {
		_, err := execute(NewSimulateCommand(&RootOptions{Format: "text"}), scenarioPath(name), "--db", dbPath)
		require.NoError(t, err, "simulate %s", name)
	}
	return dbPath
}
