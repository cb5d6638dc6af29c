package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ScenarioDirError is returned when a scenario directory cannot be listed.
type ScenarioDirError struct {
	Dir string
	Err error
}

// Error implements the error interface.
func (e *ScenarioDirError) Error() string {
	return fmt.Sprintf("scenario directory %q: %v", e.Dir, e.Err)
}

func (e *ScenarioDirError) Unwrap() error { return e.Err }

// FindScenarios returns the *.yaml and *.yml files directly under dir,
// sorted by path.
func FindScenarios(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &ScenarioDirError{Dir: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &ScenarioDirError{Dir: dir, Err: fmt.Errorf("not a directory")}
	}

	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, &ScenarioDirError{Dir: dir, Err: err}
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	if paths == nil {
		paths = []string{}
	}
	return paths, nil
}

// SuiteResult contains results from running a directory of scenarios.
type SuiteResult struct {
	TotalScenarios int               `json:"total_scenarios"`
	Passed         int               `json:"passed"`
	Failed         int               `json:"failed"`
	Failures       []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure represents a scenario that failed to load, run, or pass.
type ScenarioFailure struct {
	Scenario string   `json:"scenario"`
	Path     string   `json:"path"`
	Errors   []string `json:"errors"`
}

// RunSuite loads and runs every scenario in dir.
// Returns an error only when dir cannot be listed.
//
// For each scenario file:
// 1. Load and validate the YAML
// 2. Run it via harness.Run
// 3. Collect pass/fail
func RunSuite(dir string, opts ...Option) (*SuiteResult, error) {
	paths, err := FindScenarios(dir)
	if err != nil {
		return nil, err
	}

	result := &SuiteResult{}
	for _, path := range paths {
		result.TotalScenarios++

		scenario, err := LoadScenario(path)
		if err != nil {
			result.fail("", path, fmt.Sprintf("failed to load scenario: %v", err))
			continue
		}

		runResult, err := Run(scenario, opts...)
		if err != nil {
			result.fail(scenario.Name, path, fmt.Sprintf("scenario execution failed: %v", err))
			continue
		}

		if !runResult.Pass {
			result.fail(scenario.Name, path, runResult.Errors...)
			continue
		}

		result.Passed++
	}

	return result, nil
}

func (r *SuiteResult) fail(name, path string, errs ...string) {
	r.Failed++
	r.Failures = append(r.Failures, ScenarioFailure{
		Scenario: name,
		Path:     path,
		Errors:   errs,
	})
}
