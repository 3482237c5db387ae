package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gavel/internal/harness"
	"github.com/roach88/gavel/internal/scenario"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenario-file-or-dir>...",
		Short: "Run scenario files through the conformance harness",
		Long: `Run declarative auction scenarios.

Each scenario executes against a fresh in-memory database with a manual
clock, so runs are deterministic and never touch the --db database. A
scenario fails when a step's outcome differs from its declared expectation
or a final-state assertion does not hold.

Exit codes:
  0 - all scenarios passed
  1 - one or more scenarios failed
  2 - command error (invalid paths, etc.)

Examples:
  gavel test ./scenarios
  gavel test ./scenarios --filter "settlement*"
  gavel test ./scenarios/no_bids.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	files, err := collectScenarioFiles(paths, opts.Filter)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(cmd, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		sr := runScenario(file, opts, cmd)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		if err := outputTestJSON(cmd, result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d/%d scenarios passed\n", result.Passed, result.Total)
	}

	if result.Failed > 0 {
		return &ExitError{Code: ExitFailure}
	}
	return nil
}

// collectScenarioFiles expands file and directory arguments into scenario
// file paths, applying the filter to file base names.
func collectScenarioFiles(paths []string, filter string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("path not found: %s", path))
		}
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("accessing %s", path), err)
		}

		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.IsDir() {
				return nil
			}
			ext := filepath.Ext(p)
			if ext != ".yaml" && ext != ".yml" {
				return nil
			}
			if filter != "" {
				name := strings.TrimSuffix(filepath.Base(p), ext)
				matched, err := filepath.Match(filter, name)
				if err != nil {
					return fmt.Errorf("invalid filter pattern: %w", err)
				}
				if !matched {
					return nil
				}
			}
			files = append(files, p)
			return nil
		})
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("scanning %s", path), err)
		}
	}
	return files, nil
}

// runScenario executes a single scenario file and returns its result.
func runScenario(file string, opts *TestOptions, cmd *cobra.Command) ScenarioResult {
	w := cmd.OutOrStdout()

	sc, err := scenario.Load(file)
	if err != nil {
		if opts.Format != "json" {
			fmt.Fprintf(w, "FAIL %s\n  load error: %v\n", filepath.Base(file), err)
		}
		return ScenarioResult{
			Name:   filepath.Base(file),
			Pass:   false,
			Errors: []string{fmt.Sprintf("loading scenario: %v", err)},
		}
	}

	res, err := harness.Run(cmd.Context(), sc)
	if err != nil {
		if opts.Format != "json" {
			fmt.Fprintf(w, "FAIL %s\n  execution error: %v\n", sc.Name, err)
		}
		return ScenarioResult{
			Name:   sc.Name,
			Pass:   false,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	if !res.Passed() {
		if opts.Format != "json" {
			fmt.Fprintf(w, "FAIL %s\n", sc.Name)
			for _, f := range res.Failures {
				fmt.Fprintf(w, "  %s\n", f)
			}
		}
		return ScenarioResult{Name: sc.Name, Pass: false, Errors: res.Failures}
	}

	if opts.Format != "json" {
		fmt.Fprintf(w, "ok   %s (%d steps, %d audit entries)\n", sc.Name, len(sc.Steps), len(res.Trace))
	}
	return ScenarioResult{Name: sc.Name, Pass: true}
}

func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
