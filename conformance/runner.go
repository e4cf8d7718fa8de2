package conformance

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/chazu/losp/pkg/bytecode"
)

// TestResult represents the outcome of running a single test
type TestResult struct {
	Test       LoadedTest
	Passed     bool
	Skipped    bool
	SkipReason string
	Error      error
}

// Runner executes conformance tests. Each test runs on a fresh VM so
// globals cannot leak between cases.
type Runner struct{}

// NewRunner creates a new test runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes a single test case against a fresh VM.
func (r *Runner) Run(test LoadedTest) TestResult {
	if skipped, reason := test.Test.IsSkipped(); skipped {
		return TestResult{Test: test, Skipped: true, SkipReason: reason}
	}

	var out bytes.Buffer
	vm := bytecode.NewVM()
	vm.SetOutput(&out)

	value, runErr := vm.EvalSource(test.Test.Program)
	if err := check(test.Test.Expect, value, out.String(), runErr); err != nil {
		return TestResult{Test: test, Error: err}
	}
	return TestResult{Test: test, Passed: true}
}

// RunAll executes every test and returns the results in order.
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, 0, len(tests))
	for _, test := range tests {
		results = append(results, r.Run(test))
	}
	return results
}

func check(expect Expectation, value bytecode.Value, output string, runErr error) error {
	if expect.Error != "" {
		if runErr == nil {
			return fmt.Errorf("expected an error containing %q, got value %s", expect.Error, value.Inspect())
		}
		if !strings.Contains(runErr.Error(), expect.Error) {
			return fmt.Errorf("error = %q, want it to contain %q", runErr, expect.Error)
		}
	} else if runErr != nil {
		return fmt.Errorf("unexpected error: %w", runErr)
	}

	if expect.Value != nil && runErr == nil {
		if got := value.Inspect(); got != *expect.Value {
			return fmt.Errorf("value = %s, want %s", got, *expect.Value)
		}
	}
	if expect.Output != nil {
		if output != *expect.Output {
			return fmt.Errorf("output = %q, want %q", output, *expect.Output)
		}
	}
	return nil
}

// Stats summarizes a result set.
type Stats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats tallies results.
func ComputeStats(results []TestResult) Stats {
	var s Stats
	for _, r := range results {
		s.Total++
		switch {
		case r.Skipped:
			s.Skipped++
		case r.Passed:
			s.Passed++
		default:
			s.Failed++
		}
	}
	return s
}

// FormatStats renders a summary line.
func FormatStats(s Stats) string {
	return fmt.Sprintf("%d total, %d passed, %d failed, %d skipped", s.Total, s.Passed, s.Failed, s.Skipped)
}
