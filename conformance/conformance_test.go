package conformance

import "testing"

func TestConformance(t *testing.T) {
	tests, err := LoadAllTests()
	if err != nil {
		t.Fatalf("Failed to load tests: %v", err)
	}
	if len(tests) == 0 {
		t.Fatal("No tests loaded")
	}

	runner := NewRunner()
	results := runner.RunAll(tests)

	fileGroups := make(map[string][]TestResult)
	for _, result := range results {
		fileGroups[result.Test.File] = append(fileGroups[result.Test.File], result)
	}

	for file, fileResults := range fileGroups {
		t.Run(file, func(t *testing.T) {
			for _, result := range fileResults {
				result := result
				t.Run(result.Test.Test.Name, func(t *testing.T) {
					if result.Skipped {
						t.Skipf("Skipped: %s", result.SkipReason)
					} else if !result.Passed {
						t.Errorf("Test failed: %v", result.Error)
					}
				})
			}
		})
	}

	stats := ComputeStats(results)
	t.Logf("\n=== Summary ===\n%s", FormatStats(stats))
}

func TestExpectationChecks(t *testing.T) {
	str := func(s string) *string { return &s }

	runner := NewRunner()
	pass := runner.Run(LoadedTest{Test: TestCase{
		Name:    "inline value",
		Program: "(+ 1 2)",
		Expect:  Expectation{Value: str("3")},
	}})
	if !pass.Passed {
		t.Errorf("inline value test failed: %v", pass.Error)
	}

	fail := runner.Run(LoadedTest{Test: TestCase{
		Name:    "wrong value",
		Program: "(+ 1 2)",
		Expect:  Expectation{Value: str("4")},
	}})
	if fail.Passed {
		t.Error("wrong-value test unexpectedly passed")
	}

	errCase := runner.Run(LoadedTest{Test: TestCase{
		Name:    "expected error",
		Program: "(/ 1 0)",
		Expect:  Expectation{Error: "division by zero"},
	}})
	if !errCase.Passed {
		t.Errorf("expected-error test failed: %v", errCase.Error)
	}

	skipped := runner.Run(LoadedTest{Test: TestCase{
		Name: "skipped",
		Skip: "not yet",
	}})
	if !skipped.Skipped || skipped.SkipReason != "not yet" {
		t.Errorf("skip not honored: %+v", skipped)
	}
}
