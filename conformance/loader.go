package conformance

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// TestPath is the directory holding the YAML suites.
const TestPath = "testdata"

// LoadedTest represents a test with its source file path
type LoadedTest struct {
	File  string
	Suite TestSuite
	Test  TestCase
}

// LoadAllTests walks the suite directory and loads all test cases.
func LoadAllTests() ([]LoadedTest, error) {
	return LoadTestsFromDir(TestPath)
}

// LoadTestsFromDir loads every .yaml suite below dir.
func LoadTestsFromDir(dir string) ([]LoadedTest, error) {
	var loaded []LoadedTest

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}

		tests, err := loadTestFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		relPath, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			relPath = path
		}
		for i := range tests {
			tests[i].File = relPath
		}
		loaded = append(loaded, tests...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

// loadTestFile parses one suite file into its individual test cases.
func loadTestFile(path string) ([]LoadedTest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var suite TestSuite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("yaml parse error: %w", err)
	}
	if suite.Name == "" {
		return nil, fmt.Errorf("suite has no name")
	}

	loaded := make([]LoadedTest, 0, len(suite.Tests))
	for _, tc := range suite.Tests {
		if tc.Name == "" {
			return nil, fmt.Errorf("suite %q has an unnamed test", suite.Name)
		}
		loaded = append(loaded, LoadedTest{Suite: suite, Test: tc})
	}
	return loaded, nil
}
