// Package conformance runs the YAML behavior suites under testdata/. Each
// file describes programs and the values, output, or errors they must
// produce, independent of any one test binary.
package conformance

// TestSuite represents a complete YAML test file
type TestSuite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Tests       []TestCase `yaml:"tests"`
}

// TestCase represents a single test within a suite
type TestCase struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Skip        interface{} `yaml:"skip,omitempty"` // bool or string
	Program     string      `yaml:"program"`
	Expect      Expectation `yaml:"expect"`
}

// Expectation defines what result is expected from a test. Value is matched
// against the rendering of the last form's value; Output against everything
// the program printed; Error as a substring of the failure message. A test
// with an Error expectation must fail.
type Expectation struct {
	Value  *string `yaml:"value,omitempty"`
	Output *string `yaml:"output,omitempty"`
	Error  string  `yaml:"error,omitempty"`
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped() (bool, string) {
	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
		return false, ""
	case string:
		return true, v
	default:
		return false, ""
	}
}
