package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance scenario: one object file, the shots fed
// to it, and what each shot must decode to.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Object is the object file text inline. Exactly one of Object and
	// ObjectFile is set.
	Object string `yaml:"object,omitempty"`

	// ObjectFile is a path to the object file, relative to the scenario
	// file's directory unless absolute.
	ObjectFile string `yaml:"object_file,omitempty"`

	// Config tunes decoding.
	Config ScenarioConfig `yaml:"config,omitempty"`

	// Shots are the measurement maps decoded one after another. Keys are
	// qubit indices or register labels such as q_3.
	Shots []map[any]bool `yaml:"shots"`

	// Expect holds one entry per shot. When the object file itself is
	// expected to be rejected, Expect holds a single error entry and Shots
	// is empty.
	Expect []Expectation `yaml:"expect"`
}

// ScenarioConfig mirrors the decoding switches of the session config.
type ScenarioConfig struct {
	StrictWidth bool `yaml:"strict_width"`
}

// Expectation is the expected outcome of one step: a result set or an
// error, never both.
type Expectation struct {
	// Result must equal the decoded result set exactly.
	Result map[string]any `yaml:"result,omitempty"`

	Error *ErrorExpectation `yaml:"error,omitempty"`
}

// ErrorExpectation matches an error by code and, when set, by the qubit
// and binding it names.
type ErrorExpectation struct {
	Code    string `yaml:"code"`
	Qubit   *int   `yaml:"qubit,omitempty"`
	Binding string `yaml:"binding,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. A relative
// object_file resolves against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving a relative object_file against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, basePath)
}

// ParseScenario decodes scenario YAML. Unknown fields are rejected so that
// typos such as "expects:" fail loudly.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.ObjectFile != "" && !filepath.IsAbs(scenario.ObjectFile) && basePath != "" {
		scenario.ObjectFile = filepath.Join(basePath, scenario.ObjectFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario collects every structural problem rather than stopping
// at the first.
func validateScenario(s *Scenario) error {
	var errs *multierror.Error

	if s.Name == "" {
		errs = multierror.Append(errs, fmt.Errorf("name is required"))
	}
	if s.Description == "" {
		errs = multierror.Append(errs, fmt.Errorf("description is required"))
	}

	switch {
	case s.Object == "" && s.ObjectFile == "":
		errs = multierror.Append(errs, fmt.Errorf("one of object or object_file is required"))
	case s.Object != "" && s.ObjectFile != "":
		errs = multierror.Append(errs, fmt.Errorf("object and object_file are mutually exclusive"))
	case s.ObjectFile != "":
		if _, err := os.Stat(s.ObjectFile); os.IsNotExist(err) {
			errs = multierror.Append(errs, fmt.Errorf("object file not found: %s", s.ObjectFile))
		}
	}

	if len(s.Expect) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("expect list is required and must be non-empty"))
	}
	for i, e := range s.Expect {
		if err := validateExpectation(i, e); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	return errs.ErrorOrNil()
}

func validateExpectation(index int, e Expectation) error {
	switch {
	case e.Result == nil && e.Error == nil:
		return fmt.Errorf("expect[%d]: one of result or error is required", index)
	case e.Result != nil && e.Error != nil:
		return fmt.Errorf("expect[%d]: result and error are mutually exclusive", index)
	case e.Error != nil && e.Error.Code == "":
		return fmt.Errorf("expect[%d].error: code is required", index)
	}
	return nil
}

// objectText returns the scenario's object file text.
func (s *Scenario) objectText() (string, error) {
	if s.ObjectFile == "" {
		return s.Object, nil
	}
	data, err := os.ReadFile(s.ObjectFile)
	if err != nil {
		return "", fmt.Errorf("read object file: %w", err)
	}
	return string(data), nil
}
