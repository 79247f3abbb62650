package harness

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tine/internal/testutil"
)

// Scenario defines a conformance test scenario.
//
// A scenario scripts the primitive's attempt results, declares which
// clauses are present, and runs one dispatch; the resulting trace is
// asserted against a golden file.
type Scenario struct {
	// Name uniquely identifies this scenario (and its golden file).
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Primitive scripts the duplication attempts, in order:
	//   "child"        success, child side
	//   "parent:4100"  success, parent side, child PID 4100
	//   "fail"         failure (EAGAIN)
	//   "fail:ENOMEM"  failure with a named errno
	Primitive []string `yaml:"primitive"`

	// Clauses selects which clauses the chain declares.
	Clauses ClauseSpec `yaml:"clauses"`

	// ChainToken is an optional fixed chain token. If empty it defaults
	// to "chain-<name>" for deterministic golden comparison.
	ChainToken string `yaml:"chain_token,omitempty"`
}

// ClauseSpec selects declared clauses. Declared parent/child/error
// handlers are recording handlers; retry is a bounded attempt budget.
type ClauseSpec struct {
	Parent bool         `yaml:"parent"`
	Child  bool         `yaml:"child"`
	Error  bool         `yaml:"error"`
	Retry  *RetryClause `yaml:"retry,omitempty"`
}

// RetryClause bounds the scenario's total attempt count.
type RetryClause struct {
	MaxAttempts int `yaml:"max_attempts"`
}

// Scripted failure errors, keyed by errno name. Plain errors with the
// platform's message text, not syscall.Errno values, so golden traces
// are identical on every platform.
var failureErrors = map[string]error{
	"EAGAIN": errors.New("resource temporarily unavailable"),
	"ENOMEM": errors.New("cannot allocate memory"),
}

// LoadScenario reads and validates a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read scenario: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("cannot decode scenario: %w", err)
	}

	if s.Name == "" {
		return nil, fmt.Errorf("scenario has no name")
	}
	if len(s.Primitive) == 0 {
		return nil, fmt.Errorf("scenario %q scripts no primitive steps", s.Name)
	}
	if _, err := s.steps(); err != nil {
		return nil, err
	}
	return &s, nil
}

// chainToken returns the fixed chain token for this scenario.
func (s *Scenario) chainToken() string {
	if s.ChainToken != "" {
		return s.ChainToken
	}
	return "chain-" + s.Name
}

// steps parses the scripted primitive lines into fork steps.
func (s *Scenario) steps() ([]testutil.ForkStep, error) {
	steps := make([]testutil.ForkStep, 0, len(s.Primitive))
	for i, line := range s.Primitive {
		step, err := parseStep(line)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: primitive[%d]: %w", s.Name, i, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func parseStep(line string) (testutil.ForkStep, error) {
	kind, arg, _ := strings.Cut(line, ":")
	switch kind {
	case "child":
		return testutil.ChildSide(), nil
	case "parent":
		pid, err := strconv.Atoi(arg)
		if err != nil || pid <= 0 {
			return testutil.ForkStep{}, fmt.Errorf("invalid parent step %q: want parent:<pid>", line)
		}
		return testutil.ParentOf(pid), nil
	case "fail":
		if arg == "" {
			arg = "EAGAIN"
		}
		failErr, ok := failureErrors[arg]
		if !ok {
			return testutil.ForkStep{}, fmt.Errorf("unknown errno %q in step %q", arg, line)
		}
		return testutil.Fail(failErr), nil
	default:
		return testutil.ForkStep{}, fmt.Errorf("unknown primitive step %q", line)
	}
}
