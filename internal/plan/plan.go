// Package plan loads and validates spawn plans: YAML documents
// describing how the CLI should fork. Plans are validated against an
// embedded CUE schema before decoding, so structural errors carry field
// paths instead of surfacing as zero values at dispatch time.
package plan

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tine/retry"
)

// Plan error codes (E200-E299).
const (
	ErrCodeNotFound = "E200" // plan file missing or unreadable
	ErrCodeParse    = "E201" // YAML syntax error
	ErrCodeSchema   = "E202" // CUE schema violation
	ErrCodeDuration = "E203" // unparseable duration string
)

// Error represents a plan loading or validation error.
type Error struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Plan describes one spawn: retry budget, journaling, wait behavior.
type Plan struct {
	Retry   RetrySpec   `yaml:"retry"`
	Journal JournalSpec `yaml:"journal"`
	Wait    bool        `yaml:"wait"`
}

// RetrySpec configures the retry clause of the spawned chain.
type RetrySpec struct {
	// MaxAttempts bounds the total attempt count. Zero or one means a
	// single attempt (no retry clause worth declaring).
	MaxAttempts int `yaml:"max_attempts"`

	// Backoff is the delay before the first retry ("100ms", "2s").
	Backoff string `yaml:"backoff"`

	// Multiplier scales the delay after each failure.
	Multiplier float64 `yaml:"multiplier"`

	// MaxBackoff caps the computed delay.
	MaxBackoff string `yaml:"max_backoff"`

	// Jitter adds up to ±Jitter*delay of random offset.
	Jitter float64 `yaml:"jitter"`
}

// JournalSpec configures dispatch journaling.
type JournalSpec struct {
	Path string `yaml:"path"`
}

// Default returns the plan used when no plan file is given: a single
// attempt, no journal, no wait.
func Default() *Plan {
	return &Plan{Retry: RetrySpec{MaxAttempts: 1}}
}

// Load reads, schema-validates, and decodes a plan file.
// All validation errors are collected before returning.
func Load(path string) (*Plan, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{&Error{Code: ErrCodeNotFound, Message: fmt.Sprintf("cannot read plan: %v", err)}}
	}
	return Parse(data)
}

// Parse schema-validates and decodes plan bytes.
func Parse(data []byte) (*Plan, []error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, []error{&Error{Code: ErrCodeParse, Message: fmt.Sprintf("invalid YAML: %v", err)}}
	}

	if errs := validateSchema(doc); len(errs) > 0 {
		return nil, errs
	}

	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, []error{&Error{Code: ErrCodeParse, Message: fmt.Sprintf("cannot decode plan: %v", err)}}
	}
	if p.Retry.MaxAttempts == 0 {
		p.Retry.MaxAttempts = 1
	}

	var errs []error
	if _, err := p.backoffDurations(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return p, nil
}

// Policy lowers the retry section to a retry.Policy for the chain's
// retry clause.
func (p *Plan) Policy() retry.Policy {
	if p.Retry.MaxAttempts <= 1 {
		return retry.Never()
	}
	d, err := p.backoffDurations()
	if err != nil {
		// Parse already rejected bad durations; an invalid hand-built
		// Plan falls back to immediate retries.
		d = backoffDurations{}
	}
	return retry.Backoff(retry.BackoffConfig{
		MaxAttempts: p.Retry.MaxAttempts,
		Initial:     d.initial,
		Multiplier:  p.Retry.Multiplier,
		Max:         d.max,
		Jitter:      p.Retry.Jitter,
	})
}

type backoffDurations struct {
	initial time.Duration
	max     time.Duration
}

func (p *Plan) backoffDurations() (backoffDurations, error) {
	var d backoffDurations
	if p.Retry.Backoff != "" {
		v, err := time.ParseDuration(p.Retry.Backoff)
		if err != nil {
			return d, &Error{Code: ErrCodeDuration, Field: "retry.backoff", Message: fmt.Sprintf("invalid duration %q", p.Retry.Backoff)}
		}
		d.initial = v
	}
	if p.Retry.MaxBackoff != "" {
		v, err := time.ParseDuration(p.Retry.MaxBackoff)
		if err != nil {
			return d, &Error{Code: ErrCodeDuration, Field: "retry.max_backoff", Message: fmt.Sprintf("invalid duration %q", p.Retry.MaxBackoff)}
		}
		d.max = v
	}
	return d, nil
}
