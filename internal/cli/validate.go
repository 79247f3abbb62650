package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tine/internal/plan"
)

// ValidationResult holds plan validation results.
type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Errors []plan.Error `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <plan.yaml>",
		Short: "Validate a spawn plan without dispatching",
		Long: `Validate a spawn plan against the embedded schema without forking.

Performs YAML parsing, schema validation, and duration checks. All
errors are collected and reported together.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, planPath string, cmd *cobra.Command) error {
	formatter := NewOutputFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	_, errs := plan.Load(planPath)
	if len(errs) > 0 {
		return outputPlanErrors(formatter, errs)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}
	fmt.Fprintln(formatter.Writer, "✓ Plan valid")
	return nil
}

// planIssues lowers the error slice from plan.Load to its typed form.
// Loader errors are always *plan.Error; anything else is mapped to the
// parse code so the output shape stays uniform.
func planIssues(errs []error) []plan.Error {
	issues := make([]plan.Error, 0, len(errs))
	for _, err := range errs {
		var pe *plan.Error
		if errors.As(err, &pe) {
			issues = append(issues, *pe)
			continue
		}
		issues = append(issues, plan.Error{Code: plan.ErrCodeParse, Message: err.Error()})
	}
	return issues
}

// outputPlanErrors reports plan validation errors in the configured
// format. An unreadable plan file is a command error (exit 2); a plan
// that fails validation is a validation failure (exit 1).
func outputPlanErrors(formatter *OutputFormatter, errs []error) error {
	issues := planIssues(errs)

	exitCode := ExitFailure
	if issues[0].Code == plan.ErrCodeNotFound {
		exitCode = ExitCommandError
	}

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: issues},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(exitCode, fmt.Sprintf("plan invalid: %d error(s)", len(issues)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Plan invalid")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range issues {
		if issue.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", issue.Code, issue.Field, issue.Message)
			continue
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", issue.Code, issue.Message)
	}
	return NewExitError(exitCode, fmt.Sprintf("plan invalid: %d error(s)", len(issues)))
}
