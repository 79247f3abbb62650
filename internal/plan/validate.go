package plan

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// validateSchema checks a decoded YAML document against the embedded
// CUE schema. Uses the CUE SDK's Go API directly (not a CLI
// subprocess). All violations are collected, not just the first.
func validateSchema(doc map[string]any) []error {
	if len(doc) == 0 {
		// An empty plan is valid: every field is optional.
		return nil
	}

	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		// The schema is embedded at build time; failing to compile it
		// is a bug, not a user error, but still surfaces cleanly.
		return []error{&Error{Code: ErrCodeSchema, Message: fmt.Sprintf("internal: schema does not compile: %v", err)}}
	}

	def := schema.LookupPath(cue.ParsePath("#Plan"))
	if !def.Exists() {
		return []error{&Error{Code: ErrCodeSchema, Message: "internal: #Plan definition missing from schema"}}
	}

	unified := def.Unify(ctx.Encode(doc))
	err := unified.Validate(cue.Concrete(false))
	if err == nil {
		return nil
	}

	var errs []error
	for _, e := range cueerrors.Errors(err) {
		errs = append(errs, &Error{
			Code:    ErrCodeSchema,
			Field:   strings.Join(e.Path(), "."),
			Message: e.Error(),
		})
	}
	return errs
}
