package tine

import (
	"errors"
	"fmt"
)

// UsageError reports misuse of the declaration API.
//
// Usage errors are programmer errors, not runtime conditions: they are
// raised by panic at the offending declaration call, before any
// duplication attempt occurs, so misuse surfaces as close to its source
// as possible. They are never routed through a chain's error handler.
type UsageError struct {
	// Code identifies the misuse category.
	Code UsageErrorCode

	// Clause names the clause involved ("parent", "child", "retry",
	// "error", or "dispatch").
	Clause string

	// ChainToken identifies the affected chain.
	ChainToken string
}

// UsageErrorCode categorizes declaration misuse.
type UsageErrorCode string

const (
	// ErrCodeDuplicateClause indicates the same clause was declared twice
	// in one chain.
	ErrCodeDuplicateClause UsageErrorCode = "DUPLICATE_CLAUSE"

	// ErrCodeMalformedChain indicates a declaration or dispatch on a
	// chain that has already been consumed. The compile-time type of
	// *ClauseSet rules out foreign chain values entirely; stale reuse is
	// the one malformed-chain case left to catch at runtime.
	ErrCodeMalformedChain UsageErrorCode = "MALFORMED_CHAIN"
)

// Error implements the error interface.
func (e *UsageError) Error() string {
	switch e.Code {
	case ErrCodeDuplicateClause:
		return fmt.Sprintf("%s: %s clause declared twice (chain=%s)", e.Code, e.Clause, e.ChainToken)
	case ErrCodeMalformedChain:
		return fmt.Sprintf("%s: %s on a consumed chain (chain=%s)", e.Code, e.Clause, e.ChainToken)
	default:
		return fmt.Sprintf("%s: %s (chain=%s)", e.Code, e.Clause, e.ChainToken)
	}
}

// IsDuplicateClause returns true if the error is a duplicate-clause
// usage error. Uses errors.As to handle wrapped errors.
func IsDuplicateClause(err error) bool {
	var ue *UsageError
	if errors.As(err, &ue) {
		return ue.Code == ErrCodeDuplicateClause
	}
	return false
}

// IsMalformedChain returns true if the error is a malformed-chain usage
// error. Uses errors.As to handle wrapped errors.
func IsMalformedChain(err error) bool {
	var ue *UsageError
	if errors.As(err, &ue) {
		return ue.Code == ErrCodeMalformedChain
	}
	return false
}
