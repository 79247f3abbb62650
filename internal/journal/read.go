package journal

import (
	"context"
	"database/sql"
	"fmt"
)

// Dispatch is one recorded dispatch outcome.
type Dispatch struct {
	Seq        int64  `json:"seq"`
	ChainToken string `json:"chain_token"`
	Outcome    string `json:"outcome"` // parent | child | failed
	ChildPID   int    `json:"child_pid,omitempty"`
	Attempts   int    `json:"attempts"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// FailedAttempt is one recorded failed duplication attempt.
type FailedAttempt struct {
	Seq        int64  `json:"seq"`
	ChainToken string `json:"chain_token"`
	Attempt    int    `json:"attempt"`
	Error      string `json:"error"`
	CreatedAt  string `json:"created_at"`
}

// ListDispatches returns all recorded dispatches in seq order.
func (j *Journal) ListDispatches(ctx context.Context) ([]Dispatch, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT seq, chain_token, outcome, child_pid, attempts, error, created_at
		 FROM dispatches ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispatches: %w", err)
	}
	defer rows.Close()

	var out []Dispatch
	for rows.Next() {
		var d Dispatch
		var childPID sql.NullInt64
		var errText sql.NullString
		if err := rows.Scan(&d.Seq, &d.ChainToken, &d.Outcome, &childPID, &d.Attempts, &errText, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch: %w", err)
		}
		if childPID.Valid {
			d.ChildPID = int(childPID.Int64)
		}
		if errText.Valid {
			d.Error = errText.String
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListFailedAttempts returns the failed attempts for one chain in seq
// order. An empty chainToken returns every failed attempt.
func (j *Journal) ListFailedAttempts(ctx context.Context, chainToken string) ([]FailedAttempt, error) {
	query := `SELECT seq, chain_token, attempt, error, created_at
		 FROM failed_attempts WHERE (? = '' OR chain_token = ?) ORDER BY seq ASC`
	rows, err := j.db.QueryContext(ctx, query, chainToken, chainToken)
	if err != nil {
		return nil, fmt.Errorf("failed to query failed attempts: %w", err)
	}
	defer rows.Close()

	var out []FailedAttempt
	for rows.Next() {
		var a FailedAttempt
		if err := rows.Scan(&a.Seq, &a.ChainToken, &a.Attempt, &a.Error, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan failed attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
