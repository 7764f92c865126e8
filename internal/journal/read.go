package journal

import (
	"context"
	"fmt"
)

// PassRow is one journaled pass summary.
type PassRow struct {
	Seq      int64
	Phase    string
	Executed int
	Failures int
	Fresh    int
}

// ExecutionRow is one journaled per-record outcome.
type ExecutionRow struct {
	PassSeq     int64
	ReactionID  string
	Kind        string
	Outcome     string
	FailureCode string
	Writes      string // canonical JSON array
}

// ListPasses returns every journaled pass ordered by pass seq.
// Returns an empty slice (not nil) if the journal holds no passes.
func (j *Journal) ListPasses(ctx context.Context) ([]PassRow, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, phase, executed, failures, fresh
		FROM passes
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	passes := []PassRow{}
	for rows.Next() {
		var p PassRow
		if err := rows.Scan(&p.Seq, &p.Phase, &p.Executed, &p.Failures, &p.Fresh); err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passes: %w", err)
	}
	return passes, nil
}

// ListExecutions returns all outcomes for one pass, in insertion order
// (executions first, failures after, each in sweep order).
func (j *Journal) ListExecutions(ctx context.Context, passSeq int64) ([]ExecutionRow, error) {
	return j.listExecutions(ctx, `
		SELECT pass_seq, reaction_id, kind, outcome, failure_code, writes
		FROM executions
		WHERE pass_seq = ?
		ORDER BY id ASC
	`, passSeq)
}

// ListReaction returns every journaled outcome for one reaction ID across
// all passes, ordered by pass then insertion order.
func (j *Journal) ListReaction(ctx context.Context, reactionID string) ([]ExecutionRow, error) {
	return j.listExecutions(ctx, `
		SELECT pass_seq, reaction_id, kind, outcome, failure_code, writes
		FROM executions
		WHERE reaction_id = ?
		ORDER BY pass_seq ASC, id ASC
	`, reactionID)
}

func (j *Journal) listExecutions(ctx context.Context, query string, arg any) ([]ExecutionRow, error) {
	rows, err := j.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	executions := []ExecutionRow{}
	for rows.Next() {
		var e ExecutionRow
		if err := rows.Scan(&e.PassSeq, &e.ReactionID, &e.Kind, &e.Outcome, &e.FailureCode, &e.Writes); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		executions = append(executions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}
	return executions, nil
}
