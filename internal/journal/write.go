package journal

import (
	"context"
	"fmt"

	"github.com/roach88/reverb/internal/engine"
)

// Record appends one pass and all of its per-record outcomes in a single
// transaction. Either the whole pass is journaled or none of it.
//
// Re-recording a pass seq that already exists is an error: passes are
// append-only and a scheduler never reuses a pass number.
func (j *Journal) Record(ctx context.Context, result engine.PassResult) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record pass %d: begin tx: %w", result.Pass, err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO passes (seq, phase, executed, failures, fresh)
		VALUES (?, ?, ?, ?, ?)
	`,
		result.Pass,
		result.Phase,
		len(result.Executed),
		len(result.Failures),
		result.Fresh,
	)
	if err != nil {
		return fmt.Errorf("record pass %d: %w", result.Pass, err)
	}

	for _, exec := range result.Executed {
		writesJSON, err := marshalWrites(exec.Writes)
		if err != nil {
			return fmt.Errorf("record pass %d: reaction %s: %w", result.Pass, exec.Reaction, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO executions (pass_seq, reaction_id, kind, outcome, failure_code, writes)
			VALUES (?, ?, ?, 'executed', '', ?)
		`,
			result.Pass,
			string(exec.Reaction),
			exec.Kind.String(),
			writesJSON,
		)
		if err != nil {
			return fmt.Errorf("record pass %d: reaction %s: %w", result.Pass, exec.Reaction, err)
		}
	}

	for _, failure := range result.Failures {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO executions (pass_seq, reaction_id, kind, outcome, failure_code, writes)
			VALUES (?, ?, '', 'failed', ?, '[]')
		`,
			result.Pass,
			string(failure.Reaction),
			string(failure.Code),
		)
		if err != nil {
			return fmt.Errorf("record pass %d: failure %s: %w", result.Pass, failure.Reaction, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record pass %d: commit: %w", result.Pass, err)
	}
	return nil
}

// marshalWrites renders component writes as a canonical JSON array so
// journal rows compare byte-for-byte across runs.
func marshalWrites(writes []engine.ComponentWrite) (string, error) {
	arr := make([]any, len(writes))
	for i, w := range writes {
		arr[i] = map[string]any{
			"entity": int64(w.Entity),
			"type":   string(w.Type),
			"value":  w.Value,
		}
	}
	b, err := marshalCanonicalArray(arr)
	if err != nil {
		return "", fmt.Errorf("marshal writes: %w", err)
	}
	return string(b), nil
}
