// Package postgres persists the execution journal: one row per plan
// step, upserted as the step's status advances. Analytics results are
// never stored here; they are recomputed from chain state on demand.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swapscope/internal/exec"
)

// Store provides Postgres persistence for plan execution state. It
// satisfies exec.Journal.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// RecordStep upserts one step's state. The same step is written again
// each time its status advances (submitted, then confirmed or failed).
func (s *Store) RecordStep(ctx context.Context, planID string, step exec.StepResult) error {
	if planID == "" {
		return fmt.Errorf("plan id required")
	}
	errText := ""
	if step.Err != nil {
		errText = step.Err.Error()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO plan_steps (
			plan_id, step_index, method, tx_hash, status, error, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (plan_id, step_index)
		DO UPDATE SET
			tx_hash = EXCLUDED.tx_hash,
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			updated_at = now()
	`,
		planID,
		step.Index,
		step.Method,
		step.TxHash.Hex(),
		string(step.Status),
		errText,
	)
	return err
}

// RecordPlan writes the plan header and all steps in one batch, used to
// seed the journal before execution starts.
func (s *Store) RecordPlan(ctx context.Context, planID string, methods []string) error {
	if planID == "" {
		return fmt.Errorf("plan id required")
	}
	if len(methods) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, method := range methods {
		batch.Queue(`
			INSERT INTO plan_steps (
				plan_id, step_index, method, tx_hash, status, error, created_at, updated_at
			) VALUES ($1, $2, $3, '', 'pending', '', now(), now())
			ON CONFLICT (plan_id, step_index) DO NOTHING
		`, planID, i, method)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range methods {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PlanSteps loads the journaled state of one plan, ordered by step.
func (s *Store) PlanSteps(ctx context.Context, planID string) ([]exec.StepResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT step_index, method, tx_hash, status, error
		FROM plan_steps
		WHERE plan_id = $1
		ORDER BY step_index
	`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []exec.StepResult
	for rows.Next() {
		var step exec.StepResult
		var txHash, status, errText string
		if err := rows.Scan(&step.Index, &step.Method, &txHash, &status, &errText); err != nil {
			return nil, err
		}
		step.TxHash = common.HexToHash(txHash)
		step.Status = exec.StepStatus(status)
		if errText != "" {
			step.Err = errors.New(errText)
		}
		steps = append(steps, step)
	}
	return steps, rows.Err()
}
