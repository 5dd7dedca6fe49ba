package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/crvs/internal/domain"
)

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, record_id, version, status, state, extensions, encounter_id, reason, last_modified
		 FROM tasks WHERE id = $1`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.GetByID: %w", err)
	}
	defer rows.Close()

	tasks, err := scanTasks(rows, "taskRepo.GetByID")
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("taskRepo.GetByID: %w", domain.ErrNotFound)
	}

	return tasks[0], nil
}

func (r *TaskRepo) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, record_id, version, status, state, extensions, encounter_id, reason, last_modified
		 FROM tasks WHERE record_id = $1
		 ORDER BY version`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.ListByRecord: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows, "taskRepo.ListByRecord")
}

func insertTask(ctx context.Context, q querier, t *domain.Task) error {
	ext := t.Extensions
	if ext == nil {
		ext = domain.Extensions{}
	}
	extensions, err := json.Marshal(ext)
	if err != nil {
		return fmt.Errorf("marshal extensions: %w", err)
	}

	_, err = q.Exec(ctx,
		`INSERT INTO tasks (id, record_id, version, status, state, extensions, encounter_id, reason, last_modified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.RecordID, t.Version, t.Status, t.State, extensions, t.EncounterID, t.Reason, t.LastModified,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func scanTasks(rows pgx.Rows, caller string) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		var t domain.Task
		var extensions []byte
		if err := rows.Scan(
			&t.ID, &t.RecordID, &t.Version, &t.Status, &t.State,
			&extensions, &t.EncounterID, &t.Reason, &t.LastModified,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		if err := json.Unmarshal(extensions, &t.Extensions); err != nil {
			return nil, fmt.Errorf("%s: extensions: %w", caller, err)
		}
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return tasks, nil
}
