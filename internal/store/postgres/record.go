package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/crvs/internal/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type RecordRepo struct {
	pool *pgxpool.Pool
}

func NewRecordRepo(pool *pgxpool.Pool) *RecordRepo {
	return &RecordRepo{pool: pool}
}

func (r *RecordRepo) Create(ctx context.Context, rec *domain.Record, initial *domain.Task) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("recordRepo.Create: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var currentTaskID *uuid.UUID
	if initial != nil {
		currentTaskID = &initial.ID
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO records (id, transaction_id, type, current_task_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.TransactionID, rec.Type, currentTaskID, rec.CreatedAt, rec.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("recordRepo.Create: transaction %q: %w", rec.TransactionID, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("recordRepo.Create: %w", err)
	}

	for i, a := range rec.Actions {
		if err := insertAction(ctx, tx, rec.ID, i+1, a); err != nil {
			return fmt.Errorf("recordRepo.Create: %w", err)
		}
	}

	if initial != nil {
		initial.RecordID = rec.ID
		initial.Version = 1
		if err := insertTask(ctx, tx, initial); err != nil {
			return fmt.Errorf("recordRepo.Create: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("recordRepo.Create: commit: %w", err)
	}
	return nil
}

func (r *RecordRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Record, error) {
	rec, err := r.get(ctx, `WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("recordRepo.GetByID: %w", err)
	}
	return rec, nil
}

func (r *RecordRepo) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Record, error) {
	rec, err := r.get(ctx, `WHERE transaction_id = $1`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("recordRepo.GetByTransactionID: %w", err)
	}
	return rec, nil
}

func (r *RecordRepo) get(ctx context.Context, where string, arg any) (*domain.Record, error) {
	var rec domain.Record

	err := r.pool.QueryRow(ctx,
		`SELECT id, transaction_id, type, current_task_id, created_at, updated_at
		 FROM records `+where,
		arg,
	).Scan(&rec.ID, &rec.TransactionID, &rec.Type, &rec.CurrentTaskID, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT payload FROM record_actions WHERE record_id = $1 ORDER BY seq`,
		rec.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("actions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("actions: scan: %w", err)
		}
		a, err := domain.DecodeAction(payload)
		if err != nil {
			return nil, fmt.Errorf("actions: %w", err)
		}
		rec.Actions = append(rec.Actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("actions: rows: %w", err)
	}

	return &rec, nil
}

func (r *RecordRepo) UpdateType(ctx context.Context, id uuid.UUID, t domain.EventType, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE records SET type = $1, updated_at = $2 WHERE id = $3`,
		t, updatedAt, id,
	)
	if err != nil {
		return fmt.Errorf("recordRepo.UpdateType: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("recordRepo.UpdateType: %w", domain.ErrNotFound)
	}

	return nil
}

// Append writes the commit in one transaction. The record row is locked
// first so the current task comparison and the writes are atomic.
func (r *RecordRepo) Append(ctx context.Context, id uuid.UUID, c *domain.Commit) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("recordRepo.Append: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current *uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT current_task_id FROM records WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("recordRepo.Append: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("recordRepo.Append: lock: %w", err)
	}
	if !sameTask(current, c.ExpectedTaskID) {
		return fmt.Errorf("recordRepo.Append: record %s: %w", id, domain.ErrStaleRecord)
	}

	var seq, version int
	err = tx.QueryRow(ctx,
		`SELECT (SELECT COALESCE(MAX(seq), 0) FROM record_actions WHERE record_id = $1),
		        (SELECT COALESCE(MAX(version), 0) FROM tasks WHERE record_id = $1)`,
		id,
	).Scan(&seq, &version)
	if err != nil {
		return fmt.Errorf("recordRepo.Append: counters: %w", err)
	}

	if err := insertAction(ctx, tx, id, seq+1, c.Action); err != nil {
		return fmt.Errorf("recordRepo.Append: %w", err)
	}
	if err := insertSupporting(ctx, tx, c); err != nil {
		return fmt.Errorf("recordRepo.Append: %w", err)
	}

	for _, t := range c.Tasks {
		version++
		t.RecordID = id
		t.Version = version
		if err := insertTask(ctx, tx, t); err != nil {
			return fmt.Errorf("recordRepo.Append: %w", err)
		}
		current = &t.ID
	}

	_, err = tx.Exec(ctx,
		`UPDATE records SET current_task_id = $1, updated_at = $2 WHERE id = $3`,
		current, c.At, id,
	)
	if err != nil {
		return fmt.Errorf("recordRepo.Append: move current: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("recordRepo.Append: commit: %w", err)
	}
	return nil
}

func insertAction(ctx context.Context, q querier, recordID uuid.UUID, seq int, a domain.Action) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}

	b := a.Base()
	_, err = q.Exec(ctx,
		`INSERT INTO record_actions (record_id, seq, id, type, transaction_id, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		recordID, seq, b.ID, b.Type, b.TransactionID, payload, b.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("action %s %q: %w", b.Type, b.TransactionID, domain.ErrDuplicateAction)
	}
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}

func insertSupporting(ctx context.Context, q querier, c *domain.Commit) error {
	if c.Encounter != nil {
		e := c.Encounter
		_, err := q.Exec(ctx,
			`INSERT INTO encounters (id, record_id, payment_id, created_at) VALUES ($1, $2, $3, $4)`,
			e.ID, e.RecordID, e.PaymentID, e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert encounter: %w", err)
		}
	}

	if c.Payment != nil {
		p := c.Payment
		_, err := q.Exec(ctx,
			`INSERT INTO payment_reconciliations (id, encounter_id, amount, outcome, paid_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			p.ID, p.EncounterID, p.Amount, p.Outcome, p.PaidAt,
		)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
	}

	for _, d := range c.Documents {
		_, err := q.Exec(ctx,
			`INSERT INTO document_references (id, encounter_id, type, uri, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			d.ID, d.EncounterID, d.Type, d.URI, d.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
	}
	return nil
}

func sameTask(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
