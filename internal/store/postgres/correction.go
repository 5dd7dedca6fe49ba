package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/crvs/internal/domain"
)

type CorrectionRepo struct {
	pool *pgxpool.Pool
}

func NewCorrectionRepo(pool *pgxpool.Pool) *CorrectionRepo {
	return &CorrectionRepo{pool: pool}
}

func (r *CorrectionRepo) GetEncounter(ctx context.Context, id uuid.UUID) (*domain.Encounter, error) {
	var e domain.Encounter

	err := r.pool.QueryRow(ctx,
		`SELECT id, record_id, payment_id, created_at FROM encounters WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.RecordID, &e.PaymentID, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("correctionRepo.GetEncounter: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("correctionRepo.GetEncounter: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id FROM document_references WHERE encounter_id = $1 ORDER BY created_at, id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("correctionRepo.GetEncounter: documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var docID uuid.UUID
		if err := rows.Scan(&docID); err != nil {
			return nil, fmt.Errorf("correctionRepo.GetEncounter: scan: %w", err)
		}
		e.DocumentIDs = append(e.DocumentIDs, docID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("correctionRepo.GetEncounter: rows: %w", err)
	}

	return &e, nil
}

func (r *CorrectionRepo) GetPayment(ctx context.Context, id uuid.UUID) (*domain.PaymentReconciliation, error) {
	var p domain.PaymentReconciliation

	err := r.pool.QueryRow(ctx,
		`SELECT id, encounter_id, amount, outcome, paid_at
		 FROM payment_reconciliations WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.EncounterID, &p.Amount, &p.Outcome, &p.PaidAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("correctionRepo.GetPayment: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("correctionRepo.GetPayment: %w", err)
	}

	return &p, nil
}

func (r *CorrectionRepo) ListDocuments(ctx context.Context, encounterID uuid.UUID) ([]*domain.DocumentReference, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, encounter_id, type, uri, created_at
		 FROM document_references WHERE encounter_id = $1
		 ORDER BY created_at, id`,
		encounterID,
	)
	if err != nil {
		return nil, fmt.Errorf("correctionRepo.ListDocuments: %w", err)
	}
	defer rows.Close()

	var docs []*domain.DocumentReference
	for rows.Next() {
		var d domain.DocumentReference
		if err := rows.Scan(&d.ID, &d.EncounterID, &d.Type, &d.URI, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("correctionRepo.ListDocuments: scan: %w", err)
		}
		docs = append(docs, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("correctionRepo.ListDocuments: rows: %w", err)
	}

	return docs, nil
}
