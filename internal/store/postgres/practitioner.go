package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/crvs/internal/domain"
)

type PractitionerRepo struct {
	pool *pgxpool.Pool
}

func NewPractitionerRepo(pool *pgxpool.Pool) *PractitionerRepo {
	return &PractitionerRepo{pool: pool}
}

func (r *PractitionerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Practitioner, error) {
	var p domain.Practitioner
	var links []byte

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, primary_office_id, links FROM practitioners WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.PrimaryOfficeID, &links)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("practitionerRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("practitionerRepo.GetByID: %w", err)
	}

	if err := json.Unmarshal(links, &p.Links); err != nil {
		return nil, fmt.Errorf("practitionerRepo.GetByID: links: %w", err)
	}

	return &p, nil
}

func (r *PractitionerRepo) Upsert(ctx context.Context, p *domain.Practitioner) error {
	links := p.Links
	if links == nil {
		links = []domain.MessengerLink{}
	}
	raw, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("practitionerRepo.Upsert: marshal links: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO practitioners (id, name, primary_office_id, links)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name,
		     primary_office_id = EXCLUDED.primary_office_id,
		     links = EXCLUDED.links`,
		p.ID, p.Name, p.PrimaryOfficeID, raw,
	)
	if err != nil {
		return fmt.Errorf("practitionerRepo.Upsert: %w", err)
	}

	return nil
}
