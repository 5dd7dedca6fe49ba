package practitioner

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gosuda/crvs/internal/domain"
)

// Stamper marks task versions with the acting practitioner.
type Stamper struct {
	directory domain.PractitionerRepository
}

func NewStamper(directory domain.PractitionerRepository) *Stamper {
	return &Stamper{directory: directory}
}

// Stamp sets the last-user extension, then looks up the practitioner's office
// and sets the last-location extension. The order is fixed: a failed lookup
// leaves the user stamp in place and returns the error.
func (s *Stamper) Stamp(ctx context.Context, t *domain.Task, actorID uuid.UUID) error {
	t.Extensions.SetLastUser(actorID)

	p, err := s.directory.GetByID(ctx, actorID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("practitioner.Stamper.Stamp: %s: %w", actorID, domain.ErrUnknownPractitioner)
	}
	if err != nil {
		return fmt.Errorf("practitioner.Stamper.Stamp: lookup %s: %w", actorID, err)
	}
	if p.PrimaryOfficeID == "" {
		return fmt.Errorf("practitioner.Stamper.Stamp: practitioner %s has no office: %w", actorID, domain.ErrValidation)
	}

	t.Extensions.SetLastLocation(p.PrimaryOfficeID)
	return nil
}
