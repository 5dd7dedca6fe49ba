package domain

import (
	"context"

	"github.com/google/uuid"
)

type MessengerLink struct {
	Platform   string `json:"platform"` // "slack", "webhook"
	ExternalID string `json:"externalId"`
}

// Practitioner is a registration office staff member acting on records.
type Practitioner struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	PrimaryOfficeID string          `json:"primaryOfficeId"`
	Links           []MessengerLink `json:"links,omitempty"`
}

type PractitionerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Practitioner, error)
	Upsert(ctx context.Context, p *Practitioner) error
}
