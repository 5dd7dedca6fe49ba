package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Encounter groups the supporting resources of one correction.
type Encounter struct {
	ID          uuid.UUID   `json:"id"`
	RecordID    uuid.UUID   `json:"recordId"`
	PaymentID   *uuid.UUID  `json:"paymentId,omitempty"`
	DocumentIDs []uuid.UUID `json:"documentIds,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// PaymentReconciliation records a correction fee. Amount is in minor units.
type PaymentReconciliation struct {
	ID          uuid.UUID `json:"id"`
	EncounterID uuid.UUID `json:"encounterId"`
	Amount      int64     `json:"amount"`
	Outcome     string    `json:"outcome"`
	PaidAt      time.Time `json:"paidAt"`
}

// DocumentReference is one proof-of-legal-correction attachment.
type DocumentReference struct {
	ID          uuid.UUID `json:"id"`
	EncounterID uuid.UUID `json:"encounterId"`
	Type        string    `json:"type"`
	URI         string    `json:"uri"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CorrectionRepository interface {
	GetEncounter(ctx context.Context, id uuid.UUID) (*Encounter, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*PaymentReconciliation, error)
	ListDocuments(ctx context.Context, encounterID uuid.UUID) ([]*DocumentReference, error)
}
