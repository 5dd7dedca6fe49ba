package domain

import "github.com/google/uuid"

type CorrectionOutcome string

const (
	CorrectionApproved CorrectionOutcome = "approved"
	CorrectionRejected CorrectionOutcome = "rejected"
)

// CorrectionNotice tells the practitioner who requested a correction how it
// was resolved.
type CorrectionNotice struct {
	Outcome     CorrectionOutcome
	RecordID    uuid.UUID
	RequesterID uuid.UUID
	TrackingID  string
	Reason      string
}
