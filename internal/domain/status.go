package domain

// RegStatus is the business status a record's task carries.
type RegStatus string

const (
	StatusCreated             RegStatus = "CREATED"
	StatusNotified            RegStatus = "NOTIFIED"
	StatusDeclared            RegStatus = "DECLARED"
	StatusValidated           RegStatus = "VALIDATED"
	StatusRegistered          RegStatus = "REGISTERED"
	StatusCertified           RegStatus = "CERTIFIED"
	StatusIssued              RegStatus = "ISSUED"
	StatusCorrectionRequested RegStatus = "CORRECTION_REQUESTED"
	StatusArchived            RegStatus = "ARCHIVED"
)

// Valid reports whether s is a known business status.
func (s RegStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusNotified, StatusDeclared, StatusValidated, StatusRegistered,
		StatusCertified, StatusIssued, StatusCorrectionRequested, StatusArchived:
		return true
	default:
		return false
	}
}

// Finalized statuses are the ones a correction cycle may start from.
func (s RegStatus) Finalized() bool {
	return s == StatusRegistered || s == StatusCertified || s == StatusIssued
}

// IsCorrection reports whether the status belongs to the correction workflow.
// History scans skip these when looking for the state to restore.
func (s RegStatus) IsCorrection() bool {
	return s == StatusCorrectionRequested
}

// TaskState is the sub-state of a task snapshot. Correction-request tasks move
// from requested to rejected or accepted; every other task is ready.
type TaskState string

const (
	TaskStateReady     TaskState = "ready"
	TaskStateRequested TaskState = "requested"
	TaskStateRejected  TaskState = "rejected"
	TaskStateAccepted  TaskState = "accepted"
)
