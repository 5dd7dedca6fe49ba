package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound   = errors.New("domain: not found")
	ErrConflict   = errors.New("domain: conflict")
	ErrValidation = errors.New("domain: validation failed")
	ErrForbidden  = errors.New("domain: forbidden")

	// ErrHistoryIntegrity means a task history holds no non-correction snapshot
	// to restore. It signals a broken invariant and is never defaulted.
	ErrHistoryIntegrity = errors.New("domain: no prior non-correction task found")

	// ErrStaleRecord is returned by conditional commits when the record's
	// current task moved since it was read.
	ErrStaleRecord = errors.New("domain: record changed concurrently")

	// ErrDuplicateAction is returned by appends when the record already holds
	// an action with the same transaction ID and type.
	ErrDuplicateAction = errors.New("domain: action already recorded")

	// ErrUnknownPractitioner means the acting user has no practitioner
	// directory entry, so task versions cannot be stamped with an office.
	ErrUnknownPractitioner = errors.New("domain: actor is not in the practitioner directory")

	// ErrNotification wraps downstream notification delivery failures.
	ErrNotification = errors.New("domain: notification delivery failed")
)
