package domain

import "github.com/google/uuid"

// ExtensionKey identifies a loosely typed metadata entry on a task.
type ExtensionKey string

const (
	ExtLastUser         ExtensionKey = "urn:crvs:extension:last-user"
	ExtLastLocation     ExtensionKey = "urn:crvs:extension:last-location"
	ExtAssignment       ExtensionKey = "urn:crvs:extension:assignment"
	ExtPaymentReference ExtensionKey = "urn:crvs:extension:payment-reference"
	ExtRequester        ExtensionKey = "urn:crvs:extension:correction-requester"
	ExtCorrectionReason ExtensionKey = "urn:crvs:extension:correction-reason"
)

// Extensions maps well-known keys to string values. Keys the engine does not
// know about are carried along untouched.
type Extensions map[ExtensionKey]string

func (e Extensions) Clone() Extensions {
	out := make(Extensions, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Without returns a copy with the given keys removed.
func (e Extensions) Without(keys ...ExtensionKey) Extensions {
	out := e.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

func (e *Extensions) set(k ExtensionKey, v string) {
	if *e == nil {
		*e = make(Extensions)
	}
	(*e)[k] = v
}

func (e Extensions) uuidValue(k ExtensionKey) (uuid.UUID, bool) {
	v, ok := e[k]
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (e Extensions) LastUser() (uuid.UUID, bool) { return e.uuidValue(ExtLastUser) }

func (e *Extensions) SetLastUser(id uuid.UUID) { e.set(ExtLastUser, id.String()) }

func (e Extensions) LastLocation() (string, bool) {
	v, ok := e[ExtLastLocation]
	return v, ok
}

func (e *Extensions) SetLastLocation(officeID string) { e.set(ExtLastLocation, officeID) }

func (e Extensions) Assignment() (uuid.UUID, bool) { return e.uuidValue(ExtAssignment) }

func (e *Extensions) SetAssignment(id uuid.UUID) { e.set(ExtAssignment, id.String()) }

func (e Extensions) PaymentReference() (uuid.UUID, bool) { return e.uuidValue(ExtPaymentReference) }

func (e *Extensions) SetPaymentReference(id uuid.UUID) { e.set(ExtPaymentReference, id.String()) }

func (e Extensions) Requester() (string, bool) {
	v, ok := e[ExtRequester]
	return v, ok
}

func (e *Extensions) SetRequester(requester string) { e.set(ExtRequester, requester) }

func (e Extensions) CorrectionReason() (string, bool) {
	v, ok := e[ExtCorrectionReason]
	return v, ok
}

func (e *Extensions) SetCorrectionReason(reason string) { e.set(ExtCorrectionReason, reason) }
