package domain

import "github.com/google/uuid"

type Role string

const (
	RoleFieldAgent        Role = "field_agent"
	RoleRegistrationAgent Role = "registration_agent"
	RoleLocalRegistrar    Role = "local_registrar"
)

type Capability string

const (
	CapRecordCreate      Capability = "record.create"
	CapRecordDeclare     Capability = "record.declare"
	CapRecordValidate    Capability = "record.validate"
	CapRecordRegister    Capability = "record.register"
	CapRecordPrint       Capability = "record.print"
	CapRecordArchive     Capability = "record.archive"
	CapRecordAssign      Capability = "record.assign"
	CapCorrectionRequest Capability = "correction.request"
	CapCorrectionReview  Capability = "correction.review"
	CapCorrectionMake    Capability = "correction.make"
	CapPractitionerAdmin Capability = "practitioner.admin"
)

// RoleCapabilities is the single source of truth for what each role may do.
var RoleCapabilities = map[Role][]Capability{ //nolint:gochecknoglobals // static lookup table
	RoleFieldAgent: {
		CapRecordCreate, CapRecordDeclare, CapRecordAssign,
	},
	RoleRegistrationAgent: {
		CapRecordCreate, CapRecordDeclare, CapRecordValidate, CapRecordPrint,
		CapRecordAssign, CapCorrectionRequest,
	},
	RoleLocalRegistrar: {
		CapRecordCreate, CapRecordDeclare, CapRecordValidate, CapRecordRegister,
		CapRecordPrint, CapRecordArchive, CapRecordAssign,
		CapCorrectionRequest, CapCorrectionReview, CapCorrectionMake,
		CapPractitionerAdmin,
	},
}

// Actor is the already-authenticated caller on whose behalf the engine acts.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) Can(c Capability) bool {
	for _, have := range RoleCapabilities[a.Role] {
		if have == c {
			return true
		}
	}
	return false
}

// CapabilityFor returns the capability needed to append an action of type t
// through the generic action surface.
func CapabilityFor(t ActionType) Capability {
	switch t {
	case ActionCreate:
		return CapRecordCreate
	case ActionValidate:
		return CapRecordValidate
	case ActionRegister:
		return CapRecordRegister
	case ActionPrintCertificate, ActionIssue:
		return CapRecordPrint
	case ActionArchive:
		return CapRecordArchive
	case ActionAssign, ActionUnassign:
		return CapRecordAssign
	case ActionRequestCorrection:
		return CapCorrectionRequest
	case ActionRejectCorrection, ActionApproveCorrection:
		return CapCorrectionReview
	case ActionCorrect:
		return CapCorrectionMake
	default:
		return CapRecordDeclare
	}
}
