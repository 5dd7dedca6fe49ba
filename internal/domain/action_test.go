package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/crvs/internal/domain"
)

// ---------------------------------------------------------------------------
// ActionType.ResultingStatus
// ---------------------------------------------------------------------------

func TestActionType_ResultingStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		action domain.ActionType
		want   domain.RegStatus
		ok     bool
	}{
		{domain.ActionCreate, domain.StatusCreated, true},
		{domain.ActionNotify, domain.StatusNotified, true},
		{domain.ActionDeclare, domain.StatusDeclared, true},
		{domain.ActionValidate, domain.StatusValidated, true},
		{domain.ActionRegister, domain.StatusRegistered, true},
		{domain.ActionPrintCertificate, domain.StatusCertified, true},
		{domain.ActionIssue, domain.StatusIssued, true},
		{domain.ActionArchive, domain.StatusArchived, true},
		{domain.ActionRequestCorrection, domain.StatusCorrectionRequested, true},
		{domain.ActionApproveCorrection, domain.StatusRegistered, true},
		{domain.ActionCorrect, domain.StatusRegistered, true},
		{domain.ActionAssign, "", false},
		{domain.ActionUnassign, "", false},
		{domain.ActionDraft, "", false},
		{domain.ActionCustom, "", false},
		{domain.ActionRejectCorrection, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			t.Parallel()

			got, ok := tt.action.ResultingStatus()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ---------------------------------------------------------------------------
// DecodeAction / ActionList
// ---------------------------------------------------------------------------

func TestDecodeAction(t *testing.T) {
	t.Parallel()

	t.Run("register carries identifiers", func(t *testing.T) {
		t.Parallel()

		raw := `{"type":"REGISTER","transactionId":"tx9","createdBy":"` + uuid.NewString() + `",
			"identifiers":{"trackingId":"B1A2B3C","registrationNumber":"2026ABCDEF0123"}}`

		a, err := domain.DecodeAction([]byte(raw))
		require.NoError(t, err)

		reg, ok := a.(*domain.RegisterAction)
		require.True(t, ok, "expected *RegisterAction, got %T", a)
		assert.Equal(t, "B1A2B3C", reg.Identifiers.TrackingID)
		assert.Equal(t, domain.ActionRegister, reg.Type)
	})

	t.Run("assign carries assignee", func(t *testing.T) {
		t.Parallel()

		assignee := uuid.New()
		raw := `{"type":"ASSIGN","assignedTo":"` + assignee.String() + `"}`

		a, err := domain.DecodeAction([]byte(raw))
		require.NoError(t, err)

		assign, ok := a.(*domain.AssignAction)
		require.True(t, ok)
		assert.Equal(t, assignee, assign.AssignedTo)
	})

	t.Run("correction kinds share one variant", func(t *testing.T) {
		t.Parallel()

		for _, typ := range []string{"REQUEST_CORRECTION", "REJECT_CORRECTION", "APPROVE_CORRECTION", "CORRECT"} {
			a, err := domain.DecodeAction([]byte(`{"type":"` + typ + `","correction":{"reason":"typo"}}`))
			require.NoError(t, err, typ)

			c, ok := a.(*domain.CorrectionAction)
			require.True(t, ok, typ)
			assert.Equal(t, "typo", c.Correction.Reason)
		}
	})

	t.Run("unknown discriminator is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := domain.DecodeAction([]byte(`{"type":"DELETE"}`))
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("missing discriminator is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := domain.DecodeAction([]byte(`{"data":{}}`))
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()

		_, err := domain.DecodeAction([]byte(`{`))
		require.Error(t, err)
	})
}

func TestActionList_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	raw := `[{"type":"CREATE","createdAtLocation":"office-1"},{"type":"DECLARE","data":{"child.name":"Ada"}}]`

	var list domain.ActionList
	require.NoError(t, json.Unmarshal([]byte(raw), &list))
	require.Len(t, list, 2)

	create, ok := list[0].(*domain.CreateAction)
	require.True(t, ok)
	assert.Equal(t, "office-1", create.CreatedAtLocation)

	declare, ok := list[1].(*domain.DeclareAction)
	require.True(t, ok)
	assert.Equal(t, "Ada", declare.Data["child.name"])

	var bad domain.ActionList
	require.ErrorIs(t, json.Unmarshal([]byte(`[{"type":"NOPE"}]`), &bad), domain.ErrValidation)
}

// ---------------------------------------------------------------------------
// CheckAction
// ---------------------------------------------------------------------------

func TestCheckAction(t *testing.T) {
	t.Parallel()

	actor := uuid.New()
	requestID := uuid.New()
	base := func(typ domain.ActionType) domain.ActionBase {
		return domain.ActionBase{Type: typ, TransactionID: "tx", CreatedBy: actor}
	}

	tests := []struct {
		name    string
		action  domain.Action
		wantErr bool
	}{
		{"declare ok", &domain.DeclareAction{ActionBase: base(domain.ActionDeclare)}, false},
		{"assign ok", &domain.AssignAction{ActionBase: base(domain.ActionAssign), AssignedTo: uuid.New()}, false},
		{"assign without assignee", &domain.AssignAction{ActionBase: base(domain.ActionAssign)}, true},
		{"missing transaction id", &domain.DeclareAction{ActionBase: domain.ActionBase{Type: domain.ActionDeclare, CreatedBy: actor}}, true},
		{"missing actor", &domain.DeclareAction{ActionBase: domain.ActionBase{Type: domain.ActionDeclare, TransactionID: "tx"}}, true},
		{"variant mismatch", &domain.DeclareAction{ActionBase: base(domain.ActionRegister)}, true},
		{"unknown type", &domain.CustomAction{ActionBase: base("SHRED")}, true},
		{"reject without request id", &domain.CorrectionAction{ActionBase: base(domain.ActionRejectCorrection)}, true},
		{"reject with request id", &domain.CorrectionAction{
			ActionBase: base(domain.ActionRejectCorrection),
			Correction: domain.CorrectionDetails{RequestID: &requestID},
		}, false},
		{"direct correction needs no request", &domain.CorrectionAction{ActionBase: base(domain.ActionCorrect)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := domain.CheckAction(tt.action)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}

	t.Run("nil action", func(t *testing.T) {
		t.Parallel()
		require.ErrorIs(t, domain.CheckAction(nil), domain.ErrValidation)
	})
}
