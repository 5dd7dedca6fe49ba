package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/crvs/internal/correction"
)

type CorrectionBody struct {
	TransactionID string                  `json:"transactionId" minLength:"1" doc:"Client idempotency key"`
	Requester     string                  `json:"requester,omitempty" doc:"Who asked for the correction, e.g. MOTHER or COURT"`
	Reason        string                  `json:"reason" minLength:"1" doc:"Reason code for the correction"`
	Note          string                  `json:"note,omitempty" doc:"Free text from the registrar"`
	Values        map[string]any          `json:"values,omitempty" doc:"Corrected field values"`
	Attachments   []correction.Attachment `json:"attachments,omitempty" doc:"Proof of legal correction"`
	Payment       *correction.Payment     `json:"payment,omitempty" doc:"Correction fee, when one was paid"`
}

func (b CorrectionBody) input() correction.Input {
	return correction.Input{
		TransactionID: b.TransactionID,
		Requester:     b.Requester,
		Reason:        b.Reason,
		Note:          b.Note,
		Values:        b.Values,
		Attachments:   b.Attachments,
		Payment:       b.Payment,
	}
}

type CorrectionInput struct {
	ID   uuid.UUID `path:"id" doc:"Record ID"`
	Body CorrectionBody
}

type RejectCorrectionInput struct {
	ID   uuid.UUID `path:"id" doc:"Record ID"`
	Body struct {
		TransactionID string `json:"transactionId" minLength:"1" doc:"Client idempotency key"`
		Reason        string `json:"reason" minLength:"1" doc:"Why the request was rejected, sent to the requester"`
	}
}

type ApproveCorrectionInput struct {
	ID   uuid.UUID `path:"id" doc:"Record ID"`
	Body struct {
		TransactionID string         `json:"transactionId" minLength:"1" doc:"Client idempotency key"`
		Values        map[string]any `json:"values,omitempty" doc:"Values to apply instead of the requested ones"`
	}
}

func RegisterCorrectionRoutes(api huma.API, corrections CorrectionService) {
	huma.Register(api, huma.Operation{
		OperationID: "request-correction",
		Method:      http.MethodPost,
		Path:        "/records/{id}/request-correction",
		Summary:     "Request a correction of a registered, certified or issued record",
		Tags:        []string{"Corrections"},
	}, func(ctx context.Context, input *CorrectionInput) (*RecordOutput, error) {
		actor, err := actorFor(ctx, "")
		if err != nil {
			return nil, err
		}

		rec, err := corrections.Request(ctx, actor, input.ID, input.Body.input())
		return recordResult("request correction", rec, err)
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-correction",
		Method:      http.MethodPost,
		Path:        "/records/{id}/reject-correction",
		Summary:     "Reject the pending correction request and restore the prior status",
		Tags:        []string{"Corrections"},
	}, func(ctx context.Context, input *RejectCorrectionInput) (*RecordOutput, error) {
		actor, err := actorFor(ctx, "")
		if err != nil {
			return nil, err
		}

		rec, err := corrections.Reject(ctx, actor, input.ID, correction.RejectInput{
			TransactionID: input.Body.TransactionID,
			Reason:        input.Body.Reason,
		})
		return recordResult("reject correction", rec, err)
	})

	huma.Register(api, huma.Operation{
		OperationID: "make-correction",
		Method:      http.MethodPost,
		Path:        "/records/{id}/make-correction",
		Summary:     "Correct a registered, certified or issued record directly",
		Tags:        []string{"Corrections"},
	}, func(ctx context.Context, input *CorrectionInput) (*RecordOutput, error) {
		actor, err := actorFor(ctx, "")
		if err != nil {
			return nil, err
		}

		rec, err := corrections.Correct(ctx, actor, input.ID, input.Body.input())
		return recordResult("make correction", rec, err)
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-correction",
		Method:      http.MethodPost,
		Path:        "/records/{id}/approve-correction",
		Summary:     "Approve the pending correction request",
		Tags:        []string{"Corrections"},
	}, func(ctx context.Context, input *ApproveCorrectionInput) (*RecordOutput, error) {
		actor, err := actorFor(ctx, "")
		if err != nil {
			return nil, err
		}

		rec, err := corrections.Approve(ctx, actor, input.ID, correction.ApproveInput{
			TransactionID: input.Body.TransactionID,
			Values:        input.Body.Values,
		})
		return recordResult("approve correction", rec, err)
	})
}
