package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/crvs/internal/domain"
)

type GetEncounterInput struct {
	ID uuid.UUID `path:"id" doc:"Encounter ID"`
}

// EncounterDetail is an encounter with its payment and documents resolved.
type EncounterDetail struct {
	domain.Encounter
	Payment   *domain.PaymentReconciliation `json:"payment,omitempty"`
	Documents []*domain.DocumentReference   `json:"documents"`
}

type EncounterOutput struct {
	Body EncounterDetail
}

func RegisterEncounterRoutes(api huma.API, supporting SupportingResources) {
	huma.Register(api, huma.Operation{
		OperationID: "get-encounter",
		Method:      http.MethodGet,
		Path:        "/encounters/{id}",
		Summary:     "Get the supporting resources created with a correction",
		Tags:        []string{"Corrections"},
	}, func(ctx context.Context, input *GetEncounterInput) (*EncounterOutput, error) {
		if _, err := actorFor(ctx, domain.CapCorrectionRequest); err != nil {
			return nil, err
		}

		enc, err := supporting.GetEncounter(ctx, input.ID)
		if err != nil {
			return nil, toHTTPError("get encounter", "encounter", err)
		}

		detail := EncounterDetail{Encounter: *enc, Documents: []*domain.DocumentReference{}}
		if enc.PaymentID != nil {
			detail.Payment, err = supporting.GetPayment(ctx, *enc.PaymentID)
			if err != nil {
				return nil, toHTTPError("get encounter payment", "payment", err)
			}
		}

		docs, err := supporting.ListDocuments(ctx, enc.ID)
		if err != nil {
			return nil, toHTTPError("list encounter documents", "document", err)
		}
		if len(docs) > 0 {
			detail.Documents = docs
		}

		return &EncounterOutput{Body: detail}, nil
	})
}
