package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/crvs/internal/domain"
)

type GetPractitionerInput struct {
	ID uuid.UUID `path:"id" doc:"Practitioner ID, the actor ID carried in tokens"`
}

type PutPractitionerInput struct {
	ID   uuid.UUID `path:"id" doc:"Practitioner ID, the actor ID carried in tokens"`
	Body struct {
		Name            string                 `json:"name" minLength:"1" doc:"Display name"`
		PrimaryOfficeID string                 `json:"primaryOfficeId" minLength:"1" doc:"Office stamped on task versions this practitioner writes"`
		Links           []domain.MessengerLink `json:"links,omitempty" doc:"Notification channel identities"`
	}
}

type PractitionerOutput struct {
	Body *domain.Practitioner
}

func RegisterPractitionerRoutes(api huma.API, directory PractitionerDirectory) {
	huma.Register(api, huma.Operation{
		OperationID: "get-practitioner",
		Method:      http.MethodGet,
		Path:        "/practitioners/{id}",
		Summary:     "Get a practitioner directory entry",
		Tags:        []string{"Practitioners"},
	}, func(ctx context.Context, input *GetPractitionerInput) (*PractitionerOutput, error) {
		if _, err := actorFor(ctx, ""); err != nil {
			return nil, err
		}

		p, err := directory.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHTTPError("get practitioner", "practitioner", err)
		}
		return &PractitionerOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-practitioner",
		Method:      http.MethodPut,
		Path:        "/practitioners/{id}",
		Summary:     "Create or replace a practitioner directory entry",
		Description: "Registration and correction actions by an actor fail until the actor has an entry here.",
		Tags:        []string{"Practitioners"},
	}, func(ctx context.Context, input *PutPractitionerInput) (*PractitionerOutput, error) {
		if _, err := actorFor(ctx, domain.CapPractitionerAdmin); err != nil {
			return nil, err
		}

		p := &domain.Practitioner{
			ID:              input.ID,
			Name:            input.Body.Name,
			PrimaryOfficeID: input.Body.PrimaryOfficeID,
			Links:           input.Body.Links,
		}
		for _, l := range p.Links {
			if l.Platform == "" || l.ExternalID == "" {
				return nil, huma.Error400BadRequest("links need a platform and an externalId")
			}
		}

		if err := directory.Upsert(ctx, p); err != nil {
			return nil, toHTTPError("save practitioner", "practitioner", err)
		}
		return &PractitionerOutput{Body: p}, nil
	})
}
