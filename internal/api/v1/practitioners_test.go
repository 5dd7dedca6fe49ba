package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/crvs/internal/api/v1"
	"github.com/gosuda/crvs/internal/domain"
)

func TestPutPractitioner(t *testing.T) {
	t.Parallel()

	practitionerID := uuid.New()

	t.Run("saves_the_entry", func(t *testing.T) {
		t.Parallel()

		var saved *domain.Practitioner
		_, api := humatest.New(t)
		v1.RegisterPractitionerRoutes(api, &mockPractitionerDirectory{
			upsertFunc: func(_ context.Context, p *domain.Practitioner) error {
				saved = p
				return nil
			},
		})

		resp := api.PutCtx(registrarCtx(), "/practitioners/"+practitionerID.String(), map[string]any{
			"name":            "Chipo Banda",
			"primaryOfficeId": "office-kabwe",
			"links":           []map[string]any{{"platform": "slack", "externalId": "U0123"}},
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		require.NotNil(t, saved)
		assert.Equal(t, practitionerID, saved.ID)
		assert.Equal(t, "office-kabwe", saved.PrimaryOfficeID)
		require.Len(t, saved.Links, 1)
		assert.Equal(t, "slack", saved.Links[0].Platform)

		var body domain.Practitioner
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "Chipo Banda", body.Name)
	})

	t.Run("rejects", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name       string
			ctx        context.Context
			body       map[string]any
			wantStatus int
		}{
			{
				name:       "missing_office",
				ctx:        registrarCtx(),
				body:       map[string]any{"name": "Chipo Banda", "primaryOfficeId": ""},
				wantStatus: http.StatusUnprocessableEntity,
			},
			{
				name: "incomplete_link",
				ctx:  registrarCtx(),
				body: map[string]any{
					"name": "Chipo Banda", "primaryOfficeId": "office-kabwe",
					"links": []map[string]any{{"platform": "slack"}},
				},
				wantStatus: http.StatusBadRequest,
			},
			{
				name:       "field_agent_forbidden",
				ctx:        fieldAgentCtx(),
				body:       map[string]any{"name": "Chipo Banda", "primaryOfficeId": "office-kabwe"},
				wantStatus: http.StatusForbidden,
			},
			{
				name:       "no_actor",
				ctx:        context.Background(),
				body:       map[string]any{"name": "Chipo Banda", "primaryOfficeId": "office-kabwe"},
				wantStatus: http.StatusUnauthorized,
			},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				_, api := humatest.New(t)
				v1.RegisterPractitionerRoutes(api, &mockPractitionerDirectory{
					upsertFunc: func(context.Context, *domain.Practitioner) error {
						t.Fatal("upsert must not be called")
						return nil
					},
				})

				resp := api.PutCtx(tc.ctx, "/practitioners/"+practitionerID.String(), tc.body)
				assert.Equal(t, tc.wantStatus, resp.Code)
			})
		}
	})
}

func TestGetPractitioner(t *testing.T) {
	t.Parallel()

	practitionerID := uuid.New()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{name: "found", wantStatus: http.StatusOK, wantDetail: "office-kabwe"},
		{name: "not_found", err: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantDetail: "practitioner not found"},
		{name: "store_failure", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError, wantDetail: "failed to get practitioner"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			v1.RegisterPractitionerRoutes(api, &mockPractitionerDirectory{
				getByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.Practitioner, error) {
					if tc.err != nil {
						return nil, tc.err
					}
					return &domain.Practitioner{ID: id, Name: "Chipo Banda", PrimaryOfficeID: "office-kabwe"}, nil
				},
			})

			resp := api.GetCtx(fieldAgentCtx(), "/practitioners/"+practitionerID.String())
			assert.Equal(t, tc.wantStatus, resp.Code)
			assert.Contains(t, resp.Body.String(), tc.wantDetail)
		})
	}
}
