package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/crvs/internal/api/v1"
	"github.com/gosuda/crvs/internal/domain"
	"github.com/gosuda/crvs/internal/events"
	"github.com/gosuda/crvs/internal/projection"
)

// ---------------------------------------------------------------------------
// TestCreateRecord
// ---------------------------------------------------------------------------

func TestCreateRecord(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		recordID := uuid.New()
		ctx, actor := actorCtx(domain.RoleFieldAgent)

		var called bool
		_, api := humatest.New(t)
		records := &mockRecordService{
			createFunc: func(_ context.Context, got domain.Actor, in events.CreateInput) (*domain.Record, error) {
				called = true
				assert.Equal(t, actor, got)
				assert.Equal(t, "tx1", in.TransactionID)
				assert.Equal(t, domain.EventBirth, in.Type)
				assert.Equal(t, "Thandi", in.Fields["child.firstname"])
				assert.Equal(t, "office-ilanga", in.CreatedAtLocation)
				return sampleRecord(recordID), nil
			},
		}
		v1.RegisterRecordRoutes(api, records, &mockHistoryService{})

		resp := api.PostCtx(ctx, "/records", map[string]any{
			"transactionId":     "tx1",
			"type":              "birth",
			"fields":            map[string]any{"child.firstname": "Thandi"},
			"createdAtLocation": "office-ilanga",
		})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.True(t, called, "records.Create must be invoked")

		var body domain.Record
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, recordID, body.ID)
		require.Len(t, body.Actions, 1)
		assert.Equal(t, domain.ActionCreate, body.Actions[0].Base().Type)
	})

	t.Run("unknown_event_type_rejected_by_schema", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterRecordRoutes(api, &mockRecordService{}, &mockHistoryService{})

		resp := api.PostCtx(registrarCtx(), "/records", map[string]any{
			"transactionId": "tx1",
			"type":          "adoption",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("missing_actor", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterRecordRoutes(api, &mockRecordService{}, &mockHistoryService{})

		resp := api.PostCtx(context.Background(), "/records", map[string]any{
			"transactionId": "tx1",
			"type":          "birth",
		})

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestGetRecord
// ---------------------------------------------------------------------------

func TestGetRecord(t *testing.T) {
	t.Parallel()

	recordID := uuid.New()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "found", wantStatus: http.StatusOK},
		{name: "not_found", err: fmt.Errorf("memory.RecordRepo.GetByID: %w", domain.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "store_failure", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			records := &mockRecordService{
				getFunc: func(_ context.Context, id uuid.UUID) (*domain.Record, error) {
					assert.Equal(t, recordID, id)
					if tt.err != nil {
						return nil, tt.err
					}
					return sampleRecord(recordID), nil
				},
			}
			v1.RegisterRecordRoutes(api, records, &mockHistoryService{})

			resp := api.GetCtx(fieldAgentCtx(), "/records/"+recordID.String())

			assert.Equal(t, tt.wantStatus, resp.Code)
		})
	}
}

// ---------------------------------------------------------------------------
// TestPatchRecord
// ---------------------------------------------------------------------------

func TestPatchRecord(t *testing.T) {
	t.Parallel()

	recordID := uuid.New()

	t.Run("changes_type", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		records := &mockRecordService{
			patchFunc: func(_ context.Context, id uuid.UUID, in events.PatchInput) (*domain.Record, error) {
				assert.Equal(t, recordID, id)
				assert.Equal(t, "tx2", in.TransactionID)
				assert.Equal(t, domain.EventDeath, in.Type)
				rec := sampleRecord(recordID)
				rec.Type = domain.EventDeath
				return rec, nil
			},
		}
		v1.RegisterRecordRoutes(api, records, &mockHistoryService{})

		resp := api.PatchCtx(registrarCtx(), "/records/"+recordID.String(), map[string]any{
			"transactionId": "tx2",
			"type":          "death",
		})

		require.Equal(t, http.StatusOK, resp.Code)
		var body domain.Record
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, domain.EventDeath, body.Type)
	})

	t.Run("not_found", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		records := &mockRecordService{
			patchFunc: func(context.Context, uuid.UUID, events.PatchInput) (*domain.Record, error) {
				return nil, domain.ErrNotFound
			},
		}
		v1.RegisterRecordRoutes(api, records, &mockHistoryService{})

		resp := api.PatchCtx(registrarCtx(), "/records/"+recordID.String(), map[string]any{
			"transactionId": "tx2",
			"type":          "death",
		})

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestRecordStateAndTasks
// ---------------------------------------------------------------------------

func TestGetRecordState(t *testing.T) {
	t.Parallel()

	recordID := uuid.New()
	_, api := humatest.New(t)
	records := &mockRecordService{
		getFunc: func(context.Context, uuid.UUID) (*domain.Record, error) {
			return sampleRecord(recordID), nil
		},
	}
	v1.RegisterRecordRoutes(api, records, &mockHistoryService{})

	resp := api.GetCtx(fieldAgentCtx(), "/records/"+recordID.String()+"/state")

	require.Equal(t, http.StatusOK, resp.Code)
	var body projection.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, domain.StatusCreated, body.Status)
}

func TestListRecordTasks(t *testing.T) {
	t.Parallel()

	recordID := uuid.New()

	t.Run("newest_first_from_resolver", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		records := &mockRecordService{
			getFunc: func(context.Context, uuid.UUID) (*domain.Record, error) {
				return sampleRecord(recordID), nil
			},
		}
		hist := &mockHistoryService{
			historyFunc: func(_ context.Context, id uuid.UUID) ([]*domain.Task, error) {
				assert.Equal(t, recordID, id)
				return []*domain.Task{
					{ID: uuid.New(), Version: 2, Status: domain.StatusDeclared},
					{ID: uuid.New(), Version: 1, Status: domain.StatusCreated},
				}, nil
			},
		}
		v1.RegisterRecordRoutes(api, records, hist)

		resp := api.GetCtx(registrarCtx(), "/records/"+recordID.String()+"/tasks")

		require.Equal(t, http.StatusOK, resp.Code)
		var body []domain.Task
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body, 2)
		assert.Equal(t, 2, body[0].Version)
	})

	t.Run("unknown_record", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		records := &mockRecordService{
			getFunc: func(context.Context, uuid.UUID) (*domain.Record, error) {
				return nil, domain.ErrNotFound
			},
		}
		v1.RegisterRecordRoutes(api, records, &mockHistoryService{})

		resp := api.GetCtx(registrarCtx(), "/records/"+recordID.String()+"/tasks")

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}
