//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/gosuda/crvs/internal/domain"
	"github.com/gosuda/crvs/internal/store/postgres"
)

var testStore *postgres.Store

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("crvs"),
		tcpostgres.WithUsername("crvs"),
		tcpostgres.WithPassword("crvs"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "start postgres container: %v\n", err)
		return 1
	}
	defer func() { _ = testcontainers.TerminateContainer(container) }()

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "connection string: %v\n", err)
		return 1
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		return 1
	}
	defer pool.Close()

	testStore = postgres.NewWithPool(pool)
	if err := testStore.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		return 1
	}
	// Running twice must be a no-op.
	if err := testStore.Migrate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "migrate again: %v\n", err)
		return 1
	}

	return m.Run()
}

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newRecord() (*domain.Record, *domain.Task) {
	tx := "tx-" + uuid.NewString()
	rec := &domain.Record{
		ID:            uuid.New(),
		TransactionID: tx,
		Type:          domain.EventBirth,
		CreatedAt:     base,
		UpdatedAt:     base,
		Actions: domain.ActionList{&domain.CreateAction{
			ActionBase: domain.ActionBase{
				ID: uuid.New(), Type: domain.ActionCreate, TransactionID: tx,
				CreatedAt: base, CreatedBy: uuid.New(),
				Data: map[string]any{"child.firstname": "Thandi"},
			},
			CreatedAtLocation: "office-ilanga",
		}},
	}
	task := &domain.Task{
		ID: uuid.New(), Status: domain.StatusCreated, State: domain.TaskStateReady, LastModified: base,
		Extensions: domain.Extensions{domain.ExtLastLocation: "office-ilanga"},
	}
	return rec, task
}

func declare(current *domain.Task, at time.Time) *domain.Commit {
	next := current.Next(at)
	next.Status = domain.StatusDeclared
	return &domain.Commit{
		Action: &domain.DeclareAction{ActionBase: domain.ActionBase{
			ID: uuid.New(), Type: domain.ActionDeclare, TransactionID: "declare-" + uuid.NewString(),
			CreatedAt: at, CreatedBy: uuid.New(),
		}},
		ExpectedTaskID: &current.ID,
		Tasks:          []*domain.Task{next},
		At:             at,
	}
}

func TestRecordRepo_CreateAndLoad(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	rec, task := newRecord()
	require.NoError(t, testStore.Records().Create(ctx, rec, task))

	got, err := testStore.Records().GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.TransactionID, got.TransactionID)
	require.NotNil(t, got.CurrentTaskID)
	assert.Equal(t, task.ID, *got.CurrentTaskID)
	require.Len(t, got.Actions, 1)

	create, ok := got.Actions[0].(*domain.CreateAction)
	require.True(t, ok)
	assert.Equal(t, "office-ilanga", create.CreatedAtLocation)
	assert.Equal(t, "Thandi", create.Data["child.firstname"])

	byTx, err := testStore.Records().GetByTransactionID(ctx, rec.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, byTx.ID)

	stored, err := testStore.Tasks().GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
	assert.Equal(t, "office-ilanga", stored.Extensions[domain.ExtLastLocation])

	dup, dupTask := newRecord()
	dup.TransactionID = rec.TransactionID
	err = testStore.Records().Create(ctx, dup, dupTask)
	require.ErrorIs(t, err, domain.ErrConflict)

	_, err = testStore.Records().GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordRepo_Append(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	rec, task := newRecord()
	require.NoError(t, testStore.Records().Create(ctx, rec, task))

	at := base.Add(time.Minute)
	commit := declare(task, at)
	require.NoError(t, testStore.Records().Append(ctx, rec.ID, commit))
	assert.Equal(t, 2, commit.Tasks[0].Version)

	got, err := testStore.Records().GetByID(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, got.Actions, 2)
	assert.Equal(t, domain.ActionDeclare, got.Actions[1].Base().Type)
	assert.Equal(t, commit.Tasks[0].ID, *got.CurrentTaskID)
	assert.True(t, got.UpdatedAt.Equal(at))

	t.Run("stale expected task writes nothing", func(t *testing.T) {
		stale := declare(task, at.Add(time.Minute))
		err := testStore.Records().Append(ctx, rec.ID, stale)
		require.ErrorIs(t, err, domain.ErrStaleRecord)

		tasks, err := testStore.Tasks().ListByRecord(ctx, rec.ID)
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
	})

	t.Run("unknown record", func(t *testing.T) {
		err := testStore.Records().Append(ctx, uuid.New(), declare(task, at))
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("repeated transaction id and type is a duplicate", func(t *testing.T) {
		draft := func() *domain.Commit {
			return &domain.Commit{
				Action: &domain.DraftAction{ActionBase: domain.ActionBase{
					ID: uuid.New(), Type: domain.ActionDraft, TransactionID: "draft-1",
					CreatedAt: at, CreatedBy: uuid.New(),
				}},
				ExpectedTaskID: got.CurrentTaskID,
				At:             at,
			}
		}
		require.NoError(t, testStore.Records().Append(ctx, rec.ID, draft()))

		err := testStore.Records().Append(ctx, rec.ID, draft())
		require.ErrorIs(t, err, domain.ErrDuplicateAction)
		assert.NotErrorIs(t, err, domain.ErrConflict)

		reloaded, err := testStore.Records().GetByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Len(t, reloaded.Actions, 3)
	})
}

func TestRecordRepo_AppendCorrection(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	rec, task := newRecord()
	require.NoError(t, testStore.Records().Create(ctx, rec, task))

	at := base.Add(time.Hour)
	enc := &domain.Encounter{ID: uuid.New(), RecordID: rec.ID, CreatedAt: at}
	pay := &domain.PaymentReconciliation{ID: uuid.New(), EncounterID: enc.ID, Amount: 1500, Outcome: "COMPLETED", PaidAt: at}
	enc.PaymentID = &pay.ID
	doc := &domain.DocumentReference{ID: uuid.New(), EncounterID: enc.ID, Type: "court-order", URI: "s3://docs/1.pdf", CreatedAt: at}

	next := task.Next(at)
	next.Status = domain.StatusCorrectionRequested
	next.State = domain.TaskStateRequested
	next.EncounterID = &enc.ID

	commit := &domain.Commit{
		Action: &domain.CorrectionAction{
			ActionBase: domain.ActionBase{
				ID: uuid.New(), Type: domain.ActionRequestCorrection, TransactionID: "req-1",
				CreatedAt: at, CreatedBy: uuid.New(),
			},
			Correction: domain.CorrectionDetails{Reason: "CLERICAL_ERROR", EncounterID: &enc.ID},
		},
		ExpectedTaskID: &task.ID,
		Tasks:          []*domain.Task{next},
		Encounter:      enc,
		Payment:        pay,
		Documents:      []*domain.DocumentReference{doc},
		At:             at,
	}
	require.NoError(t, testStore.Records().Append(ctx, rec.ID, commit))

	gotEnc, err := testStore.Corrections().GetEncounter(ctx, enc.ID)
	require.NoError(t, err)
	require.NotNil(t, gotEnc.PaymentID)
	assert.Equal(t, pay.ID, *gotEnc.PaymentID)
	assert.Equal(t, []uuid.UUID{doc.ID}, gotEnc.DocumentIDs)

	gotPay, err := testStore.Corrections().GetPayment(ctx, pay.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), gotPay.Amount)

	docs, err := testStore.Corrections().ListDocuments(ctx, enc.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "s3://docs/1.pdf", docs[0].URI)

	got, err := testStore.Records().GetByID(ctx, rec.ID)
	require.NoError(t, err)
	req, ok := got.Actions[1].(*domain.CorrectionAction)
	require.True(t, ok)
	assert.Equal(t, "CLERICAL_ERROR", req.Correction.Reason)
}

func TestPractitionerRepo_Upsert(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	p := &domain.Practitioner{ID: uuid.New(), Name: "Mwila Phiri", PrimaryOfficeID: "office-ilanga"}
	require.NoError(t, testStore.Practitioners().Upsert(ctx, p))

	p.Links = []domain.MessengerLink{{Platform: "slack", ExternalID: "U123"}}
	require.NoError(t, testStore.Practitioners().Upsert(ctx, p))

	got, err := testStore.Practitioners().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "office-ilanga", got.PrimaryOfficeID)
	assert.Equal(t, p.Links, got.Links)

	_, err = testStore.Practitioners().GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}
