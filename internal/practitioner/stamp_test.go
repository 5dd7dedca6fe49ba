package practitioner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/crvs/internal/domain"
	"github.com/gosuda/crvs/internal/practitioner"
)

type mockDirectory struct {
	getFn func(ctx context.Context, id uuid.UUID) (*domain.Practitioner, error)
}

func (m *mockDirectory) GetByID(ctx context.Context, id uuid.UUID) (*domain.Practitioner, error) {
	return m.getFn(ctx, id)
}

func (m *mockDirectory) Upsert(context.Context, *domain.Practitioner) error { return nil }

func TestStamper_Stamp(t *testing.T) {
	t.Parallel()

	actor := uuid.New()

	t.Run("sets user then location", func(t *testing.T) {
		t.Parallel()

		var userSetBeforeLookup bool
		task := &domain.Task{}
		dir := &mockDirectory{getFn: func(_ context.Context, id uuid.UUID) (*domain.Practitioner, error) {
			_, userSetBeforeLookup = task.Extensions.LastUser()
			return &domain.Practitioner{ID: id, PrimaryOfficeID: "office-chibombo"}, nil
		}}

		err := practitioner.NewStamper(dir).Stamp(t.Context(), task, actor)

		require.NoError(t, err)
		assert.True(t, userSetBeforeLookup)
		user, _ := task.Extensions.LastUser()
		assert.Equal(t, actor, user)
		loc, _ := task.Extensions.LastLocation()
		assert.Equal(t, "office-chibombo", loc)
	})

	t.Run("unknown practitioner keeps user stamp and fails", func(t *testing.T) {
		t.Parallel()

		task := &domain.Task{}
		dir := &mockDirectory{getFn: func(context.Context, uuid.UUID) (*domain.Practitioner, error) {
			return nil, domain.ErrNotFound
		}}

		err := practitioner.NewStamper(dir).Stamp(t.Context(), task, actor)

		require.ErrorIs(t, err, domain.ErrUnknownPractitioner)
		assert.NotErrorIs(t, err, domain.ErrNotFound, "a directory miss must not read as a missing record")
		_, ok := task.Extensions.LastUser()
		assert.True(t, ok)
		_, ok = task.Extensions.LastLocation()
		assert.False(t, ok)
	})

	t.Run("directory failure passes through", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("connection reset")
		dir := &mockDirectory{getFn: func(context.Context, uuid.UUID) (*domain.Practitioner, error) {
			return nil, boom
		}}

		err := practitioner.NewStamper(dir).Stamp(t.Context(), &domain.Task{}, actor)
		require.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, domain.ErrUnknownPractitioner)
	})

	t.Run("practitioner without office is invalid", func(t *testing.T) {
		t.Parallel()

		dir := &mockDirectory{getFn: func(_ context.Context, id uuid.UUID) (*domain.Practitioner, error) {
			return &domain.Practitioner{ID: id}, nil
		}}

		err := practitioner.NewStamper(dir).Stamp(t.Context(), &domain.Task{}, actor)
		require.ErrorIs(t, err, domain.ErrValidation)
	})
}
