package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/crvs/internal/domain"
)

type Store struct {
	pool          *pgxpool.Pool
	records       *RecordRepo
	tasks         *TaskRepo
	corrections   *CorrectionRepo
	practitioners *PractitionerRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return NewWithPool(pool), nil
}

// NewWithPool wraps an existing pool. The caller keeps ownership of it.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:          pool,
		records:       NewRecordRepo(pool),
		tasks:         NewTaskRepo(pool),
		corrections:   NewCorrectionRepo(pool),
		practitioners: NewPractitionerRepo(pool),
	}
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.pool)
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres.Store.Ping: %w", err)
	}
	return nil
}

func (s *Store) Records() domain.RecordRepository             { return s.records }
func (s *Store) Tasks() domain.TaskRepository                 { return s.tasks }
func (s *Store) Corrections() domain.CorrectionRepository     { return s.corrections }
func (s *Store) Practitioners() domain.PractitionerRepository { return s.practitioners }

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
