package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Pesokrava/product_directory/internal/domain"
)

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Store implements domain.Store for PostgreSQL
type Store struct {
	db *sqlx.DB
	q  queryer
}

// NewStore creates a store backed by the connection pool
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Products() domain.ProductRepository { return &ProductRepository{db: s.q} }
func (s *Store) Reviews() domain.ReviewRepository { return &ReviewRepository{db: s.q} }
func (s *Store) Votes() domain.VoteRepository { return &VoteRepository{db: s.q} }
func (s *Store) Categories() domain.CategoryRepository { return &CategoryRepository{db: s.q} }
func (s *Store) Tags() domain.TagRepository { return &TagRepository{db: s.q} }
func (s *Store) Users() domain.UserRepository { return &UserRepository{db: s.q} }
func (s *Store) Stats() domain.StatsRepository { return &StatsRepository{db: s.q} }
func (s *Store) Aggregates() domain.AggregateStore { return &AggregateStore{db: s.q} }

// WithinTx runs fn in a transaction. On a transaction-bound store fn joins the open transaction.
func (s *Store) WithinTx(ctx context.Context, fn domain.TxFunc) error {
	return s.run(ctx, nil, fn)
}

// ReadOnly runs fn in a read-only repeatable-read transaction
func (s *Store) ReadOnly(ctx context.Context, fn domain.TxFunc) error {
	return s.run(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, fn)
}

func (s *Store) run(ctx context.Context, opts *sql.TxOptions, fn domain.TxFunc) error {
	if s.db == nil {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, &Store{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
