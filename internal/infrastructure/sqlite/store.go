package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kberg/koireg/internal/domain/catalog"
)

// dbtx is the subset of *sql.DB and *sql.Tx the repositories use, so the
// same repository code runs directly on the connection or inside a
// transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements catalog.Store over SQLite.
type Store struct {
	db *DB
	q  dbtx

	sources    *sourceRepository
	content    *contentRepository
	processing *processingRepository
}

// Ensure Store implements catalog.Store.
var _ catalog.Store = (*Store)(nil)

// NewStore builds the repository bundle over an open database.
func NewStore(db *DB) *Store {
	return newStoreOn(db, db.Conn())
}

func newStoreOn(db *DB, q dbtx) *Store {
	return &Store{
		db:         db,
		q:          q,
		sources:    &sourceRepository{q: q},
		content:    &contentRepository{q: q},
		processing: &processingRepository{q: q},
	}
}

// Sources returns the source repository.
func (s *Store) Sources() catalog.SourceRepository { return s.sources }

// Content returns the content repository.
func (s *Store) Content() catalog.ContentRepository { return s.content }

// Processing returns the processing repository.
func (s *Store) Processing() catalog.ProcessingRepository { return s.processing }

// WithTx runs fn against a transaction-bound view of the store. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx catalog.Store) error) error {
	conn := s.db.Conn()
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(newStoreOn(s.db, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// WithSavepoint runs fn inside a named savepoint on this store's statement
// target. A failure rolls back to the savepoint and returns fn's error,
// leaving earlier work in the enclosing transaction intact. The name must be
// a plain identifier; it is interpolated into the SQL.
func (s *Store) WithSavepoint(ctx context.Context, name string, fn func() error) error {
	if _, err := s.q.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("creating savepoint %s: %w", name, err)
	}
	if err := fn(); err != nil {
		if _, rbErr := s.q.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			return fmt.Errorf("rollback to savepoint %s after %w: %v", name, err, rbErr)
		}
		if _, relErr := s.q.ExecContext(ctx, "RELEASE SAVEPOINT "+name); relErr != nil {
			return fmt.Errorf("releasing savepoint %s after %w: %v", name, err, relErr)
		}
		return err
	}
	if _, err := s.q.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("releasing savepoint %s: %w", name, err)
	}
	return nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
