// Package duckdb implements the storage gateway over an embedded DuckDB
// file. The engine assumes a single process opens the store; writers are
// serialized through a single connection guarded by a mutex.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog/log"

	"github.com/dojofin/dojo-backend/internal/domain"
)

// Store owns the DuckDB database and hands out units of work.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if necessary) the store file at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// One connection: DuckDB allows one writer per database, and the
	// unit-of-work model serializes on it anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	log.Info().Str("path", path).Msg("Opened ledger store")
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin acquires the writer slot and starts a unit of work.
func (s *Store) Begin(ctx context.Context) (domain.UnitOfWork, error) {
	s.mu.Lock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: begin: %v", domain.ErrStorage, err)
	}
	return &unitOfWork{ctx: ctx, tx: tx, store: s}, nil
}

// unitOfWork wraps one sql.Tx. Repositories share its transaction so
// reads inside a unit see the unit's prior writes.
type unitOfWork struct {
	ctx   context.Context
	tx    *sql.Tx
	store *Store
	done  bool
}

func (u *unitOfWork) Commit() error {
	if u.done {
		return nil
	}
	u.done = true
	defer u.store.mu.Unlock()
	if err := u.tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrStorage, err)
	}
	return nil
}

func (u *unitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	defer u.store.mu.Unlock()
	if err := u.tx.Rollback(); err != nil {
		return fmt.Errorf("%w: rollback: %v", domain.ErrStorage, err)
	}
	return nil
}

func (u *unitOfWork) Accounts() domain.AccountRepository {
	return &AccountRepository{ctx: u.ctx, tx: u.tx}
}

func (u *unitOfWork) Categories() domain.CategoryRepository {
	return &CategoryRepository{ctx: u.ctx, tx: u.tx}
}

func (u *unitOfWork) CategoryGroups() domain.CategoryGroupRepository {
	return &CategoryGroupRepository{ctx: u.ctx, tx: u.tx}
}

func (u *unitOfWork) Transactions() domain.TransactionRepository {
	return &TransactionRepository{ctx: u.ctx, tx: u.tx}
}

func (u *unitOfWork) Allocations() domain.AllocationRepository {
	return &AllocationRepository{ctx: u.ctx, tx: u.tx}
}

func (u *unitOfWork) MonthStates() domain.MonthStateRepository {
	return &MonthStateRepository{ctx: u.ctx, tx: u.tx}
}

func (u *unitOfWork) Reconciliations() domain.ReconciliationRepository {
	return &ReconciliationRepository{ctx: u.ctx, tx: u.tx}
}

func (u *unitOfWork) MarketData() domain.MarketDataRepository {
	return &MarketDataRepository{ctx: u.ctx, tx: u.tx}
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStorage, op, err)
}
