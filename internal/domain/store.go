package domain

import "context"

// UnitOfWork scopes all reads and writes of one operation to a single
// storage transaction. Commit and Rollback are mutually exclusive;
// Rollback after Commit is a no-op so callers can defer it.
type UnitOfWork interface {
	Accounts() AccountRepository
	Categories() CategoryRepository
	CategoryGroups() CategoryGroupRepository
	Transactions() TransactionRepository
	Allocations() AllocationRepository
	MonthStates() MonthStateRepository
	Reconciliations() ReconciliationRepository
	MarketData() MarketDataRepository

	Commit() error
	Rollback() error
}

// Store opens units of work. Writers are serialized: Begin blocks until
// the single writer slot is free.
type Store interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
