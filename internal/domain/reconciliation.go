package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reconciliation is an append-only checkpoint asserting that the
// account's cleared balance equalled the statement balance at commit time.
// CreatedAt and RecordedSeq together form the stamp later worksheets
// compare versions against; the sequence disambiguates writes that share
// a timestamp.
type Reconciliation struct {
	ID                    uuid.UUID  `json:"id"`
	AccountID             string     `json:"accountId"`
	CreatedAt             time.Time  `json:"createdAt"`
	RecordedSeq           int64      `json:"-"`
	StatementDate         time.Time  `json:"statementDate"`
	StatementBalanceMinor int64      `json:"statementBalanceMinor"`
	PreviousID            *uuid.UUID `json:"previousReconciliationId,omitempty"`
}

// Stamp returns the checkpoint's ordering key.
func (r *Reconciliation) Stamp() Stamp {
	return Stamp{RecordedAt: r.CreatedAt, RecordedSeq: r.RecordedSeq}
}

// ReconciliationWorksheet is the pre-commit view: transactions still
// pending or touched since the last checkpoint, the cleared total as of
// the statement date, and the remaining difference.
type ReconciliationWorksheet struct {
	AccountID             string         `json:"accountId"`
	StatementDate         time.Time      `json:"statementDate"`
	StatementBalanceMinor int64          `json:"statementBalanceMinor"`
	ClearedTotalMinor     int64          `json:"clearedTotalMinor"`
	DifferenceMinor       int64          `json:"differenceMinor"`
	Pending               []*Transaction `json:"pending"`
	// Drift lists active versions recorded after the last checkpoint but
	// dated inside the reconciled period. Surfaced, never auto-corrected.
	Drift []*Transaction `json:"drift"`
}

// ReconciliationRepository persists checkpoints. Rows are immutable.
type ReconciliationRepository interface {
	Insert(r *Reconciliation) error
	Latest(accountID string) (*Reconciliation, error)
	ListByAccount(accountID string) ([]*Reconciliation, error)
}
