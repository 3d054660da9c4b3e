// Package register implements the cash-register shift lifecycle: opening a
// session with a float, accumulating tendered sales, and closing with a
// counted-cash variance report.
package register

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-till-service/internal/domain/tender"
)

// Status is the session lifecycle state. The state machine is strictly
// open -> closed; closed is terminal.
type Status uint8

const (
	StatusOpen Status = iota
	StatusClosed
)

// String returns the wire representation of the status. The switch is
// exhaustive over the closed set of states; an unknown value is a
// programming error and is reported as such rather than defaulted.
func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	}
	return fmt.Sprintf("register.Status(%d)", uint8(s))
}

// Sentinel errors for session lifecycle violations.
var (
	ErrNegativeOpeningFloat = errors.New("opening float must not be negative")
	ErrAlreadyClosed        = errors.New("register session already closed")
	ErrSessionClosed        = errors.New("register session is closed")
)

// NotFoundError indicates an operation against an unknown session id.
type NotFoundError struct {
	SessionID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("register session %s not found", e.SessionID)
}

// TenderMismatchError indicates a tender split whose sum differs from the
// sale's grand total by more than the rounding tolerance.
type TenderMismatchError struct {
	GrandTotal decimal.Decimal
	Tendered   decimal.Decimal
}

func (e *TenderMismatchError) Error() string {
	return fmt.Sprintf("tender split sums to %s, sale total is %s", e.Tendered, e.GrandTotal)
}

// Session is one open-to-close lifecycle of a physical till. All mutations
// and reads go through the session's lock: PostSale and Close serialize
// against each other, and snapshot reads never observe a partial update.
type Session struct {
	id           string
	openingFloat decimal.Decimal
	openedAt     time.Time

	mu           sync.RWMutex
	status       Status
	closedAt     *time.Time
	tenderTotals tender.Split
	txCount      int
}

// Snapshot is a consistent read-only view of a session, used for the live
// "current amount" display and as the close-time baseline.
type Snapshot struct {
	ID               string
	Status           Status
	OpeningFloat     decimal.Decimal
	OpenedAt         time.Time
	ClosedAt         *time.Time
	TenderTotals     tender.Split
	TransactionCount int
	ExpectedCash     decimal.Decimal
}

// CloseReport is the end-of-shift reconciliation produced exactly once when
// a session closes. Variance = countedCash - expectedCash.
type CloseReport struct {
	SessionID        string
	OpenedAt         time.Time
	ClosedAt         time.Time
	ExpectedCash     decimal.Decimal
	CountedCash      decimal.Decimal
	Variance         decimal.Decimal
	TotalSales       decimal.Decimal
	TenderTotals     tender.Split
	TransactionCount int
}

// expectedCashLocked computes openingFloat + tenderTotals[cash].
// Callers must hold at least the read lock.
func (s *Session) expectedCashLocked() decimal.Decimal {
	return s.openingFloat.Add(s.tenderTotals[tender.MethodCash])
}

// snapshotLocked copies the session state. Callers must hold at least the
// read lock.
func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:               s.id,
		Status:           s.status,
		OpeningFloat:     s.openingFloat,
		OpenedAt:         s.openedAt,
		ClosedAt:         s.closedAt,
		TenderTotals:     s.tenderTotals.Clone(),
		TransactionCount: s.txCount,
		ExpectedCash:     s.expectedCashLocked(),
	}
}
