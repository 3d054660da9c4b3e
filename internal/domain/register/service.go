package register

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-till-service/internal/domain/tender"
)

// tenderTolerance is the maximum aggregate difference, in minor units,
// allowed between a tender split's sum and the sale's grand total.
var tenderTolerance = decimal.New(1, -2)

// Sale is a completed sale posted into a session: the finalized grand total
// from the pricing engine plus the tender breakdown.
type Sale struct {
	ID         string
	SessionID  string
	GrandTotal decimal.Decimal
	Tenders    tender.Split
	CreatedAt  time.Time
}

// Repository defines persistence operations for register sessions. The
// in-memory session is the source of truth during a shift; the repository
// records the outbound facts (session opened, sale posted, close report).
type Repository interface {
	CreateSession(ctx context.Context, snap Snapshot) error
	RecordSale(ctx context.Context, sale Sale) error
	CloseSession(ctx context.Context, report CloseReport) error
}

// Service manages the active register sessions, one per physical till.
// Sessions are fully independent; the service-level lock guards only the
// session map, while each session's own lock serializes PostSale and Close
// against concurrent callers.
type Service struct {
	repo Repository
	now  func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates a register Service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Open starts a new session with the given opening float. The float must be
// non-negative.
func (s *Service) Open(ctx context.Context, openingFloat decimal.Decimal) (Snapshot, error) {
	if openingFloat.IsNegative() {
		return Snapshot{}, errors.Wrapf(ErrNegativeOpeningFloat, "got %s", openingFloat)
	}

	sess := &Session{
		id:           uuid.New().String(),
		openingFloat: openingFloat,
		openedAt:     s.now(),
		status:       StatusOpen,
		tenderTotals: make(tender.Split),
	}
	snap := sess.snapshotLocked()

	if err := s.repo.CreateSession(ctx, snap); err != nil {
		return Snapshot{}, errors.Wrap(err, "create session")
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	return snap, nil
}

// PostSale posts a completed sale into the session. The tender split must
// sum to the grand total within the rounding tolerance. The call is atomic:
// on any failure the session's totals and transaction count are unchanged.
func (s *Service) PostSale(ctx context.Context, sessionID string, grandTotal decimal.Decimal, split tender.Split) (Sale, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return Sale{}, err
	}

	if err := split.Validate(); err != nil {
		return Sale{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.status == StatusClosed {
		return Sale{}, ErrSessionClosed
	}

	tendered := split.Total()
	if tendered.Sub(grandTotal).Abs().GreaterThan(tenderTolerance) {
		return Sale{}, &TenderMismatchError{GrandTotal: grandTotal, Tendered: tendered}
	}

	sale := Sale{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		GrandTotal: grandTotal,
		Tenders:    split.Clone(),
		CreatedAt:  s.now(),
	}
	if err := s.repo.RecordSale(ctx, sale); err != nil {
		return Sale{}, errors.Wrap(err, "record sale")
	}

	for method, amount := range split {
		sess.tenderTotals[method] = sess.tenderTotals[method].Add(amount)
	}
	sess.txCount++

	return sale, nil
}

// ExpectedCash returns openingFloat + accumulated cash tenders. Callable at
// any time, including after close.
func (s *Service) ExpectedCash(sessionID string) (decimal.Decimal, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return decimal.Zero, err
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()

	return sess.expectedCashLocked(), nil
}

// Snapshot returns a consistent view of the session.
func (s *Service) Snapshot(sessionID string) (Snapshot, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return Snapshot{}, err
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()

	return sess.snapshotLocked(), nil
}

// Close transitions the session to its terminal closed state and produces
// the close-out report. A second Close fails with ErrAlreadyClosed and the
// already-produced report is not altered.
func (s *Service) Close(ctx context.Context, sessionID string, countedCash decimal.Decimal) (CloseReport, error) {
	sess, err := s.get(sessionID)
	if err != nil {
		return CloseReport{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.status == StatusClosed {
		return CloseReport{}, ErrAlreadyClosed
	}

	expected := sess.expectedCashLocked()
	closedAt := s.now()

	totalSales := decimal.Zero
	for _, amount := range sess.tenderTotals {
		totalSales = totalSales.Add(amount)
	}

	report := CloseReport{
		SessionID:        sess.id,
		OpenedAt:         sess.openedAt,
		ClosedAt:         closedAt,
		ExpectedCash:     expected,
		CountedCash:      countedCash,
		Variance:         countedCash.Sub(expected),
		TotalSales:       totalSales,
		TenderTotals:     sess.tenderTotals.Clone(),
		TransactionCount: sess.txCount,
	}

	if err := s.repo.CloseSession(ctx, report); err != nil {
		return CloseReport{}, errors.Wrap(err, "close session")
	}

	sess.status = StatusClosed
	sess.closedAt = &closedAt

	return report, nil
}

func (s *Service) get(sessionID string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, &NotFoundError{SessionID: sessionID}
	}
	return sess, nil
}
