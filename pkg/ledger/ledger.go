// Package ledger implements the financial core of the group: member
// accounts with running aggregates, the contribution and loan lifecycles,
// profit distribution fan-out, and the reporting projections. Each
// exported operation is one unit of work: it validates input, mutates
// exactly one primary record (plus member aggregates where the operation
// calls for it), and returns the updated record.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wemzee/chamaledger/pkg/store"
	"go.uber.org/zap"
)

// Ledger handles the business logic for members, contributions, loans,
// profit distributions and investments.
type Ledger struct {
	storage  store.Storage
	notifier Notifier
	log      *zap.Logger
	locks    *keyedLocks
}

// NewLedger creates a Ledger over the given Storage. A nil notifier
// discards events; a nil logger is replaced with a no-op logger.
func NewLedger(s store.Storage, n Notifier, log *zap.Logger) *Ledger {
	if n == nil {
		n = NopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		storage:  s,
		notifier: n,
		log:      log,
		locks:    newKeyedLocks(),
	}
}

func (l *Ledger) emit(kind EventKind, memberID, ref uuid.UUID, amount decimal.Decimal) {
	l.notifier.Publish(Event{
		Kind:       kind,
		MemberID:   memberID,
		Ref:        ref,
		Amount:     amount,
		OccurredAt: time.Now(),
	})
}

// notFound translates the storage sentinel into the domain error carrying
// the entity name and id; other storage errors pass through.
func notFound(err error, entity string, id uuid.UUID) error {
	if err == store.ErrNotFound {
		return &NotFoundError{Entity: entity, ID: id.String()}
	}
	return err
}

// creditMember is the single path through which member aggregates change.
// Every approval and posting operation funnels here so the derivability
// invariant (totals = sum of underlying approved/applied rows) is
// enforced in one place. Runs under the member's lock.
func (l *Ledger) creditMember(memberID uuid.UUID, contributionDelta, profitDelta decimal.Decimal) error {
	unlock := l.locks.lock("member:" + memberID.String())
	defer unlock()

	m, err := l.storage.GetMember(memberID)
	if err != nil {
		return notFound(err, "member", memberID)
	}

	m.TotalContributions = m.TotalContributions.Add(contributionDelta)
	m.TotalProfits = m.TotalProfits.Add(profitDelta)
	m.UpdatedAt = time.Now()

	return l.storage.UpdateMember(m)
}
