package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type EventKind string

const (
	EventContributionApproved EventKind = "contribution.approved"
	EventContributionRejected EventKind = "contribution.rejected"
	EventLoanApproved         EventKind = "loan.approved"
	EventLoanRepaid           EventKind = "loan.repaid"
	EventLoanCompleted        EventKind = "loan.completed"
	EventLoanDefaulted        EventKind = "loan.defaulted"
	EventProfitDistributed    EventKind = "profit.distributed"
)

// Event is emitted after a successful state transition. Ref is the id of
// the record the transition happened on.
type Event struct {
	Kind       EventKind       `json:"kind"`
	MemberID   uuid.UUID       `json:"member_id"`
	Ref        uuid.UUID       `json:"ref"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Notifier receives domain events for downstream delivery (email, SMS).
// Implementations must not block; the ledger never waits on delivery and
// a delivery failure never fails the originating operation.
type Notifier interface {
	Publish(e Event)
}

// NopNotifier discards events.
type NopNotifier struct{}

func (NopNotifier) Publish(Event) {}

// LogNotifier writes events to the log. Stands in for the real
// email/SMS collaborator.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Publish(e Event) {
	n.log.Info("domain event",
		zap.String("kind", string(e.Kind)),
		zap.String("member_id", e.MemberID.String()),
		zap.String("ref", e.Ref.String()),
		zap.String("amount", e.Amount.StringFixed(2)),
		zap.Time("occurred_at", e.OccurredAt),
	)
}
