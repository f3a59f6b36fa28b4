package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wemzee/chamaledger/pkg/models"
	"go.uber.org/zap"
)

func validMethod(m models.PaymentMethod) bool {
	switch m {
	case models.MethodMpesa, models.MethodBank, models.MethodCash:
		return true
	}
	return false
}

// SubmitContribution records a pending inflow stamped with the current
// calendar month and year. No aggregate is touched until approval.
func (l *Ledger) SubmitContribution(memberID uuid.UUID, amount decimal.Decimal, method models.PaymentMethod, transactionID string) (*models.Contribution, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errValidation("contribution amount must be greater than zero")
	}
	if !validMethod(method) {
		return nil, errValidation("unknown payment method %q", method)
	}
	if transactionID == "" {
		return nil, errValidation("transaction id is required")
	}
	if _, err := l.storage.GetMember(memberID); err != nil {
		return nil, notFound(err, "member", memberID)
	}

	now := time.Now()
	c := &models.Contribution{
		ID:            uuid.New(),
		MemberID:      memberID,
		Amount:        amount,
		Method:        method,
		TransactionID: transactionID,
		Month:         now.Month().String(),
		Year:          now.Year(),
		Status:        models.ContributionPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := l.storage.CreateContribution(c); err != nil {
		return nil, fmt.Errorf("failed to store contribution: %w", err)
	}
	return c, nil
}

// ApproveContribution moves a pending contribution to approved and credits
// the owner's TotalContributions by its amount. The credit is applied
// before the state flip; if the flip then fails the credit is compensated,
// so an approved contribution is never left without its aggregate update.
func (l *Ledger) ApproveContribution(contributionID, approverID uuid.UUID) (*models.Contribution, error) {
	unlock := l.locks.lock("contribution:" + contributionID.String())
	defer unlock()

	c, err := l.storage.GetContribution(contributionID)
	if err != nil {
		return nil, notFound(err, "contribution", contributionID)
	}
	if c.Status != models.ContributionPending {
		return nil, &InvalidStateError{Entity: "contribution", ID: c.ID.String(), State: string(c.Status), Op: "approve"}
	}

	if err := l.creditMember(c.MemberID, c.Amount, decimal.Zero); err != nil {
		return nil, err
	}

	now := time.Now()
	c.Status = models.ContributionApproved
	c.ApprovedBy = &approverID
	c.ApprovedAt = &now
	c.UpdatedAt = now

	if err := l.storage.UpdateContribution(c); err != nil {
		if derr := l.creditMember(c.MemberID, c.Amount.Neg(), decimal.Zero); derr != nil {
			aggErr := &AggregateUpdateError{MemberID: c.MemberID.String(), Err: derr}
			l.log.Error("compensating debit failed, member totals drifted",
				zap.String("contribution_id", c.ID.String()),
				zap.String("member_id", c.MemberID.String()),
				zap.Error(derr))
			return nil, aggErr
		}
		return nil, fmt.Errorf("failed to update contribution: %w", err)
	}

	l.emit(EventContributionApproved, c.MemberID, c.ID, c.Amount)
	return c, nil
}

// RejectContribution moves a pending contribution to rejected. Terminal;
// no aggregate effect.
func (l *Ledger) RejectContribution(contributionID, approverID uuid.UUID) (*models.Contribution, error) {
	unlock := l.locks.lock("contribution:" + contributionID.String())
	defer unlock()

	c, err := l.storage.GetContribution(contributionID)
	if err != nil {
		return nil, notFound(err, "contribution", contributionID)
	}
	if c.Status != models.ContributionPending {
		return nil, &InvalidStateError{Entity: "contribution", ID: c.ID.String(), State: string(c.Status), Op: "reject"}
	}

	now := time.Now()
	c.Status = models.ContributionRejected
	c.ApprovedBy = &approverID
	c.ApprovedAt = &now
	c.UpdatedAt = now

	if err := l.storage.UpdateContribution(c); err != nil {
		return nil, fmt.Errorf("failed to update contribution: %w", err)
	}

	l.emit(EventContributionRejected, c.MemberID, c.ID, c.Amount)
	return c, nil
}

// MyContributions lists a member's contributions, newest first.
func (l *Ledger) MyContributions(memberID uuid.UUID) ([]*models.Contribution, error) {
	return l.storage.GetContributionsByMember(memberID)
}

// AllContributions lists every contribution, newest first.
func (l *Ledger) AllContributions() ([]*models.Contribution, error) {
	return l.storage.GetAllContributions()
}
