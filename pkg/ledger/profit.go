package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wemzee/chamaledger/pkg/models"
	"go.uber.org/zap"
)

// DistributionEntryInput is one member's share as asserted by the poster.
// The sum of entry amounts should equal the distribution total; callers
// compute consistent shares and the ledger does not re-check the
// arithmetic at write time.
type DistributionEntryInput struct {
	MemberID           uuid.UUID       `json:"member_id"`
	Amount             decimal.Decimal `json:"amount"`
	SharePercentage    decimal.Decimal `json:"share_percentage"`
	Reinvested         bool            `json:"reinvested"`
	ReinvestmentAmount decimal.Decimal `json:"reinvestment_amount"`
}

// PostDistribution records a profit allocation and fans the shares out to
// the members' TotalProfits aggregates. The record is created first with
// every entry unapplied; entries are then credited independently, and a
// failed credit does not roll back the others. When any entry fails, the
// created distribution is returned together with the error so the caller
// can drive RetryDistribution. Posting is never idempotent: every call
// makes a new record.
func (l *Ledger) PostDistribution(posterID uuid.UUID, period string, totalProfit decimal.Decimal, distributionDate time.Time, notes string, entries []DistributionEntryInput) (*models.ProfitDistribution, error) {
	if period == "" {
		return nil, errValidation("distribution period is required")
	}
	if totalProfit.IsNegative() {
		return nil, errValidation("total profit cannot be negative")
	}
	if len(entries) == 0 {
		return nil, errValidation("distribution needs at least one entry")
	}
	for _, e := range entries {
		if e.Amount.IsNegative() {
			return nil, errValidation("entry amount for member %s cannot be negative", e.MemberID)
		}
		if _, err := l.storage.GetMember(e.MemberID); err != nil {
			return nil, notFound(err, "member", e.MemberID)
		}
	}

	now := time.Now()
	d := &models.ProfitDistribution{
		ID:               uuid.New(),
		Period:           period,
		TotalProfit:      totalProfit,
		DistributionDate: distributionDate,
		DistributedBy:    posterID,
		Notes:            notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, e := range entries {
		d.Entries = append(d.Entries, models.DistributionEntry{
			ID:                 uuid.New(),
			DistributionID:     d.ID,
			MemberID:           e.MemberID,
			Amount:             e.Amount,
			SharePercentage:    e.SharePercentage,
			Reinvested:         e.Reinvested,
			ReinvestmentAmount: e.ReinvestmentAmount,
		})
	}

	unlock := l.locks.lock("distribution:" + d.ID.String())
	defer unlock()

	if err := l.storage.CreateDistribution(d); err != nil {
		return nil, fmt.Errorf("failed to store distribution: %w", err)
	}

	return d, l.applyEntries(d)
}

// applyEntries credits every unapplied entry, flipping its persisted
// applied flag once the credit lands. Failures are logged, collected and
// returned; the remaining entries are still driven. Callers hold the
// distribution's lock, so two fan-outs over the same record never see
// the same entry unapplied.
func (l *Ledger) applyEntries(d *models.ProfitDistribution) error {
	var errs []error
	for i := range d.Entries {
		e := &d.Entries[i]
		if e.Applied {
			continue
		}
		if err := l.creditMember(e.MemberID, decimal.Zero, e.Amount); err != nil {
			l.log.Error("profit share credit failed",
				zap.String("distribution_id", d.ID.String()),
				zap.String("member_id", e.MemberID.String()),
				zap.Error(err))
			errs = append(errs, &AggregateUpdateError{MemberID: e.MemberID.String(), Err: err})
			continue
		}
		if err := l.storage.MarkEntryApplied(e.ID); err != nil {
			// the credit landed but the flag did not; a blind retry would
			// double-credit this member
			l.log.Error("applied flag not persisted after credit",
				zap.String("distribution_id", d.ID.String()),
				zap.String("entry_id", e.ID.String()),
				zap.Error(err))
			errs = append(errs, &AggregateUpdateError{MemberID: e.MemberID.String(), Err: err})
			continue
		}
		e.Applied = true
		l.emit(EventProfitDistributed, e.MemberID, d.ID, e.Amount)
	}
	return errors.Join(errs...)
}

// RetryDistribution re-drives only the entries of a posted distribution
// whose credits have not landed yet. The applied flags are read under
// the distribution's lock, so concurrent retries (or a retry racing the
// original post) cannot both credit the same entry.
func (l *Ledger) RetryDistribution(distributionID uuid.UUID) (*models.ProfitDistribution, error) {
	unlock := l.locks.lock("distribution:" + distributionID.String())
	defer unlock()

	d, err := l.storage.GetDistribution(distributionID)
	if err != nil {
		return nil, notFound(err, "distribution", distributionID)
	}
	return d, l.applyEntries(d)
}

// MyShare returns the entry for memberID inside the given distribution.
func (l *Ledger) MyShare(distributionID, memberID uuid.UUID) (*models.DistributionEntry, error) {
	d, err := l.storage.GetDistribution(distributionID)
	if err != nil {
		return nil, notFound(err, "distribution", distributionID)
	}
	for i := range d.Entries {
		if d.Entries[i].MemberID == memberID {
			return &d.Entries[i], nil
		}
	}
	return nil, &NotFoundError{Entity: "distribution entry for member", ID: memberID.String()}
}

// MemberDistribution is the per-member view of a posted distribution.
type MemberDistribution struct {
	ID               uuid.UUID                `json:"id"`
	Period           string                   `json:"period"`
	TotalProfit      decimal.Decimal          `json:"total_profit"`
	DistributionDate time.Time                `json:"distribution_date"`
	MyEntry          models.DistributionEntry `json:"my_entry"`
}

// MyDistributions lists the distributions that include memberID, reduced
// to that member's entry.
func (l *Ledger) MyDistributions(memberID uuid.UUID) ([]MemberDistribution, error) {
	distributions, err := l.storage.GetDistributionsByMember(memberID)
	if err != nil {
		return nil, err
	}

	out := make([]MemberDistribution, 0, len(distributions))
	for _, d := range distributions {
		for _, e := range d.Entries {
			if e.MemberID == memberID {
				out = append(out, MemberDistribution{
					ID:               d.ID,
					Period:           d.Period,
					TotalProfit:      d.TotalProfit,
					DistributionDate: d.DistributionDate,
					MyEntry:          e,
				})
				break
			}
		}
	}
	return out, nil
}

// AllDistributions lists every posted distribution, newest first.
func (l *Ledger) AllDistributions() ([]*models.ProfitDistribution, error) {
	return l.storage.GetAllDistributions()
}
