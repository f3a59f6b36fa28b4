package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wemzee/chamaledger/pkg/models"
)

func validInvestmentType(t models.InvestmentType) bool {
	switch t {
	case models.InvestmentMMF, models.InvestmentAgribusiness, models.InvestmentLivestock, models.InvestmentRealEstate:
		return true
	}
	return false
}

func validInvestmentStatus(s models.InvestmentStatus) bool {
	switch s {
	case models.InvestmentPlanning, models.InvestmentActive, models.InvestmentCompleted, models.InvestmentPaused:
		return true
	}
	return false
}

// NewInvestmentParams collects the fields supplied at creation.
type NewInvestmentParams struct {
	Name           string                `json:"name"`
	Type           models.InvestmentType `json:"type"`
	Description    string                `json:"description"`
	Capital        decimal.Decimal       `json:"capital"`
	ExpectedProfit decimal.Decimal       `json:"expected_profit"`
	StartDate      time.Time             `json:"start_date"`
	Participants   []models.Participant  `json:"participants"`
	Milestones     []models.Milestone    `json:"milestones"`
}

// CreateInvestment records a pooled asset in planning status.
func (l *Ledger) CreateInvestment(creatorID uuid.UUID, p NewInvestmentParams) (*models.Investment, error) {
	if p.Name == "" {
		return nil, errValidation("investment name is required")
	}
	if !validInvestmentType(p.Type) {
		return nil, errValidation("unknown investment type %q", p.Type)
	}
	if p.Capital.IsNegative() {
		return nil, errValidation("investment capital cannot be negative")
	}
	if _, err := l.storage.GetMember(creatorID); err != nil {
		return nil, notFound(err, "member", creatorID)
	}

	now := time.Now()
	start := p.StartDate
	if start.IsZero() {
		start = now
	}
	inv := &models.Investment{
		ID:             uuid.New(),
		Name:           p.Name,
		Type:           p.Type,
		Description:    p.Description,
		Capital:        p.Capital,
		CurrentValue:   p.Capital,
		ExpectedProfit: p.ExpectedProfit,
		ActualProfit:   decimal.Zero,
		StartDate:      start,
		Status:         models.InvestmentPlanning,
		CreatedBy:      creatorID,
		Participants:   p.Participants,
		Milestones:     p.Milestones,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := l.storage.CreateInvestment(inv); err != nil {
		return nil, fmt.Errorf("failed to store investment: %w", err)
	}
	return inv, nil
}

// UpdateInvestment applies free-form edits. There is no state machine
// here beyond the status enum check.
func (l *Ledger) UpdateInvestment(inv *models.Investment) (*models.Investment, error) {
	if !validInvestmentStatus(inv.Status) {
		return nil, errValidation("unknown investment status %q", inv.Status)
	}
	if inv.Capital.IsNegative() {
		return nil, errValidation("investment capital cannot be negative")
	}

	unlock := l.locks.lock("investment:" + inv.ID.String())
	defer unlock()

	if _, err := l.storage.GetInvestment(inv.ID); err != nil {
		return nil, notFound(err, "investment", inv.ID)
	}

	inv.UpdatedAt = time.Now()
	if err := l.storage.UpdateInvestment(inv); err != nil {
		return nil, fmt.Errorf("failed to update investment: %w", err)
	}
	return inv, nil
}

// GetInvestmentRecord returns one investment.
func (l *Ledger) GetInvestmentRecord(id uuid.UUID) (*models.Investment, error) {
	inv, err := l.storage.GetInvestment(id)
	if err != nil {
		return nil, notFound(err, "investment", id)
	}
	return inv, nil
}

// ListInvestments returns every investment, newest first.
func (l *Ledger) ListInvestments() ([]*models.Investment, error) {
	return l.storage.GetAllInvestments()
}

// InvestmentStats is the portfolio summary projection.
type InvestmentStats struct {
	TotalInvestments     int             `json:"total_investments"`
	TotalCapital         decimal.Decimal `json:"total_capital"`
	TotalCurrentValue    decimal.Decimal `json:"total_current_value"`
	ActiveInvestments    int             `json:"active_investments"`
	CompletedInvestments int             `json:"completed_investments"`
}

// GetInvestmentStats sums over all investments; an empty portfolio yields
// zeros.
func (l *Ledger) GetInvestmentStats() (*InvestmentStats, error) {
	investments, err := l.storage.GetAllInvestments()
	if err != nil {
		return nil, err
	}

	stats := &InvestmentStats{
		TotalCapital:      decimal.Zero,
		TotalCurrentValue: decimal.Zero,
	}
	for _, inv := range investments {
		stats.TotalInvestments++
		stats.TotalCapital = stats.TotalCapital.Add(inv.Capital)
		stats.TotalCurrentValue = stats.TotalCurrentValue.Add(inv.CurrentValue)
		switch inv.Status {
		case models.InvestmentActive:
			stats.ActiveInvestments++
		case models.InvestmentCompleted:
			stats.CompletedInvestments++
		}
	}
	return stats, nil
}
