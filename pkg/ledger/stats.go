package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/wemzee/chamaledger/pkg/models"
)

// recentLimit caps the "recent activity" lists on the dashboard.
const recentLimit = 5

// DashboardStats is the group-wide reporting projection. Sums are
// computed over the ledger rows with decimal arithmetic, not read from
// the cached member aggregates.
type DashboardStats struct {
	TotalMembers            int                    `json:"total_members"`
	TotalContributions      decimal.Decimal        `json:"total_contributions"`
	TotalInvestmentCapital  decimal.Decimal        `json:"total_investment_capital"`
	TotalInvestmentValue    decimal.Decimal        `json:"total_investment_value"`
	ActiveLoans             int                    `json:"active_loans"`
	TotalProfitsDistributed decimal.Decimal        `json:"total_profits_distributed"`
	RecentContributions     []*models.Contribution `json:"recent_contributions"`
	ActiveInvestments       []*models.Investment   `json:"active_investments"`
}

// GetDashboardStats scans the ledgers and aggregates on demand. Every
// sum tolerates zero matching records and comes back as zero.
func (l *Ledger) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{
		TotalContributions:      decimal.Zero,
		TotalInvestmentCapital:  decimal.Zero,
		TotalInvestmentValue:    decimal.Zero,
		TotalProfitsDistributed: decimal.Zero,
	}

	members, err := l.storage.CountMembersByStatus(models.MemberActive)
	if err != nil {
		return nil, err
	}
	stats.TotalMembers = members

	approved, err := l.storage.GetContributionsByStatus(models.ContributionApproved)
	if err != nil {
		return nil, err
	}
	for _, c := range approved {
		stats.TotalContributions = stats.TotalContributions.Add(c.Amount)
	}

	investments, err := l.storage.GetAllInvestments()
	if err != nil {
		return nil, err
	}
	for _, inv := range investments {
		stats.TotalInvestmentCapital = stats.TotalInvestmentCapital.Add(inv.Capital)
		stats.TotalInvestmentValue = stats.TotalInvestmentValue.Add(inv.CurrentValue)
	}

	loans, err := l.storage.GetAllLoans()
	if err != nil {
		return nil, err
	}
	for _, loan := range loans {
		if loan.Status == models.LoanActive {
			stats.ActiveLoans++
		}
	}

	distributions, err := l.storage.GetAllDistributions()
	if err != nil {
		return nil, err
	}
	for _, d := range distributions {
		stats.TotalProfitsDistributed = stats.TotalProfitsDistributed.Add(d.TotalProfit)
	}

	stats.RecentContributions, err = l.storage.GetRecentApprovedContributions(recentLimit)
	if err != nil {
		return nil, err
	}
	stats.ActiveInvestments, err = l.storage.GetActiveInvestments(recentLimit)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
