package store

import (
	"github.com/google/uuid"
	"github.com/wemzee/chamaledger/pkg/models"
)

// ErrNotFound is returned for lookups and updates that match no row.
// The ledger layer translates it into its own typed error.
var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "record not found" }

// Storage defines the database operations the ledger depends on.
// List queries return loans without their repayment logs; GetLoan loads
// the full log.
type Storage interface {
	CreateMember(m *models.Member) error
	GetMember(id uuid.UUID) (*models.Member, error)
	UpdateMember(m *models.Member) error
	GetAllMembers() ([]*models.Member, error)
	CountMembersByStatus(status models.MemberStatus) (int, error)

	CreateContribution(c *models.Contribution) error
	GetContribution(id uuid.UUID) (*models.Contribution, error)
	UpdateContribution(c *models.Contribution) error
	GetContributionsByMember(memberID uuid.UUID) ([]*models.Contribution, error)
	GetAllContributions() ([]*models.Contribution, error)
	GetContributionsByStatus(status models.ContributionStatus) ([]*models.Contribution, error)
	GetRecentApprovedContributions(limit int) ([]*models.Contribution, error)

	CreateLoan(l *models.Loan) error
	GetLoan(id uuid.UUID) (*models.Loan, error)
	UpdateLoan(l *models.Loan) error
	GetLoansByBorrower(borrowerID uuid.UUID) ([]*models.Loan, error)
	GetAllLoans() ([]*models.Loan, error)
	CreateRepayment(r *models.Repayment) error
	GetRepaymentsForLoan(loanID uuid.UUID) ([]*models.Repayment, error)

	CreateDistribution(d *models.ProfitDistribution) error
	GetDistribution(id uuid.UUID) (*models.ProfitDistribution, error)
	GetAllDistributions() ([]*models.ProfitDistribution, error)
	GetDistributionsByMember(memberID uuid.UUID) ([]*models.ProfitDistribution, error)
	MarkEntryApplied(entryID uuid.UUID) error

	CreateInvestment(inv *models.Investment) error
	GetInvestment(id uuid.UUID) (*models.Investment, error)
	UpdateInvestment(inv *models.Investment) error
	GetAllInvestments() ([]*models.Investment, error)
	GetActiveInvestments(limit int) ([]*models.Investment, error)

	Close() error
}
