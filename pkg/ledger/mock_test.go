package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/wemzee/chamaledger/pkg/models"
	"github.com/wemzee/chamaledger/pkg/store"
)

// MockStore is an in-memory implementation of the Storage interface for
// testing. failMemberUpdate makes UpdateMember fail for the given ids, to
// exercise the aggregate-failure paths.
type MockStore struct {
	mu               sync.Mutex
	members          map[uuid.UUID]*models.Member
	contributions    map[uuid.UUID]*models.Contribution
	loans            map[uuid.UUID]*models.Loan
	repayments       []*models.Repayment
	distributions    map[uuid.UUID]*models.ProfitDistribution
	investments      map[uuid.UUID]*models.Investment
	failMemberUpdate map[uuid.UUID]bool
	failRepayments   bool
}

func NewMockStore() *MockStore {
	return &MockStore{
		members:          make(map[uuid.UUID]*models.Member),
		contributions:    make(map[uuid.UUID]*models.Contribution),
		loans:            make(map[uuid.UUID]*models.Loan),
		distributions:    make(map[uuid.UUID]*models.ProfitDistribution),
		investments:      make(map[uuid.UUID]*models.Investment),
		failMemberUpdate: make(map[uuid.UUID]bool),
	}
}

func (m *MockStore) CreateMember(mm *models.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.members {
		if existing.Email == mm.Email || existing.IDNumber == mm.IDNumber {
			return fmt.Errorf("UNIQUE constraint failed")
		}
	}
	cp := *mm
	m.members[mm.ID] = &cp
	return nil
}

func (m *MockStore) GetMember(id uuid.UUID) (*models.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mm, ok := m.members[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *mm
	return &cp, nil
}

func (m *MockStore) UpdateMember(mm *models.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMemberUpdate[mm.ID] {
		return fmt.Errorf("simulated member update failure")
	}
	if _, ok := m.members[mm.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *mm
	m.members[mm.ID] = &cp
	return nil
}

func (m *MockStore) GetAllMembers() ([]*models.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Member
	for _, mm := range m.members {
		cp := *mm
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockStore) CountMembersByStatus(status models.MemberStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, mm := range m.members {
		if mm.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *MockStore) CreateContribution(c *models.Contribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.contributions[c.ID] = &cp
	return nil
}

func (m *MockStore) GetContribution(id uuid.UUID) (*models.Contribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contributions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockStore) UpdateContribution(c *models.Contribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contributions[c.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *c
	m.contributions[c.ID] = &cp
	return nil
}

func (m *MockStore) contributionList(filter func(*models.Contribution) bool) []*models.Contribution {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Contribution
	for _, c := range m.contributions {
		if filter == nil || filter(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MockStore) GetContributionsByMember(memberID uuid.UUID) ([]*models.Contribution, error) {
	return m.contributionList(func(c *models.Contribution) bool { return c.MemberID == memberID }), nil
}

func (m *MockStore) GetAllContributions() ([]*models.Contribution, error) {
	return m.contributionList(nil), nil
}

func (m *MockStore) GetContributionsByStatus(status models.ContributionStatus) ([]*models.Contribution, error) {
	return m.contributionList(func(c *models.Contribution) bool { return c.Status == status }), nil
}

func (m *MockStore) GetRecentApprovedContributions(limit int) ([]*models.Contribution, error) {
	approved := m.contributionList(func(c *models.Contribution) bool { return c.Status == models.ContributionApproved })
	if len(approved) > limit {
		approved = approved[:limit]
	}
	return approved, nil
}

func (m *MockStore) CreateLoan(l *models.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.loans[l.ID] = &cp
	return nil
}

func (m *MockStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loans[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *l
	cp.Repayments = nil
	for _, r := range m.repayments {
		if r.LoanID == id {
			cp.Repayments = append(cp.Repayments, *r)
		}
	}
	return &cp, nil
}

func (m *MockStore) UpdateLoan(l *models.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.loans[l.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *l
	cp.Repayments = nil
	m.loans[l.ID] = &cp
	return nil
}

func (m *MockStore) GetLoansByBorrower(borrowerID uuid.UUID) ([]*models.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Loan
	for _, l := range m.loans {
		if l.BorrowerID == borrowerID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockStore) GetAllLoans() ([]*models.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Loan
	for _, l := range m.loans {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockStore) CreateRepayment(r *models.Repayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRepayments {
		return fmt.Errorf("simulated repayment insert failure")
	}
	cp := *r
	m.repayments = append(m.repayments, &cp)
	return nil
}

func (m *MockStore) GetRepaymentsForLoan(loanID uuid.UUID) ([]*models.Repayment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Repayment
	for _, r := range m.repayments {
		if r.LoanID == loanID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockStore) CreateDistribution(d *models.ProfitDistribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	cp.Entries = append([]models.DistributionEntry(nil), d.Entries...)
	m.distributions[d.ID] = &cp
	return nil
}

func (m *MockStore) GetDistribution(id uuid.UUID) (*models.ProfitDistribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.distributions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *d
	cp.Entries = append([]models.DistributionEntry(nil), d.Entries...)
	return &cp, nil
}

func (m *MockStore) GetAllDistributions() ([]*models.ProfitDistribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ProfitDistribution
	for _, d := range m.distributions {
		cp := *d
		cp.Entries = append([]models.DistributionEntry(nil), d.Entries...)
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockStore) GetDistributionsByMember(memberID uuid.UUID) ([]*models.ProfitDistribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ProfitDistribution
	for _, d := range m.distributions {
		for _, e := range d.Entries {
			if e.MemberID == memberID {
				cp := *d
				cp.Entries = append([]models.DistributionEntry(nil), d.Entries...)
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (m *MockStore) MarkEntryApplied(entryID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.distributions {
		for i := range d.Entries {
			if d.Entries[i].ID == entryID {
				d.Entries[i].Applied = true
				return nil
			}
		}
	}
	return store.ErrNotFound
}

func (m *MockStore) CreateInvestment(inv *models.Investment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *inv
	m.investments[inv.ID] = &cp
	return nil
}

func (m *MockStore) GetInvestment(id uuid.UUID) (*models.Investment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.investments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *MockStore) UpdateInvestment(inv *models.Investment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.investments[inv.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *inv
	m.investments[inv.ID] = &cp
	return nil
}

func (m *MockStore) GetAllInvestments() ([]*models.Investment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Investment
	for _, inv := range m.investments {
		cp := *inv
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockStore) GetActiveInvestments(limit int) ([]*models.Investment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Investment
	for _, inv := range m.investments {
		if inv.Status == models.InvestmentActive && len(out) < limit {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockStore) Close() error { return nil }
