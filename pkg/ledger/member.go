package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wemzee/chamaledger/pkg/models"
)

func validRole(r models.MemberRole) bool {
	switch r {
	case models.RoleAdmin, models.RoleTreasurer, models.RoleSecretary, models.RoleMember:
		return true
	}
	return false
}

func validMemberStatus(s models.MemberStatus) bool {
	switch s {
	case models.MemberActive, models.MemberInactive, models.MemberSuspended:
		return true
	}
	return false
}

// RegisterMember creates an active member with zeroed aggregates. An
// empty role defaults to plain membership. Email and national id
// uniqueness is enforced by the store.
func (l *Ledger) RegisterMember(name, email, idNumber, phone string, role models.MemberRole, kin models.NextOfKin) (*models.Member, error) {
	if name == "" || email == "" || idNumber == "" || phone == "" {
		return nil, errValidation("name, email, id number and phone are all required")
	}
	if role == "" {
		role = models.RoleMember
	}
	if !validRole(role) {
		return nil, errValidation("unknown role %q", role)
	}

	now := time.Now()
	m := &models.Member{
		ID:                 uuid.New(),
		Name:               name,
		Email:              email,
		IDNumber:           idNumber,
		Phone:              phone,
		Role:               role,
		Status:             models.MemberActive,
		NextOfKin:          kin,
		JoinDate:           now,
		TotalContributions: decimal.Zero,
		TotalProfits:       decimal.Zero,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := l.storage.CreateMember(m); err != nil {
		return nil, fmt.Errorf("failed to store member: %w", err)
	}
	return m, nil
}

// GetMemberRecord returns one member.
func (l *Ledger) GetMemberRecord(memberID uuid.UUID) (*models.Member, error) {
	m, err := l.storage.GetMember(memberID)
	if err != nil {
		return nil, notFound(err, "member", memberID)
	}
	return m, nil
}

// ListMembers returns every member, oldest first.
func (l *Ledger) ListMembers() ([]*models.Member, error) {
	return l.storage.GetAllMembers()
}

// UpdateMemberProfile edits contact details. Aggregates and role are not
// touched here.
func (l *Ledger) UpdateMemberProfile(memberID uuid.UUID, name, phone string, kin models.NextOfKin) (*models.Member, error) {
	if name == "" || phone == "" {
		return nil, errValidation("name and phone are required")
	}

	unlock := l.locks.lock("member:" + memberID.String())
	defer unlock()

	m, err := l.storage.GetMember(memberID)
	if err != nil {
		return nil, notFound(err, "member", memberID)
	}

	m.Name = name
	m.Phone = phone
	m.NextOfKin = kin
	m.UpdatedAt = time.Now()

	if err := l.storage.UpdateMember(m); err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	return m, nil
}

// SetMemberStatus soft-retires or reinstates a member. Accounts are never
// deleted; a suspended or inactive member keeps their financial history.
func (l *Ledger) SetMemberStatus(memberID uuid.UUID, status models.MemberStatus) (*models.Member, error) {
	if !validMemberStatus(status) {
		return nil, errValidation("unknown member status %q", status)
	}

	unlock := l.locks.lock("member:" + memberID.String())
	defer unlock()

	m, err := l.storage.GetMember(memberID)
	if err != nil {
		return nil, notFound(err, "member", memberID)
	}

	m.Status = status
	m.UpdatedAt = time.Now()

	if err := l.storage.UpdateMember(m); err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	return m, nil
}

// MemberStats is the per-member reporting projection.
type MemberStats struct {
	TotalContributions decimal.Decimal `json:"total_contributions"`
	ActiveLoans        int             `json:"active_loans"`
	TotalLoans         int             `json:"total_loans"`
}

// GetMemberStats recomputes a member's approved-contribution total from
// the underlying rows (not the cached aggregate) and counts their loans.
// Zero matching records produce zeros, never an error.
func (l *Ledger) GetMemberStats(memberID uuid.UUID) (*MemberStats, error) {
	if _, err := l.storage.GetMember(memberID); err != nil {
		return nil, notFound(err, "member", memberID)
	}

	contributions, err := l.storage.GetContributionsByMember(memberID)
	if err != nil {
		return nil, err
	}
	loans, err := l.storage.GetLoansByBorrower(memberID)
	if err != nil {
		return nil, err
	}

	stats := &MemberStats{TotalContributions: decimal.Zero}
	for _, c := range contributions {
		if c.Status == models.ContributionApproved {
			stats.TotalContributions = stats.TotalContributions.Add(c.Amount)
		}
	}
	for _, loan := range loans {
		stats.TotalLoans++
		if loan.Status == models.LoanActive {
			stats.ActiveLoans++
		}
	}
	return stats, nil
}
