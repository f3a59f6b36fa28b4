package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MemberRole string

const (
	RoleAdmin     MemberRole = "admin"
	RoleTreasurer MemberRole = "treasurer"
	RoleSecretary MemberRole = "secretary"
	RoleMember    MemberRole = "member"
)

type MemberStatus string

const (
	MemberActive    MemberStatus = "active"
	MemberInactive  MemberStatus = "inactive"
	MemberSuspended MemberStatus = "suspended"
)

// NextOfKin is the emergency contact recorded at registration.
type NextOfKin struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

// Member holds identity plus the two running aggregates. TotalContributions
// must equal the sum of this member's approved contributions, and
// TotalProfits the sum of their applied distribution entries; both are
// maintained incrementally by the ledger, never recomputed on read.
type Member struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	Email              string          `json:"email"`
	IDNumber           string          `json:"id_number"`
	Phone              string          `json:"phone"`
	Role               MemberRole      `json:"role"`
	Status             MemberStatus    `json:"status"`
	NextOfKin          NextOfKin       `json:"next_of_kin"`
	JoinDate           time.Time       `json:"join_date"`
	TotalContributions decimal.Decimal `json:"total_contributions"`
	TotalProfits       decimal.Decimal `json:"total_profits"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type PaymentMethod string

const (
	MethodMpesa PaymentMethod = "mpesa"
	MethodBank  PaymentMethod = "bank"
	MethodCash  PaymentMethod = "cash"
)

type ContributionStatus string

const (
	ContributionPending  ContributionStatus = "pending"
	ContributionApproved ContributionStatus = "approved"
	ContributionRejected ContributionStatus = "rejected"
)

// Contribution is a recorded inflow from a member. The amount is immutable
// after creation and the status only moves forward (pending to approved or
// pending to rejected, both terminal).
type Contribution struct {
	ID            uuid.UUID          `json:"id"`
	MemberID      uuid.UUID          `json:"member_id"`
	Amount        decimal.Decimal    `json:"amount"`
	Method        PaymentMethod      `json:"method"`
	TransactionID string             `json:"transaction_id"` // asserted by the caller, not verified here
	Month         string             `json:"month"`
	Year          int                `json:"year"`
	Status        ContributionStatus `json:"status"`
	ApprovedBy    *uuid.UUID         `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time         `json:"approved_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type LoanStatus string

const (
	LoanPending   LoanStatus = "pending"
	LoanApproved  LoanStatus = "approved"
	LoanActive    LoanStatus = "active"
	LoanCompleted LoanStatus = "completed"
	LoanDefaulted LoanStatus = "defaulted"
)

// Repayment is one entry in a loan's chronological repayment log.
type Repayment struct {
	ID            uuid.UUID       `json:"id"`
	LoanID        uuid.UUID       `json:"loan_id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Method        PaymentMethod   `json:"method"`
	TransactionID string          `json:"transaction_id"`
}

// Loan tracks a borrowing instrument. RemainingBalance is seeded to
// principal*(1+rate) at creation and decremented by every repayment;
// the stored value may go negative on overpayment.
type Loan struct {
	ID               uuid.UUID       `json:"id"`
	BorrowerID       uuid.UUID       `json:"borrower_id"`
	Amount           decimal.Decimal `json:"amount"`
	Purpose          string          `json:"purpose"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	DurationMonths   int             `json:"duration_months"`
	StartDate        time.Time       `json:"start_date"`
	DueDate          time.Time       `json:"due_date"`
	Status           LoanStatus      `json:"status"`
	ApprovedBy       *uuid.UUID      `json:"approved_by,omitempty"`
	Repayments       []Repayment     `json:"repayments"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	TotalRepaid      decimal.Decimal `json:"total_repaid"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TotalRepayable is the fixed amount owed over the life of the loan.
func (l *Loan) TotalRepayable() decimal.Decimal {
	return l.Amount.Mul(decimal.NewFromInt(1).Add(l.InterestRate))
}

// Outstanding reports the balance clamped at zero. The stored
// RemainingBalance keeps any overpayment; summaries use this.
func (l *Loan) Outstanding() decimal.Decimal {
	if l.RemainingBalance.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return l.RemainingBalance
}

// Open reports whether the loan accepts repayments.
func (l *Loan) Open() bool {
	return l.Status == LoanApproved || l.Status == LoanActive
}

// DistributionEntry is one member's share of a posted distribution.
// Applied flips once the member's TotalProfits credit has landed, so a
// failed fan-out can be resumed without double-crediting.
type DistributionEntry struct {
	ID                 uuid.UUID       `json:"id"`
	DistributionID     uuid.UUID       `json:"distribution_id"`
	MemberID           uuid.UUID       `json:"member_id"`
	Amount             decimal.Decimal `json:"amount"`
	SharePercentage    decimal.Decimal `json:"share_percentage"`
	Reinvested         bool            `json:"reinvested"`
	ReinvestmentAmount decimal.Decimal `json:"reinvestment_amount"`
	Applied            bool            `json:"applied"`
}

// ProfitDistribution is a one-time allocation of a profit total across
// members. Immutable after posting.
type ProfitDistribution struct {
	ID               uuid.UUID           `json:"id"`
	Period           string              `json:"period"`
	TotalProfit      decimal.Decimal     `json:"total_profit"`
	DistributionDate time.Time           `json:"distribution_date"`
	DistributedBy    uuid.UUID           `json:"distributed_by"`
	Notes            string              `json:"notes,omitempty"`
	Entries          []DistributionEntry `json:"entries"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

type InvestmentType string

const (
	InvestmentMMF          InvestmentType = "mmf"
	InvestmentAgribusiness InvestmentType = "agribusiness"
	InvestmentLivestock    InvestmentType = "livestock"
	InvestmentRealEstate   InvestmentType = "real_estate"
)

type InvestmentStatus string

const (
	InvestmentPlanning  InvestmentStatus = "planning"
	InvestmentActive    InvestmentStatus = "active"
	InvestmentCompleted InvestmentStatus = "completed"
	InvestmentPaused    InvestmentStatus = "paused"
)

type Participant struct {
	MemberID uuid.UUID       `json:"member_id"`
	Share    decimal.Decimal `json:"share"`
}

type Milestone struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Investment is a pooled asset. Status edits are free-form; it carries no
// state machine beyond that.
type Investment struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	Type           InvestmentType   `json:"type"`
	Description    string           `json:"description,omitempty"`
	Capital        decimal.Decimal  `json:"capital"`
	CurrentValue   decimal.Decimal  `json:"current_value"`
	ExpectedProfit decimal.Decimal  `json:"expected_profit"`
	ActualProfit   decimal.Decimal  `json:"actual_profit"`
	StartDate      time.Time        `json:"start_date"`
	EndDate        *time.Time       `json:"end_date,omitempty"`
	Status         InvestmentStatus `json:"status"`
	CreatedBy      uuid.UUID        `json:"created_by"`
	Participants   []Participant    `json:"participants"`
	Milestones     []Milestone      `json:"milestones"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
