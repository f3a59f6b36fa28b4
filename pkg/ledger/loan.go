package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wemzee/chamaledger/pkg/models"
	"go.uber.org/zap"
)

var (
	one = decimal.NewFromInt(1)

	// defaultInterestRate applies when a loan is requested without a rate.
	defaultInterestRate = decimal.NewFromFloat(0.08)
)

// ApplyForLoan creates a pending loan. The full repayable amount is fixed
// here: remaining balance starts at principal*(1+rate) and only
// repayments move it. A zero rate means "use the default"; 0% loans are
// not a thing in this group.
func (l *Ledger) ApplyForLoan(borrowerID uuid.UUID, amount decimal.Decimal, purpose string, durationMonths int, interestRate decimal.Decimal) (*models.Loan, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errValidation("loan amount must be greater than zero")
	}
	if durationMonths <= 0 {
		return nil, errValidation("loan duration must be at least one month")
	}
	if interestRate.IsNegative() {
		return nil, errValidation("interest rate cannot be negative")
	}
	if interestRate.IsZero() {
		interestRate = defaultInterestRate
	}
	if _, err := l.storage.GetMember(borrowerID); err != nil {
		return nil, notFound(err, "member", borrowerID)
	}

	now := time.Now()
	loan := &models.Loan{
		ID:               uuid.New(),
		BorrowerID:       borrowerID,
		Amount:           amount,
		Purpose:          purpose,
		InterestRate:     interestRate,
		DurationMonths:   durationMonths,
		StartDate:        now,
		DueDate:          now.AddDate(0, durationMonths, 0),
		Status:           models.LoanPending,
		RemainingBalance: amount.Mul(one.Add(interestRate)),
		TotalRepaid:      decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := l.storage.CreateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to store loan: %w", err)
	}
	return loan, nil
}

// ApproveLoan moves a pending loan to approved and records the approver.
// The loan becomes active on its first repayment.
func (l *Ledger) ApproveLoan(loanID, approverID uuid.UUID) (*models.Loan, error) {
	unlock := l.locks.lock("loan:" + loanID.String())
	defer unlock()

	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, notFound(err, "loan", loanID)
	}
	if loan.Status != models.LoanPending {
		return nil, &InvalidStateError{Entity: "loan", ID: loan.ID.String(), State: string(loan.Status), Op: "approve"}
	}

	loan.Status = models.LoanApproved
	loan.ApprovedBy = &approverID
	loan.UpdatedAt = time.Now()

	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to update loan: %w", err)
	}

	l.emit(EventLoanApproved, loan.BorrowerID, loan.ID, loan.Amount)
	return loan, nil
}

// RepayLoan appends a repayment entry and adjusts the running totals.
// Only approved or active loans accept repayments; the first repayment on
// an approved loan activates it, and a repayment that exhausts the
// balance completes it. An overpayment is recorded as given, so the
// stored balance may go negative; Outstanding() clamps it for reporting.
func (l *Ledger) RepayLoan(loanID uuid.UUID, amount decimal.Decimal, method models.PaymentMethod, transactionID string) (*models.Loan, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errValidation("repayment amount must be greater than zero")
	}
	if !validMethod(method) {
		return nil, errValidation("unknown payment method %q", method)
	}

	unlock := l.locks.lock("loan:" + loanID.String())
	defer unlock()

	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, notFound(err, "loan", loanID)
	}
	if !loan.Open() {
		return nil, &InvalidStateError{Entity: "loan", ID: loan.ID.String(), State: string(loan.Status), Op: "repay"}
	}

	prevStatus := loan.Status
	prevBalance := loan.RemainingBalance
	prevRepaid := loan.TotalRepaid

	if loan.Status == models.LoanApproved {
		loan.Status = models.LoanActive
	}
	loan.TotalRepaid = loan.TotalRepaid.Add(amount)
	loan.RemainingBalance = loan.RemainingBalance.Sub(amount)
	completed := loan.RemainingBalance.LessThanOrEqual(decimal.Zero)
	if completed {
		loan.Status = models.LoanCompleted
	}
	loan.UpdatedAt = time.Now()

	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to update loan balance: %w", err)
	}

	repayment := models.Repayment{
		ID:            uuid.New(),
		LoanID:        loan.ID,
		Amount:        amount,
		Date:          time.Now(),
		Method:        method,
		TransactionID: transactionID,
	}
	if err := l.storage.CreateRepayment(&repayment); err != nil {
		// roll the totals back so the loan row stays consistent with its log
		loan.Status = prevStatus
		loan.RemainingBalance = prevBalance
		loan.TotalRepaid = prevRepaid
		loan.UpdatedAt = time.Now()
		if derr := l.storage.UpdateLoan(loan); derr != nil {
			aggErr := &AggregateUpdateError{MemberID: loan.BorrowerID.String(), Err: derr}
			l.log.Error("loan rollback failed, totals drifted from repayment log",
				zap.String("loan_id", loan.ID.String()),
				zap.Error(derr))
			return nil, aggErr
		}
		return nil, fmt.Errorf("failed to store repayment: %w", err)
	}
	loan.Repayments = append(loan.Repayments, repayment)

	l.emit(EventLoanRepaid, loan.BorrowerID, loan.ID, amount)
	if completed {
		l.emit(EventLoanCompleted, loan.BorrowerID, loan.ID, loan.TotalRepaid)
	}
	return loan, nil
}

// MarkLoanDefaulted is the administrative override. Works from any
// non-terminal state; completed and defaulted loans stay as they are.
func (l *Ledger) MarkLoanDefaulted(loanID uuid.UUID) (*models.Loan, error) {
	unlock := l.locks.lock("loan:" + loanID.String())
	defer unlock()

	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, notFound(err, "loan", loanID)
	}
	if loan.Status == models.LoanCompleted || loan.Status == models.LoanDefaulted {
		return nil, &InvalidStateError{Entity: "loan", ID: loan.ID.String(), State: string(loan.Status), Op: "default"}
	}

	loan.Status = models.LoanDefaulted
	loan.UpdatedAt = time.Now()

	if err := l.storage.UpdateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to update loan: %w", err)
	}

	l.emit(EventLoanDefaulted, loan.BorrowerID, loan.ID, loan.Outstanding())
	return loan, nil
}

// GetLoanRecord returns a loan with its repayment log.
func (l *Ledger) GetLoanRecord(loanID uuid.UUID) (*models.Loan, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return nil, notFound(err, "loan", loanID)
	}
	return loan, nil
}

// MyLoans lists a borrower's loans, newest first, without repayment logs.
func (l *Ledger) MyLoans(borrowerID uuid.UUID) ([]*models.Loan, error) {
	return l.storage.GetLoansByBorrower(borrowerID)
}

// AllLoans lists every loan, newest first, without repayment logs.
func (l *Ledger) AllLoans() ([]*models.Loan, error) {
	return l.storage.GetAllLoans()
}
