package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wemzee/chamaledger/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore manages the database connection and operations for SQLite.
// Monetary columns are TEXT so no decimal precision is lost; nested
// value lists (next of kin, participants, milestones) are JSON TEXT.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database and initializes the schema.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS members (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		id_number TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL,
		role TEXT NOT NULL,
		status TEXT NOT NULL,
		next_of_kin TEXT NOT NULL DEFAULT '{}',
		join_date DATETIME NOT NULL,
		total_contributions TEXT NOT NULL DEFAULT '0',
		total_profits TEXT NOT NULL DEFAULT '0',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS contributions (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		method TEXT NOT NULL,
		transaction_id TEXT NOT NULL,
		month TEXT NOT NULL,
		year INTEGER NOT NULL,
		status TEXT NOT NULL,
		approved_by TEXT,
		approved_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY(member_id) REFERENCES members(id)
	);
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		borrower_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		purpose TEXT NOT NULL DEFAULT '',
		interest_rate TEXT NOT NULL,
		duration_months INTEGER NOT NULL,
		start_date DATETIME NOT NULL,
		due_date DATETIME NOT NULL,
		status TEXT NOT NULL,
		approved_by TEXT,
		remaining_balance TEXT NOT NULL,
		total_repaid TEXT NOT NULL DEFAULT '0',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY(borrower_id) REFERENCES members(id)
	);
	CREATE TABLE IF NOT EXISTS loan_repayments (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		date DATETIME NOT NULL,
		method TEXT NOT NULL,
		transaction_id TEXT NOT NULL,
		FOREIGN KEY(loan_id) REFERENCES loans(id)
	);
	CREATE TABLE IF NOT EXISTS profit_distributions (
		id TEXT PRIMARY KEY,
		period TEXT NOT NULL,
		total_profit TEXT NOT NULL,
		distribution_date DATETIME NOT NULL,
		distributed_by TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY(distributed_by) REFERENCES members(id)
	);
	CREATE TABLE IF NOT EXISTS distribution_entries (
		id TEXT PRIMARY KEY,
		distribution_id TEXT NOT NULL,
		member_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		share_percentage TEXT NOT NULL,
		reinvested INTEGER NOT NULL DEFAULT 0,
		reinvestment_amount TEXT NOT NULL DEFAULT '0',
		applied INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY(distribution_id) REFERENCES profit_distributions(id),
		FOREIGN KEY(member_id) REFERENCES members(id)
	);
	CREATE TABLE IF NOT EXISTS investments (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		capital TEXT NOT NULL,
		current_value TEXT NOT NULL DEFAULT '0',
		expected_profit TEXT NOT NULL DEFAULT '0',
		actual_profit TEXT NOT NULL DEFAULT '0',
		start_date DATETIME NOT NULL,
		end_date DATETIME,
		status TEXT NOT NULL,
		created_by TEXT NOT NULL,
		participants TEXT NOT NULL DEFAULT '[]',
		milestones TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY(created_by) REFERENCES members(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func nullableID(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

// --- members ---

const memberColumns = `id, name, email, id_number, phone, role, status, next_of_kin, join_date, total_contributions, total_profits, created_at, updated_at`

// CreateMember inserts a new member. The UNIQUE constraints on email and
// id_number surface duplicates as errors here.
func (s *SQLiteStore) CreateMember(m *models.Member) error {
	kin, err := json.Marshal(m.NextOfKin)
	if err != nil {
		return fmt.Errorf("failed to encode next of kin: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO members (`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID.String(), m.Name, m.Email, m.IDNumber, m.Phone, m.Role, m.Status,
		string(kin), m.JoinDate, m.TotalContributions, m.TotalProfits, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

func scanMember(row interface{ Scan(...interface{}) error }) (*models.Member, error) {
	var m models.Member
	var idStr, kin string
	if err := row.Scan(&idStr, &m.Name, &m.Email, &m.IDNumber, &m.Phone, &m.Role, &m.Status,
		&kin, &m.JoinDate, &m.TotalContributions, &m.TotalProfits, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.ID = uuid.MustParse(idStr)
	if err := json.Unmarshal([]byte(kin), &m.NextOfKin); err != nil {
		return nil, fmt.Errorf("failed to decode next of kin: %w", err)
	}
	return &m, nil
}

func (s *SQLiteStore) GetMember(id uuid.UUID) (*models.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberColumns+` FROM members WHERE id = ?`, id.String())
	m, err := scanMember(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

func (s *SQLiteStore) UpdateMember(m *models.Member) error {
	kin, err := json.Marshal(m.NextOfKin)
	if err != nil {
		return fmt.Errorf("failed to encode next of kin: %w", err)
	}
	result, err := s.db.Exec(
		`UPDATE members SET name = ?, email = ?, id_number = ?, phone = ?, role = ?, status = ?, next_of_kin = ?, join_date = ?, total_contributions = ?, total_profits = ?, updated_at = ? WHERE id = ?`,
		m.Name, m.Email, m.IDNumber, m.Phone, m.Role, m.Status, string(kin), m.JoinDate,
		m.TotalContributions, m.TotalProfits, m.UpdatedAt, m.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	return checkAffected(result)
}

func (s *SQLiteStore) GetAllMembers() ([]*models.Member, error) {
	rows, err := s.db.Query(`SELECT ` + memberColumns + ` FROM members ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return members, nil
}

func (s *SQLiteStore) CountMembersByStatus(status models.MemberStatus) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM members WHERE status = ?`, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return n, nil
}

// --- contributions ---

const contributionColumns = `id, member_id, amount, method, transaction_id, month, year, status, approved_by, approved_at, created_at, updated_at`

func (s *SQLiteStore) CreateContribution(c *models.Contribution) error {
	_, err := s.db.Exec(
		`INSERT INTO contributions (`+contributionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.MemberID.String(), c.Amount, c.Method, c.TransactionID, c.Month, c.Year,
		c.Status, nullableID(c.ApprovedBy), nullableTime(c.ApprovedAt), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contribution: %w", err)
	}
	return nil
}

func scanContribution(row interface{ Scan(...interface{}) error }) (*models.Contribution, error) {
	var c models.Contribution
	var idStr, memberStr string
	var approvedBy sql.NullString
	var approvedAt sql.NullTime
	if err := row.Scan(&idStr, &memberStr, &c.Amount, &c.Method, &c.TransactionID, &c.Month, &c.Year,
		&c.Status, &approvedBy, &approvedAt, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ID = uuid.MustParse(idStr)
	c.MemberID = uuid.MustParse(memberStr)
	if approvedBy.Valid {
		id := uuid.MustParse(approvedBy.String)
		c.ApprovedBy = &id
	}
	if approvedAt.Valid {
		c.ApprovedAt = &approvedAt.Time
	}
	return &c, nil
}

func (s *SQLiteStore) GetContribution(id uuid.UUID) (*models.Contribution, error) {
	row := s.db.QueryRow(`SELECT `+contributionColumns+` FROM contributions WHERE id = ?`, id.String())
	c, err := scanContribution(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contribution: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) UpdateContribution(c *models.Contribution) error {
	result, err := s.db.Exec(
		`UPDATE contributions SET status = ?, approved_by = ?, approved_at = ?, updated_at = ? WHERE id = ?`,
		c.Status, nullableID(c.ApprovedBy), nullableTime(c.ApprovedAt), c.UpdatedAt, c.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update contribution: %w", err)
	}
	return checkAffected(result)
}

func (s *SQLiteStore) queryContributions(query string, args ...interface{}) ([]*models.Contribution, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contributions: %w", err)
	}
	defer rows.Close()

	var contributions []*models.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contribution row: %w", err)
		}
		contributions = append(contributions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return contributions, nil
}

func (s *SQLiteStore) GetContributionsByMember(memberID uuid.UUID) ([]*models.Contribution, error) {
	return s.queryContributions(`SELECT `+contributionColumns+` FROM contributions WHERE member_id = ? ORDER BY created_at DESC`, memberID.String())
}

func (s *SQLiteStore) GetAllContributions() ([]*models.Contribution, error) {
	return s.queryContributions(`SELECT ` + contributionColumns + ` FROM contributions ORDER BY created_at DESC`)
}

func (s *SQLiteStore) GetContributionsByStatus(status models.ContributionStatus) ([]*models.Contribution, error) {
	return s.queryContributions(`SELECT `+contributionColumns+` FROM contributions WHERE status = ? ORDER BY created_at DESC`, status)
}

func (s *SQLiteStore) GetRecentApprovedContributions(limit int) ([]*models.Contribution, error) {
	return s.queryContributions(`SELECT `+contributionColumns+` FROM contributions WHERE status = ? ORDER BY created_at DESC LIMIT ?`, models.ContributionApproved, limit)
}

// --- loans ---

const loanColumns = `id, borrower_id, amount, purpose, interest_rate, duration_months, start_date, due_date, status, approved_by, remaining_balance, total_repaid, created_at, updated_at`

func (s *SQLiteStore) CreateLoan(l *models.Loan) error {
	_, err := s.db.Exec(
		`INSERT INTO loans (`+loanColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID.String(), l.BorrowerID.String(), l.Amount, l.Purpose, l.InterestRate, l.DurationMonths,
		l.StartDate, l.DueDate, l.Status, nullableID(l.ApprovedBy), l.RemainingBalance, l.TotalRepaid,
		l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

func scanLoan(row interface{ Scan(...interface{}) error }) (*models.Loan, error) {
	var l models.Loan
	var idStr, borrowerStr string
	var approvedBy sql.NullString
	if err := row.Scan(&idStr, &borrowerStr, &l.Amount, &l.Purpose, &l.InterestRate, &l.DurationMonths,
		&l.StartDate, &l.DueDate, &l.Status, &approvedBy, &l.RemainingBalance, &l.TotalRepaid,
		&l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.ID = uuid.MustParse(idStr)
	l.BorrowerID = uuid.MustParse(borrowerStr)
	if approvedBy.Valid {
		id := uuid.MustParse(approvedBy.String)
		l.ApprovedBy = &id
	}
	return &l, nil
}

// GetLoan returns the loan with its repayment log in chronological order.
func (s *SQLiteStore) GetLoan(id uuid.UUID) (*models.Loan, error) {
	row := s.db.QueryRow(`SELECT `+loanColumns+` FROM loans WHERE id = ?`, id.String())
	l, err := scanLoan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	repayments, err := s.GetRepaymentsForLoan(l.ID)
	if err != nil {
		return nil, err
	}
	for _, r := range repayments {
		l.Repayments = append(l.Repayments, *r)
	}
	return l, nil
}

func (s *SQLiteStore) UpdateLoan(l *models.Loan) error {
	result, err := s.db.Exec(
		`UPDATE loans SET status = ?, approved_by = ?, remaining_balance = ?, total_repaid = ?, updated_at = ? WHERE id = ?`,
		l.Status, nullableID(l.ApprovedBy), l.RemainingBalance, l.TotalRepaid, l.UpdatedAt, l.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	return checkAffected(result)
}

func (s *SQLiteStore) queryLoans(query string, args ...interface{}) ([]*models.Loan, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query loans: %w", err)
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return loans, nil
}

func (s *SQLiteStore) GetLoansByBorrower(borrowerID uuid.UUID) ([]*models.Loan, error) {
	return s.queryLoans(`SELECT `+loanColumns+` FROM loans WHERE borrower_id = ? ORDER BY created_at DESC`, borrowerID.String())
}

func (s *SQLiteStore) GetAllLoans() ([]*models.Loan, error) {
	return s.queryLoans(`SELECT ` + loanColumns + ` FROM loans ORDER BY created_at DESC`)
}

func (s *SQLiteStore) CreateRepayment(r *models.Repayment) error {
	_, err := s.db.Exec(
		`INSERT INTO loan_repayments (id, loan_id, amount, date, method, transaction_id) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.LoanID.String(), r.Amount, r.Date, r.Method, r.TransactionID,
	)
	if err != nil {
		return fmt.Errorf("failed to create repayment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetRepaymentsForLoan(loanID uuid.UUID) ([]*models.Repayment, error) {
	rows, err := s.db.Query(`SELECT id, loan_id, amount, date, method, transaction_id FROM loan_repayments WHERE loan_id = ? ORDER BY date ASC`, loanID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get repayments for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	var repayments []*models.Repayment
	for rows.Next() {
		var r models.Repayment
		var idStr, loanStr string
		if err := rows.Scan(&idStr, &loanStr, &r.Amount, &r.Date, &r.Method, &r.TransactionID); err != nil {
			return nil, fmt.Errorf("failed to scan repayment row: %w", err)
		}
		r.ID = uuid.MustParse(idStr)
		r.LoanID = uuid.MustParse(loanStr)
		repayments = append(repayments, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return repayments, nil
}

// --- profit distributions ---

const distributionColumns = `id, period, total_profit, distribution_date, distributed_by, notes, created_at, updated_at`

// CreateDistribution writes the distribution and all its entries in one
// database transaction so a posted record is never missing entries.
func (s *SQLiteStore) CreateDistribution(d *models.ProfitDistribution) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO profit_distributions (`+distributionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID.String(), d.Period, d.TotalProfit, d.DistributionDate, d.DistributedBy.String(),
		d.Notes, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create distribution: %w", err)
	}

	for _, e := range d.Entries {
		_, err = tx.Exec(
			`INSERT INTO distribution_entries (id, distribution_id, member_id, amount, share_percentage, reinvested, reinvestment_amount, applied)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID.String(), e.DistributionID.String(), e.MemberID.String(), e.Amount,
			e.SharePercentage, e.Reinvested, e.ReinvestmentAmount, e.Applied,
		)
		if err != nil {
			return fmt.Errorf("failed to create distribution entry: %w", err)
		}
	}

	return tx.Commit()
}

func scanDistribution(row interface{ Scan(...interface{}) error }) (*models.ProfitDistribution, error) {
	var d models.ProfitDistribution
	var idStr, byStr string
	if err := row.Scan(&idStr, &d.Period, &d.TotalProfit, &d.DistributionDate, &byStr,
		&d.Notes, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.ID = uuid.MustParse(idStr)
	d.DistributedBy = uuid.MustParse(byStr)
	return &d, nil
}

// loadEntries appends the distribution's entries in posting order. Entry
// ids are random, so rowid carries the insertion order.
func (s *SQLiteStore) loadEntries(d *models.ProfitDistribution) error {
	rows, err := s.db.Query(
		`SELECT id, distribution_id, member_id, amount, share_percentage, reinvested, reinvestment_amount, applied
		FROM distribution_entries WHERE distribution_id = ? ORDER BY rowid`, d.ID.String())
	if err != nil {
		return fmt.Errorf("failed to get distribution entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.DistributionEntry
		var idStr, distStr, memberStr string
		if err := rows.Scan(&idStr, &distStr, &memberStr, &e.Amount, &e.SharePercentage,
			&e.Reinvested, &e.ReinvestmentAmount, &e.Applied); err != nil {
			return fmt.Errorf("failed to scan distribution entry row: %w", err)
		}
		e.ID = uuid.MustParse(idStr)
		e.DistributionID = uuid.MustParse(distStr)
		e.MemberID = uuid.MustParse(memberStr)
		d.Entries = append(d.Entries, e)
	}
	return rows.Err()
}

func (s *SQLiteStore) GetDistribution(id uuid.UUID) (*models.ProfitDistribution, error) {
	row := s.db.QueryRow(`SELECT `+distributionColumns+` FROM profit_distributions WHERE id = ?`, id.String())
	d, err := scanDistribution(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get distribution: %w", err)
	}
	if err := s.loadEntries(d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *SQLiteStore) queryDistributions(query string, args ...interface{}) ([]*models.ProfitDistribution, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query distributions: %w", err)
	}
	defer rows.Close()

	var distributions []*models.ProfitDistribution
	for rows.Next() {
		d, err := scanDistribution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan distribution row: %w", err)
		}
		distributions = append(distributions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	for _, d := range distributions {
		if err := s.loadEntries(d); err != nil {
			return nil, err
		}
	}
	return distributions, nil
}

func (s *SQLiteStore) GetAllDistributions() ([]*models.ProfitDistribution, error) {
	return s.queryDistributions(`SELECT ` + distributionColumns + ` FROM profit_distributions ORDER BY distribution_date DESC`)
}

func (s *SQLiteStore) GetDistributionsByMember(memberID uuid.UUID) ([]*models.ProfitDistribution, error) {
	return s.queryDistributions(
		`SELECT DISTINCT d.id, d.period, d.total_profit, d.distribution_date, d.distributed_by, d.notes, d.created_at, d.updated_at
		FROM profit_distributions d JOIN distribution_entries e ON e.distribution_id = d.id
		WHERE e.member_id = ? ORDER BY d.distribution_date DESC`, memberID.String())
}

func (s *SQLiteStore) MarkEntryApplied(entryID uuid.UUID) error {
	result, err := s.db.Exec(`UPDATE distribution_entries SET applied = 1 WHERE id = ?`, entryID.String())
	if err != nil {
		return fmt.Errorf("failed to mark entry applied: %w", err)
	}
	return checkAffected(result)
}

// --- investments ---

const investmentColumns = `id, name, type, description, capital, current_value, expected_profit, actual_profit, start_date, end_date, status, created_by, participants, milestones, created_at, updated_at`

func (s *SQLiteStore) CreateInvestment(inv *models.Investment) error {
	participants, milestones, err := encodeInvestmentLists(inv)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO investments (`+investmentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID.String(), inv.Name, inv.Type, inv.Description, inv.Capital, inv.CurrentValue,
		inv.ExpectedProfit, inv.ActualProfit, inv.StartDate, nullableTime(inv.EndDate), inv.Status,
		inv.CreatedBy.String(), participants, milestones, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create investment: %w", err)
	}
	return nil
}

func encodeInvestmentLists(inv *models.Investment) (string, string, error) {
	participants, err := json.Marshal(inv.Participants)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode participants: %w", err)
	}
	milestones, err := json.Marshal(inv.Milestones)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode milestones: %w", err)
	}
	return string(participants), string(milestones), nil
}

func scanInvestment(row interface{ Scan(...interface{}) error }) (*models.Investment, error) {
	var inv models.Investment
	var idStr, byStr, participants, milestones string
	var endDate sql.NullTime
	if err := row.Scan(&idStr, &inv.Name, &inv.Type, &inv.Description, &inv.Capital, &inv.CurrentValue,
		&inv.ExpectedProfit, &inv.ActualProfit, &inv.StartDate, &endDate, &inv.Status, &byStr,
		&participants, &milestones, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	inv.ID = uuid.MustParse(idStr)
	inv.CreatedBy = uuid.MustParse(byStr)
	if endDate.Valid {
		inv.EndDate = &endDate.Time
	}
	if err := json.Unmarshal([]byte(participants), &inv.Participants); err != nil {
		return nil, fmt.Errorf("failed to decode participants: %w", err)
	}
	if err := json.Unmarshal([]byte(milestones), &inv.Milestones); err != nil {
		return nil, fmt.Errorf("failed to decode milestones: %w", err)
	}
	return &inv, nil
}

func (s *SQLiteStore) GetInvestment(id uuid.UUID) (*models.Investment, error) {
	row := s.db.QueryRow(`SELECT `+investmentColumns+` FROM investments WHERE id = ?`, id.String())
	inv, err := scanInvestment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}
	return inv, nil
}

func (s *SQLiteStore) UpdateInvestment(inv *models.Investment) error {
	participants, milestones, err := encodeInvestmentLists(inv)
	if err != nil {
		return err
	}
	result, err := s.db.Exec(
		`UPDATE investments SET name = ?, type = ?, description = ?, capital = ?, current_value = ?, expected_profit = ?, actual_profit = ?, start_date = ?, end_date = ?, status = ?, participants = ?, milestones = ?, updated_at = ? WHERE id = ?`,
		inv.Name, inv.Type, inv.Description, inv.Capital, inv.CurrentValue, inv.ExpectedProfit,
		inv.ActualProfit, inv.StartDate, nullableTime(inv.EndDate), inv.Status, participants,
		milestones, inv.UpdatedAt, inv.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update investment: %w", err)
	}
	return checkAffected(result)
}

func (s *SQLiteStore) queryInvestments(query string, args ...interface{}) ([]*models.Investment, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query investments: %w", err)
	}
	defer rows.Close()

	var investments []*models.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment row: %w", err)
		}
		investments = append(investments, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return investments, nil
}

func (s *SQLiteStore) GetAllInvestments() ([]*models.Investment, error) {
	return s.queryInvestments(`SELECT ` + investmentColumns + ` FROM investments ORDER BY created_at DESC`)
}

func (s *SQLiteStore) GetActiveInvestments(limit int) ([]*models.Investment, error) {
	return s.queryInvestments(`SELECT `+investmentColumns+` FROM investments WHERE status = ? ORDER BY created_at DESC LIMIT ?`, models.InvestmentActive, limit)
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
