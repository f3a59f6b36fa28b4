package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wemzee/chamaledger/pkg/models"
	"github.com/wemzee/chamaledger/pkg/store"
	"go.uber.org/zap"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test_api.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewServer(s, zap.NewNop())
}

// doRequest serves one request through the full route table. memberID is
// sent as the caller identity header when non-empty.
func doRequest(server *Server, method, path, memberID string, payload interface{}) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, path, &body)
	if memberID != "" {
		req.Header.Set(memberHeader, memberID)
	}
	rr := httptest.NewRecorder()
	server.router().ServeHTTP(rr, req)
	return rr
}

func registerTestMember(t *testing.T, server *Server, name, email, idNumber string) models.Member {
	t.Helper()
	rr := doRequest(server, "POST", "/members", "", map[string]interface{}{
		"name":      name,
		"email":     email,
		"id_number": idNumber,
		"phone":     "+254700000000",
		"next_of_kin": map[string]string{
			"name": "Kin", "relationship": "spouse", "phone": "+254",
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201 registering %s, got %d: %s", name, rr.Code, rr.Body.String())
	}
	var m models.Member
	json.Unmarshal(rr.Body.Bytes(), &m)
	return m
}

func TestAPI_ContributionLifecycle(t *testing.T) {
	server := setupTestServer(t)

	member := registerTestMember(t, server, "Alice", "alice@example.com", "ID100")
	treasurer := registerTestMember(t, server, "Tess", "tess@example.com", "ID101")

	rr := doRequest(server, "POST", "/contributions", member.ID.String(), map[string]interface{}{
		"amount":         2000,
		"method":         "mpesa",
		"transaction_id": "MPESA123",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var c models.Contribution
	json.Unmarshal(rr.Body.Bytes(), &c)
	if c.Status != models.ContributionPending {
		t.Errorf("expected pending contribution, got %s", c.Status)
	}

	rr = doRequest(server, "PATCH", "/contributions/"+c.ID.String()+"/approve", treasurer.ID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 on approve, got %d: %s", rr.Code, rr.Body.String())
	}
	var approved models.Contribution
	json.Unmarshal(rr.Body.Bytes(), &approved)
	if approved.Status != models.ContributionApproved {
		t.Errorf("expected approved, got %s", approved.Status)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != treasurer.ID {
		t.Error("expected approver recorded")
	}

	// aggregate landed on the member
	rr = doRequest(server, "GET", "/members/"+member.ID.String(), "", nil)
	var fetched models.Member
	json.Unmarshal(rr.Body.Bytes(), &fetched)
	if !fetched.TotalContributions.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("expected total contributions 2000, got %s", fetched.TotalContributions)
	}

	// terminal state, second approval conflicts
	rr = doRequest(server, "PATCH", "/contributions/"+c.ID.String()+"/approve", treasurer.ID.String(), nil)
	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409 on double approve, got %d", rr.Code)
	}

	rr = doRequest(server, "GET", "/contributions/my", member.ID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var mine []models.Contribution
	json.Unmarshal(rr.Body.Bytes(), &mine)
	if len(mine) != 1 {
		t.Errorf("expected 1 contribution, got %d", len(mine))
	}
}

func TestAPI_LoanLifecycle(t *testing.T) {
	server := setupTestServer(t)

	borrower := registerTestMember(t, server, "Bob", "bob@example.com", "ID110")
	approver := registerTestMember(t, server, "Ann", "ann@example.com", "ID111")

	rr := doRequest(server, "POST", "/loans", borrower.ID.String(), map[string]interface{}{
		"amount":          10000,
		"purpose":         "school fees",
		"duration_months": 12,
		"interest_rate":   0.08,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var loan models.Loan
	json.Unmarshal(rr.Body.Bytes(), &loan)
	if loan.Status != models.LoanPending {
		t.Errorf("expected pending loan, got %s", loan.Status)
	}
	if !loan.RemainingBalance.Equal(decimal.NewFromInt(10800)) {
		t.Errorf("expected balance 10800, got %s", loan.RemainingBalance)
	}

	// repayment before approval conflicts
	rr = doRequest(server, "POST", "/loans/"+loan.ID.String()+"/repayments", borrower.ID.String(), map[string]interface{}{
		"amount": 1000, "method": "mpesa", "transaction_id": "MP0",
	})
	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409 repaying pending loan, got %d", rr.Code)
	}

	rr = doRequest(server, "PATCH", "/loans/"+loan.ID.String()+"/approve", approver.ID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 on approve, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(server, "POST", "/loans/"+loan.ID.String()+"/repayments", borrower.ID.String(), map[string]interface{}{
		"amount": 800, "method": "mpesa", "transaction_id": "MP1",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201 on repayment, got %d: %s", rr.Code, rr.Body.String())
	}
	json.Unmarshal(rr.Body.Bytes(), &loan)
	if loan.Status != models.LoanActive {
		t.Errorf("expected active after first repayment, got %s", loan.Status)
	}
	if !loan.RemainingBalance.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("expected balance 10000, got %s", loan.RemainingBalance)
	}

	rr = doRequest(server, "POST", "/loans/"+loan.ID.String()+"/repayments", borrower.ID.String(), map[string]interface{}{
		"amount": 10000, "method": "bank", "transaction_id": "BK1",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201 on final repayment, got %d: %s", rr.Code, rr.Body.String())
	}
	json.Unmarshal(rr.Body.Bytes(), &loan)
	if loan.Status != models.LoanCompleted {
		t.Errorf("expected completed, got %s", loan.Status)
	}
	if !loan.TotalRepaid.Equal(decimal.NewFromInt(10800)) {
		t.Errorf("expected total repaid 10800, got %s", loan.TotalRepaid)
	}

	rr = doRequest(server, "GET", "/loans/"+loan.ID.String(), "", nil)
	json.Unmarshal(rr.Body.Bytes(), &loan)
	if len(loan.Repayments) != 2 {
		t.Errorf("expected 2 logged repayments, got %d", len(loan.Repayments))
	}

	// closed loans stay closed
	rr = doRequest(server, "POST", "/loans/"+loan.ID.String()+"/repayments", borrower.ID.String(), map[string]interface{}{
		"amount": 1, "method": "cash", "transaction_id": "C1",
	})
	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409 repaying completed loan, got %d", rr.Code)
	}
}

func TestAPI_ProfitDistribution(t *testing.T) {
	server := setupTestServer(t)

	poster := registerTestMember(t, server, "Paul", "paul@example.com", "ID120")
	a := registerTestMember(t, server, "Mary", "mary@example.com", "ID121")
	b := registerTestMember(t, server, "Jane", "jane@example.com", "ID122")

	rr := doRequest(server, "POST", "/profits", poster.ID.String(), map[string]interface{}{
		"period":       "Q2 2025",
		"total_profit": 6000,
		"entries": []map[string]interface{}{
			{"member_id": a.ID.String(), "amount": 3000, "share_percentage": 50},
			{"member_id": b.ID.String(), "amount": 3000, "share_percentage": 50},
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var d models.ProfitDistribution
	json.Unmarshal(rr.Body.Bytes(), &d)
	if len(d.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(d.Entries))
	}
	for _, e := range d.Entries {
		if !e.Applied {
			t.Errorf("expected entry for %s applied", e.MemberID)
		}
	}

	rr = doRequest(server, "GET", "/members/"+a.ID.String(), "", nil)
	var fetched models.Member
	json.Unmarshal(rr.Body.Bytes(), &fetched)
	if !fetched.TotalProfits.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("expected total profits 3000, got %s", fetched.TotalProfits)
	}

	rr = doRequest(server, "GET", "/profits/"+d.ID.String()+"/my-share", b.ID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var share models.DistributionEntry
	json.Unmarshal(rr.Body.Bytes(), &share)
	if !share.Amount.Equal(decimal.NewFromInt(3000)) {
		t.Errorf("expected share 3000, got %s", share.Amount)
	}

	// a member with no entry has no share
	rr = doRequest(server, "GET", "/profits/"+d.ID.String()+"/my-share", poster.ID.String(), nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for poster share, got %d", rr.Code)
	}
}

// flakyStore fails aggregate writes for one member, to exercise the
// partial fan-out path through the API.
type flakyStore struct {
	store.Storage
	failMember uuid.UUID
}

func (f *flakyStore) UpdateMember(m *models.Member) error {
	if m.ID == f.failMember {
		return fmt.Errorf("simulated member update failure")
	}
	return f.Storage.UpdateMember(m)
}

func TestAPI_PartialDistributionFailure(t *testing.T) {
	base, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test_api.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { base.Close() })
	flaky := &flakyStore{Storage: base}
	server := NewServer(flaky, zap.NewNop())

	poster := registerTestMember(t, server, "Pat", "pat@example.com", "ID150")
	healthy := registerTestMember(t, server, "Olu", "olu@example.com", "ID151")
	broken := registerTestMember(t, server, "Ben", "ben@example.com", "ID152")
	flaky.failMember = broken.ID

	rr := doRequest(server, "POST", "/profits", poster.ID.String(), map[string]interface{}{
		"period":       "Q3 2025",
		"total_profit": 2000,
		"entries": []map[string]interface{}{
			{"member_id": healthy.ID.String(), "amount": 1000, "share_percentage": 50},
			{"member_id": broken.ID.String(), "amount": 1000, "share_percentage": 50},
		},
	})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d: %s", rr.Code, rr.Body.String())
	}

	// the failure body must carry the record so the caller can retry it
	var resp struct {
		Message      string                     `json:"message"`
		Distribution *models.ProfitDistribution `json:"distribution"`
	}
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Message == "" {
		t.Error("expected an error message in the failure response")
	}
	if resp.Distribution == nil {
		t.Fatalf("expected the distribution in the failure response, got %s", rr.Body.String())
	}
	applied := 0
	for _, e := range resp.Distribution.Entries {
		if e.Applied {
			applied++
		}
	}
	if applied != 1 {
		t.Errorf("expected 1 applied entry in the response, got %d", applied)
	}

	flaky.failMember = uuid.Nil
	rr = doRequest(server, "POST", "/profits/"+resp.Distribution.ID.String()+"/retry", poster.ID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 on retry, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(server, "GET", "/members/"+broken.ID.String(), "", nil)
	var fetched models.Member
	json.Unmarshal(rr.Body.Bytes(), &fetched)
	if !fetched.TotalProfits.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected total profits 1000 after retry, got %s", fetched.TotalProfits)
	}
}

func TestAPI_InvestmentAndReports(t *testing.T) {
	server := setupTestServer(t)

	creator := registerTestMember(t, server, "Ivy", "ivy@example.com", "ID130")

	rr := doRequest(server, "POST", "/investments", creator.ID.String(), map[string]interface{}{
		"name":    "Money market fund",
		"type":    "mmf",
		"capital": 100000,
		"participants": []map[string]interface{}{
			{"member_id": creator.ID.String(), "share": 100},
		},
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var inv models.Investment
	json.Unmarshal(rr.Body.Bytes(), &inv)
	if inv.Status != models.InvestmentPlanning {
		t.Errorf("expected planning status, got %s", inv.Status)
	}
	if !inv.CurrentValue.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("expected current value seeded to capital, got %s", inv.CurrentValue)
	}

	inv.Status = models.InvestmentActive
	inv.CurrentValue = decimal.NewFromInt(104000)
	rr = doRequest(server, "PUT", "/investments/"+inv.ID.String(), creator.ID.String(), inv)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 on update, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(server, "GET", "/investments/stats/summary", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	rr = doRequest(server, "GET", "/reports/dashboard-stats", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var stats map[string]interface{}
	json.Unmarshal(rr.Body.Bytes(), &stats)
	if _, ok := stats["active_investments"]; !ok {
		t.Errorf("expected active_investments in dashboard stats, got %v", stats)
	}
}

func TestAPI_ErrorMapping(t *testing.T) {
	server := setupTestServer(t)

	// identity header required for caller-scoped routes
	rr := doRequest(server, "POST", "/contributions", "", map[string]interface{}{
		"amount": 100, "method": "cash", "transaction_id": "C1",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 without identity header, got %d", rr.Code)
	}

	rr = doRequest(server, "GET", "/members/"+uuid.NewString(), "", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for unknown member, got %d", rr.Code)
	}

	rr = doRequest(server, "GET", "/members/not-a-uuid", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for malformed id, got %d", rr.Code)
	}

	member := registerTestMember(t, server, "Eve", "eve@example.com", "ID140")
	rr = doRequest(server, "POST", "/contributions", member.ID.String(), map[string]interface{}{
		"amount": -5, "method": "cash", "transaction_id": "C2",
	})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for negative amount, got %d", rr.Code)
	}
}
