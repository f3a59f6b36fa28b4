package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/wemzee/chamaledger/pkg/ledger"
	"github.com/wemzee/chamaledger/pkg/models"
	"go.uber.org/zap"
)

// memberHeader carries the authenticated caller identity, asserted by the
// auth layer in front of this service. The ledger trusts it as-is.
const memberHeader = "X-Member-ID"

func (s *Server) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

type errorResponse struct {
	Message string `json:"message"`
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	var (
		vErr   *ledger.ValidationError
		nfErr  *ledger.NotFoundError
		isErr  *ledger.InvalidStateError
		aggErr *ledger.AggregateUpdateError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
	case errors.As(err, &nfErr):
		status = http.StatusNotFound
	case errors.As(err, &isErr):
		status = http.StatusConflict
	case errors.As(err, &aggErr):
		status = http.StatusInternalServerError
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	s.respondJSON(w, status, errorResponse{Message: err.Error()})
}

func callerID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.Header.Get(memberHeader))
	if err != nil {
		return uuid.Nil, &ledger.ValidationError{Reason: "missing or invalid " + memberHeader + " header"}
	}
	return id, nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, &ledger.ValidationError{Reason: "invalid id in path"}
	}
	return id, nil
}

// --- members ---

func (s *Server) registerMemberHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string            `json:"name"`
		Email     string            `json:"email"`
		IDNumber  string            `json:"id_number"`
		Phone     string            `json:"phone"`
		Role      models.MemberRole `json:"role"`
		NextOfKin models.NextOfKin  `json:"next_of_kin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, &ledger.ValidationError{Reason: err.Error()})
		return
	}

	m, err := s.ledger.RegisterMember(req.Name, req.Email, req.IDNumber, req.Phone, req.Role, req.NextOfKin)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, m)
}

func (s *Server) listMembersHandler(w http.ResponseWriter, r *http.Request) {
	members, err := s.ledger.ListMembers()
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, members)
}

func (s *Server) getMemberHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	m, err := s.ledger.GetMemberRecord(id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, m)
}

func (s *Server) updateMemberHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req struct {
		Name      string           `json:"name"`
		Phone     string           `json:"phone"`
		NextOfKin models.NextOfKin `json:"next_of_kin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, &ledger.ValidationError{Reason: err.Error()})
		return
	}

	m, err := s.ledger.UpdateMemberProfile(id, req.Name, req.Phone, req.NextOfKin)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, m)
}

func (s *Server) setMemberStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req struct {
		Status models.MemberStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, &ledger.ValidationError{Reason: err.Error()})
		return
	}

	m, err := s.ledger.SetMemberStatus(id, req.Status)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, m)
}

func (s *Server) memberStatsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	stats, err := s.ledger.GetMemberStats(id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

// --- contributions ---

func (s *Server) submitContributionHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req struct {
		Amount        decimal.Decimal      `json:"amount"`
		Method        models.PaymentMethod `json:"method"`
		TransactionID string               `json:"transaction_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, &ledger.ValidationError{Reason: err.Error()})
		return
	}

	c, err := s.ledger.SubmitContribution(caller, req.Amount, req.Method, req.TransactionID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, c)
}

func (s *Server) myContributionsHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	contributions, err := s.ledger.MyContributions(caller)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, contributions)
}

func (s *Server) allContributionsHandler(w http.ResponseWriter, r *http.Request) {
	contributions, err := s.ledger.AllContributions()
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, contributions)
}

func (s *Server) approveContributionHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	c, err := s.ledger.ApproveContribution(id, caller)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, c)
}

func (s *Server) rejectContributionHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	c, err := s.ledger.RejectContribution(id, caller)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, c)
}

// --- loans ---

func (s *Server) applyLoanHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req struct {
		Amount         decimal.Decimal `json:"amount"`
		Purpose        string          `json:"purpose"`
		DurationMonths int             `json:"duration_months"`
		InterestRate   decimal.Decimal `json:"interest_rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, &ledger.ValidationError{Reason: err.Error()})
		return
	}

	loan, err := s.ledger.ApplyForLoan(caller, req.Amount, req.Purpose, req.DurationMonths, req.InterestRate)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, loan)
}

func (s *Server) myLoansHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	loans, err := s.ledger.MyLoans(caller)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, loans)
}

func (s *Server) allLoansHandler(w http.ResponseWriter, r *http.Request) {
	loans, err := s.ledger.AllLoans()
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, loans)
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	loan, err := s.ledger.GetLoanRecord(id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, loan)
}

func (s *Server) approveLoanHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	loan, err := s.ledger.ApproveLoan(id, caller)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, loan)
}

func (s *Server) repayLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req struct {
		Amount        decimal.Decimal      `json:"amount"`
		Method        models.PaymentMethod `json:"method"`
		TransactionID string               `json:"transaction_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, &ledger.ValidationError{Reason: err.Error()})
		return
	}

	loan, err := s.ledger.RepayLoan(id, req.Amount, req.Method, req.TransactionID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, loan)
}

func (s *Server) defaultLoanHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	loan, err := s.ledger.MarkLoanDefaulted(id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, loan)
}

// --- profit distributions ---

func (s *Server) postDistributionHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req struct {
		Period           string                          `json:"period"`
		TotalProfit      decimal.Decimal                 `json:"total_profit"`
		DistributionDate time.Time                       `json:"distribution_date"`
		Notes            string                          `json:"notes"`
		Entries          []ledger.DistributionEntryInput `json:"entries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, &ledger.ValidationError{Reason: err.Error()})
		return
	}
	if req.DistributionDate.IsZero() {
		req.DistributionDate = time.Now()
	}

	d, err := s.ledger.PostDistribution(caller, req.Period, req.TotalProfit, req.DistributionDate, req.Notes, req.Entries)
	if err != nil {
		// the record exists with part of the fan-out applied; return it so
		// the caller can target /profits/{id}/retry
		if d != nil {
			s.log.Error("distribution posted with failed entries",
				zap.String("distribution_id", d.ID.String()),
				zap.Error(err))
			s.respondJSON(w, http.StatusInternalServerError, struct {
				Message      string                     `json:"message"`
				Distribution *models.ProfitDistribution `json:"distribution"`
			}{Message: err.Error(), Distribution: d})
			return
		}
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, d)
}

func (s *Server) myDistributionsHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	distributions, err := s.ledger.MyDistributions(caller)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, distributions)
}

func (s *Server) allDistributionsHandler(w http.ResponseWriter, r *http.Request) {
	distributions, err := s.ledger.AllDistributions()
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, distributions)
}

func (s *Server) retryDistributionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	d, err := s.ledger.RetryDistribution(id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, d)
}

func (s *Server) myShareHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}

	entry, err := s.ledger.MyShare(id, caller)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, entry)
}

// --- investments ---

func (s *Server) createInvestmentHandler(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var params ledger.NewInvestmentParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		s.respondError(w, &ledger.ValidationError{Reason: err.Error()})
		return
	}

	inv, err := s.ledger.CreateInvestment(caller, params)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, inv)
}

func (s *Server) listInvestmentsHandler(w http.ResponseWriter, r *http.Request) {
	investments, err := s.ledger.ListInvestments()
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, investments)
}

func (s *Server) getInvestmentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	inv, err := s.ledger.GetInvestmentRecord(id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, inv)
}

func (s *Server) updateInvestmentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var inv models.Investment
	if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
		s.respondError(w, &ledger.ValidationError{Reason: err.Error()})
		return
	}
	inv.ID = id // path wins over body

	updated, err := s.ledger.UpdateInvestment(&inv)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, updated)
}

func (s *Server) investmentStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.GetInvestmentStats()
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

// --- reports ---

func (s *Server) dashboardStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.GetDashboardStats()
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}
