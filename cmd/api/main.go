package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/wemzee/chamaledger/pkg/ledger"
	"github.com/wemzee/chamaledger/pkg/store"
	"go.uber.org/zap"
)

// Server holds the ledger instance and the storage it runs on.
type Server struct {
	ledger  *ledger.Ledger
	storage store.Storage
	log     *zap.Logger
}

func NewServer(s store.Storage, log *zap.Logger) *Server {
	return &Server{
		ledger:  ledger.NewLedger(s, ledger.NewLogNotifier(log), log),
		storage: s,
		log:     log,
	}
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/members", s.registerMemberHandler).Methods("POST")
	r.HandleFunc("/members", s.listMembersHandler).Methods("GET")
	r.HandleFunc("/members/{id}", s.getMemberHandler).Methods("GET")
	r.HandleFunc("/members/{id}", s.updateMemberHandler).Methods("PUT")
	r.HandleFunc("/members/{id}/status", s.setMemberStatusHandler).Methods("PATCH")
	r.HandleFunc("/members/{id}/stats", s.memberStatsHandler).Methods("GET")

	r.HandleFunc("/contributions", s.submitContributionHandler).Methods("POST")
	r.HandleFunc("/contributions/my", s.myContributionsHandler).Methods("GET")
	r.HandleFunc("/contributions", s.allContributionsHandler).Methods("GET")
	r.HandleFunc("/contributions/{id}/approve", s.approveContributionHandler).Methods("PATCH")
	r.HandleFunc("/contributions/{id}/reject", s.rejectContributionHandler).Methods("PATCH")

	r.HandleFunc("/loans", s.applyLoanHandler).Methods("POST")
	r.HandleFunc("/loans/my", s.myLoansHandler).Methods("GET")
	r.HandleFunc("/loans", s.allLoansHandler).Methods("GET")
	r.HandleFunc("/loans/{id}", s.getLoanHandler).Methods("GET")
	r.HandleFunc("/loans/{id}/approve", s.approveLoanHandler).Methods("PATCH")
	r.HandleFunc("/loans/{id}/repayments", s.repayLoanHandler).Methods("POST")
	r.HandleFunc("/loans/{id}/default", s.defaultLoanHandler).Methods("PATCH")

	r.HandleFunc("/profits", s.postDistributionHandler).Methods("POST")
	r.HandleFunc("/profits/my", s.myDistributionsHandler).Methods("GET")
	r.HandleFunc("/profits", s.allDistributionsHandler).Methods("GET")
	r.HandleFunc("/profits/{id}/retry", s.retryDistributionHandler).Methods("POST")
	r.HandleFunc("/profits/{id}/my-share", s.myShareHandler).Methods("GET")

	r.HandleFunc("/investments", s.createInvestmentHandler).Methods("POST")
	r.HandleFunc("/investments/stats/summary", s.investmentStatsHandler).Methods("GET")
	r.HandleFunc("/investments", s.listInvestmentsHandler).Methods("GET")
	r.HandleFunc("/investments/{id}", s.getInvestmentHandler).Methods("GET")
	r.HandleFunc("/investments/{id}", s.updateInvestmentHandler).Methods("PUT")

	r.HandleFunc("/reports/dashboard-stats", s.dashboardStatsHandler).Methods("GET")

	return r
}

func main() {
	cfg := loadConfig()

	var log *zap.Logger
	var err error
	if cfg.Env == "production" {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	sqliteStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatal("failed to initialize store", zap.Error(err))
	}
	defer sqliteStore.Close()

	server := NewServer(sqliteStore, log)

	log.Info("server starting",
		zap.String("addr", cfg.Addr),
		zap.String("db", cfg.DBPath),
		zap.String("env", cfg.Env))
	if err := http.ListenAndServe(cfg.Addr, server.router()); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
