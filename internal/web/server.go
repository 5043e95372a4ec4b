package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/vadiminshakov/fundledger/internal/date"
	"github.com/vadiminshakov/fundledger/internal/domain"
	"github.com/vadiminshakov/fundledger/internal/events"
	"github.com/vadiminshakov/fundledger/internal/services/balance"
)

const heartbeatInterval = 30 * time.Second

type balanceReader interface {
	BalanceAsOfDate(id domain.AccountID, d date.Date) (domain.AccountBalance, error)
	BalancesByEvent(id domain.AccountID, r date.Range) ([]balance.EventBalance, error)
	BalanceForPeriod(id domain.AccountID, period domain.PeriodID) (balance.PeriodBalance, error)
}

type ledgerReader interface {
	Funds() []domain.Fund
	Accounts() []domain.Account
	Periods() []domain.AccountingPeriod
}

// Server exposes read-only JSON endpoints over the ledger and an SSE stream
// of committed changes.
type Server struct {
	Addr          string
	Balances      balanceReader
	Ledger        ledgerReader
	Notifications *events.Broadcaster
	Logger        *zap.Logger
}

// NewServer creates a new web server instance.
func NewServer(addr string, balances balanceReader, ledger ledgerReader, notifications *events.Broadcaster, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Addr: addr, Balances: balances, Ledger: ledger, Notifications: notifications, Logger: logger}
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /funds", s.handleFunds)
	mux.HandleFunc("GET /accounts", s.handleAccounts)
	mux.HandleFunc("GET /periods", s.handlePeriods)
	mux.HandleFunc("GET /accounts/{id}/balance", s.handleBalance)
	mux.HandleFunc("GET /accounts/{id}/events", s.handleEvents)
	mux.HandleFunc("GET /accounts/{id}/periods/{period}", s.handlePeriodBalance)
	mux.HandleFunc("GET /stream", s.handleStream)
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.Logger.Info("http server listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS serves HTTPS with ACME certificates for host. A plain
// HTTP server on :80 answers the HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, host, cacheDir string) error {
	if host == "" {
		return fmt.Errorf("no domain provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(host),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12
	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			s.Logger.Warn("acme server shutdown", zap.Error(err))
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil {
			s.Logger.Warn("https server shutdown", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error("acme server", zap.Error(err))
		}
	}()

	s.Logger.Info("https server listening", zap.String("addr", s.Addr), zap.String("domain", host))
	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleFunds(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Ledger.Funds())
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Ledger.Accounts())
}

func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Ledger.Periods())
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	on := date.Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := date.Parse(raw)
		if err != nil {
			s.writeError(w, domain.Structuralf("%v", err))
			return
		}
		on = parsed
	}

	b, err := s.Balances.BalanceAsOfDate(domain.AccountID(r.PathValue("id")), on)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var rng date.Range
	for _, p := range []struct {
		name string
		dst  *date.Date
	}{{"from", &rng.From}, {"to", &rng.To}} {
		raw := r.URL.Query().Get(p.name)
		if raw == "" {
			continue
		}
		parsed, err := date.Parse(raw)
		if err != nil {
			s.writeError(w, domain.Structuralf("%s: %v", p.name, err))
			return
		}
		*p.dst = parsed
	}

	running, err := s.Balances.BalancesByEvent(domain.AccountID(r.PathValue("id")), rng)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if running == nil {
		running = []balance.EventBalance{}
	}
	s.writeJSON(w, http.StatusOK, running)
}

func (s *Server) handlePeriodBalance(w http.ResponseWriter, r *http.Request) {
	pb, err := s.Balances.BalanceForPeriod(domain.AccountID(r.PathValue("id")), domain.PeriodID(r.PathValue("period")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pb)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.Notifications == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "notifications not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.Notifications.Subscribe()
	defer s.Notifications.Unsubscribe(ch)

	// comment heartbeat so proxies keep the connection
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case n, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(n)
			if err != nil {
				s.Logger.Warn("encode notification", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\n", n.Kind)
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrStructural):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed", zap.Error(err))
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
