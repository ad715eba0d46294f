// Package status serves a read-only HTTP view of the running bot.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/leverbot/journal"
	"github.com/rustyeddy/leverbot/ledger"
	"github.com/rustyeddy/leverbot/strategy"
)

// Source is the ledger state shown at /status.
type Source interface {
	Snapshot() ledger.Snapshot
}

type PlanSource interface {
	Plan() (strategy.Plan, bool)
}

// EventStore looks up journaled events by order id.
type EventStore interface {
	GetEvents(orderID string) ([]journal.Event, error)
}

type Server struct {
	src    Source
	plans  PlanSource
	events EventStore
	start  time.Time
	log    zerolog.Logger
	srv    *http.Server
}

type Option func(*Server)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log }
}

func WithPlans(p PlanSource) Option {
	return func(s *Server) { s.plans = p }
}

// WithEvents enables /orders/{id}.
func WithEvents(e EventStore) Option {
	return func(s *Server) { s.events = e }
}

func New(addr string, src Source, opts ...Option) *Server {
	s := &Server{src: src, start: time.Now(), log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.HandleFunc("/status", s.status).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	if s.events != nil {
		r.HandleFunc("/orders/{id}", s.order).Methods(http.MethodGet)
	}
	return r
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("status server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("status server")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok\n"))
}

type positionView struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Size       float64 `json:"size"`
	EntryPrice float64 `json:"entry_price,omitempty"`
}

type accountView struct {
	InitialBalance float64 `json:"initial_balance"`
	Balance        float64 `json:"balance"`
	RealizedPnL    float64 `json:"realized_pnl"`
}

type planView struct {
	TakeProfit float64 `json:"take_profit"`
	HardStop   float64 `json:"hard_stop"`
}

type statusView struct {
	Position positionView `json:"position"`
	Account  accountView  `json:"account"`
	Leverage int          `json:"leverage"`
	Plan     *planView    `json:"plan,omitempty"`
	Uptime   string       `json:"uptime"`
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	snap := s.src.Snapshot()
	v := statusView{
		Position: positionView{
			Symbol:     snap.Position.Symbol,
			Side:       snap.Position.Side.String(),
			Size:       snap.Position.Size,
			EntryPrice: snap.Position.EntryPrice,
		},
		Account: accountView{
			InitialBalance: snap.Account.InitialBalance,
			Balance:        snap.Account.Balance,
			RealizedPnL:    snap.Account.RealizedPnL,
		},
		Leverage: snap.Leverage,
		Uptime:   time.Since(s.start).Round(time.Second).String(),
	}
	if s.plans != nil {
		if p, ok := s.plans.Plan(); ok {
			v.Plan = &planView{TakeProfit: p.TakeProfit, HardStop: p.HardStop}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encode status")
	}
}

// order renders the events of one order as Org-mode text.
func (s *Server) order(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	events, err := s.events.GetEvents(id)
	switch {
	case errors.Is(err, journal.ErrNotFound):
		http.Error(w, "order not found", http.StatusNotFound)
		return
	case err != nil:
		s.log.Error().Err(err).Str("order_id", id).Msg("lookup order")
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(journal.FormatEventsOrg(events)))
}
