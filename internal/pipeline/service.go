package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/fundlens/internal/analysis"
	"github.com/wonny/fundlens/internal/registry"
	"github.com/wonny/fundlens/pkg/logger"
)

// Service holds the instrument list and the latest run's results behind one
// mutex, so the HTTP handlers and the scheduler share a single view. The
// pipeline itself stays stateless.
type Service struct {
	pipeline *Pipeline
	logger   *logger.Logger

	mu          sync.RWMutex
	funds       []registry.Fund
	results     []Result
	lastRefresh time.Time
	refreshing  bool
}

func NewService(p *Pipeline, funds []registry.Fund, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		pipeline: p,
		logger:   log.WithComponent("service"),
		funds:    funds,
	}
}

// Funds returns a copy of the current instrument list.
func (s *Service) Funds() []registry.Fund {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]registry.Fund, len(s.funds))
	copy(out, s.funds)
	return out
}

// Results returns the latest run's results and when they were produced.
func (s *Service) Results() ([]Result, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out, s.lastRefresh
}

// Result looks up the latest result for one instrument by ISIN or ticker.
func (s *Service) Result(id string) (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.results {
		if f := r.Fund; f.ID() == id || f.ISIN == id || f.Ticker == id {
			return r, true
		}
	}
	return Result{}, false
}

// AddFund registers a new instrument. The next refresh picks it up.
func (s *Service) AddFund(f registry.Fund) error {
	if f.ISIN == "" && f.Ticker == "" {
		return fmt.Errorf("fund needs an isin or a ticker")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := registry.Lookup(s.funds, f.ID()); ok {
		return fmt.Errorf("instrument %s already registered", f.ID())
	}
	s.funds = append(s.funds, f)
	return nil
}

// RemoveFund drops an instrument and its latest result.
func (s *Service) RemoveFund(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.funds[:0]
	removed := false
	for _, f := range s.funds {
		if f.ID() == id || f.ISIN == id || f.Ticker == id {
			removed = true
			continue
		}
		kept = append(kept, f)
	}
	s.funds = kept

	if removed {
		results := s.results[:0]
		for _, r := range s.results {
			if r.Fund.ID() != id && r.Fund.ISIN != id && r.Fund.Ticker != id {
				results = append(results, r)
			}
		}
		s.results = results
	}
	return removed
}

// Refresh runs the pipeline over the current instrument list and swaps in
// the new results. Concurrent refreshes coalesce: the second caller gets an
// error instead of a duplicate run.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.refreshing {
		s.mu.Unlock()
		return fmt.Errorf("refresh already in progress")
	}
	s.refreshing = true
	funds := make([]registry.Fund, len(s.funds))
	copy(funds, s.funds)
	s.mu.Unlock()

	results := s.pipeline.Run(ctx, funds)

	s.mu.Lock()
	s.results = results
	s.lastRefresh = time.Now()
	s.refreshing = false
	s.mu.Unlock()
	return nil
}

// Comparison builds the base-100 table over the latest results.
func (s *Service) Comparison(opts analysis.CompareOptions) (*analysis.Comparison, error) {
	results, _ := s.Results()
	if len(results) == 0 {
		return nil, fmt.Errorf("no results yet, refresh first")
	}
	return BuildComparison(results, opts)
}
