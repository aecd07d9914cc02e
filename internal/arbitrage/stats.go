package arbitrage

import (
	"sync"
	"time"
)

// Stats accumulates detection counters shared between the cycle and the
// status endpoint. Passes counts completed evaluations; fetch and store
// failures land in Errors instead.
type Stats struct {
	mu                sync.Mutex
	startedAt         time.Time
	passes            uint64
	opportunities     uint64
	errors            uint64
	lastPassAt        time.Time
	lastOpportunityAt time.Time
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	StartedAt         time.Time `json:"started_at"`
	Passes            uint64    `json:"passes"`
	Opportunities     uint64    `json:"opportunities"`
	Errors            uint64    `json:"errors"`
	LastPassAt        time.Time `json:"last_pass_at"`
	LastOpportunityAt time.Time `json:"last_opportunity_at"`
}

func NewStats() *Stats {
	return &Stats{startedAt: time.Now().UTC()}
}

func (s *Stats) recordPass(found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passes++
	s.lastPassAt = time.Now().UTC()
	if found {
		s.opportunities++
		s.lastOpportunityAt = s.lastPassAt
	}
}

func (s *Stats) recordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
}

// Snapshot returns a copy safe to serialize concurrently with the cycle.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		StartedAt:         s.startedAt,
		Passes:            s.passes,
		Opportunities:     s.opportunities,
		Errors:            s.errors,
		LastPassAt:        s.lastPassAt,
		LastOpportunityAt: s.lastOpportunityAt,
	}
}
