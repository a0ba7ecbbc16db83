package gps

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// Params is one immutable snapshot of the simulation parameters.
// Latitude and longitude are in micro-degrees (degrees * 1,000,000).
type Params struct {
	StartLat   int  `json:"start_lat"`
	StartLon   int  `json:"start_lon"`
	ErrorRate  int  `json:"error_rate"` // checksum corruption probability, percent
	SignalLoss bool `json:"signal_loss"`
}

// DefaultParams returns the load-time parameter defaults.
// -35.315075, 149.129404 is Canberra.
func DefaultParams() Params {
	return Params{
		StartLat:   -35315075,
		StartLon:   149129404,
		ErrorRate:  0,
		SignalLoss: false,
	}
}

// ParamStore publishes parameter snapshots to the tick loop. Reads are
// lock-free; writers are serialized and publish a fresh snapshot that
// the next tick observes in full, never a half-written one.
type ParamStore struct {
	mu  sync.Mutex // serializes writers
	cur atomic.Pointer[Params]
}

// NewParamStore creates a store holding the given initial parameters,
// normalized the same way runtime writes are.
func NewParamStore(p Params) *ParamStore {
	s := &ParamStore{}
	p.ErrorRate = clampErrorRate(p.ErrorRate)
	s.cur.Store(&p)
	return s
}

// Load returns the current parameter snapshot. Safe to call from the
// tick loop; never blocks on a writer.
func (s *ParamStore) Load() Params {
	return *s.cur.Load()
}

// SetStartLat updates the starting latitude in micro-degrees.
func (s *ParamStore) SetStartLat(v int) {
	s.update(func(p *Params) { p.StartLat = v })
}

// SetStartLon updates the starting longitude in micro-degrees.
func (s *ParamStore) SetStartLon(v int) {
	s.update(func(p *Params) { p.StartLon = v })
}

// SetErrorRate updates the checksum corruption probability. Values
// outside [0,100] are clamped, never rejected.
func (s *ParamStore) SetErrorRate(v int) {
	s.update(func(p *Params) { p.ErrorRate = clampErrorRate(v) })
}

// SetSignalLoss updates the signal loss flag.
func (s *ParamStore) SetSignalLoss(v bool) {
	s.update(func(p *Params) { p.SignalLoss = v })
}

// Parameter keys accepted by Set.
const (
	KeyStartLat   = "start_lat"
	KeyStartLon   = "start_lon"
	KeyErrorRate  = "error_rate"
	KeySignalLoss = "signal_loss"
)

// Set updates a parameter by key from an integer value, applying the
// same normalization as the typed setters: error_rate is clamped to
// [0,100] and any non-zero signal_loss write is coerced to true.
// It reports whether the key was recognized; values are never
// rejected.
func (s *ParamStore) Set(key string, value int) bool {
	switch key {
	case KeyStartLat:
		s.SetStartLat(value)
	case KeyStartLon:
		s.SetStartLon(value)
	case KeyErrorRate:
		s.SetErrorRate(value)
	case KeySignalLoss:
		s.SetSignalLoss(value != 0)
	default:
		return false
	}
	return true
}

// SetString is Set for string-typed sources such as the settings
// surface. Booleans accept 0/1 as well as true/false. It reports
// whether the key was recognized and the value parsed.
func (s *ParamStore) SetString(key, value string) bool {
	if key == KeySignalLoss {
		if b, err := strconv.ParseBool(value); err == nil {
			s.SetSignalLoss(b)
			return true
		}
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return false
	}
	return s.Set(key, v)
}

func (s *ParamStore) update(f func(*Params)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *s.cur.Load()
	f(&p)
	s.cur.Store(&p)
}

func clampErrorRate(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
