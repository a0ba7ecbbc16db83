package gps

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// FrameSink receives framed NMEA sentences from the simulator.
// Deliver reports whether the frame was accepted; a refused frame is
// dropped and never retried, the next tick supersedes it. Deliver
// must not block.
type FrameSink interface {
	Deliver(frame []byte) bool
}

// Position is the fix transmitted on the most recent tick.
type Position struct {
	Time      string     `json:"time"` // hhmmss
	Latitude  Coordinate `json:"-"`
	Longitude Coordinate `json:"-"`
	Lat       float64    `json:"lat"`
	Lon       float64    `json:"lon"`
}

// Status is a point-in-time view of the simulator.
type Status struct {
	Running   bool      `json:"running"`
	Ticks     uint64    `json:"ticks"`
	Delivered uint64    `json:"delivered"`
	Dropped   uint64    `json:"dropped"`
	Params    Params    `json:"params"`
	Position  *Position `json:"position,omitempty"`
}

// Simulator drives the simulated receiver at a fixed rate. Each tick
// advances the clock, re-derives the position from the current
// parameter snapshot and delivers the GGA, RMC, GSA and two GSV
// frames in order. The clock, coordinate model and random source are
// owned by the tick loop and never touched from outside it.
type Simulator struct {
	params *ParamStore
	sink   FrameSink
	rate   time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	clock  *Clock
	coords *CoordinateModel
	enc    *encoder

	gpxWriter *GPXWriter

	ticks     atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
	lastFix   atomic.Pointer[Position]
}

// NewSimulator creates a simulator reading parameters from store and
// delivering frames to sink. A rate of zero or less means 1 Hz.
func NewSimulator(store *ParamStore, sink FrameSink, rate time.Duration) *Simulator {
	if rate <= 0 {
		rate = time.Second
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Simulator{
		params: store,
		sink:   sink,
		rate:   rate,
		clock:  NewClock(),
		coords: NewCoordinateModel(rng),
		enc:    &encoder{rng: rng},
	}
}

// RecordGPX enables GPX track recording of transmitted fixes. Must be
// called before Start.
func (s *Simulator) RecordGPX(w *GPXWriter) {
	s.gpxWriter = w
}

// Start starts the tick loop.
func (s *Simulator) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSimulatorAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.run(ctx)
	return nil
}

// Stop cancels the tick loop and blocks until any in-flight tick has
// completed. Once Stop returns no further frame will be delivered, so
// the sink may be torn down safely.
func (s *Simulator) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSimulatorNotRunning
	}
	s.running = false
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done
	return nil
}

// IsRunning returns whether the tick loop is active.
func (s *Simulator) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// GetStatus returns the current simulator status.
func (s *Simulator) GetStatus() Status {
	return Status{
		Running:   s.IsRunning(),
		Ticks:     s.ticks.Load(),
		Delivered: s.delivered.Load(),
		Dropped:   s.dropped.Load(),
		Params:    s.params.Load(),
		Position:  s.lastFix.Load(),
	}
}

func (s *Simulator) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.gpxWriter != nil {
				s.gpxWriter.Close()
			}
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick performs one simulation period. The amount of work is fixed
// and it never waits: frames the sink refuses are counted and
// dropped.
func (s *Simulator) tick() {
	p := s.params.Load()

	s.clock.Advance()
	s.coords.Update(p)

	frames := make([]string, 0, 5)
	frames = append(frames, s.generateGGA(p))
	frames = append(frames, s.generateRMC(p))
	frames = append(frames, s.generateGSA(p))
	frames = append(frames, s.generateGSV(p)...)

	for _, frame := range frames {
		if s.sink.Deliver([]byte(frame)) {
			s.delivered.Add(1)
		} else {
			s.dropped.Add(1)
		}
	}

	fix := &Position{
		Time:      timeString(s.clock),
		Latitude:  s.coords.Lat,
		Longitude: s.coords.Lon,
		Lat:       s.coords.Lat.Decimal(),
		Lon:       s.coords.Lon.Decimal(),
	}
	s.lastFix.Store(fix)
	s.ticks.Add(1)

	if s.gpxWriter != nil {
		s.gpxWriter.AddTrackPoint(fix.Lat, fix.Lon, 545.4, time.Now())
		if s.gpxWriter.TrackPointCount()%10 == 0 {
			s.gpxWriter.WriteToFile()
		}
	}
}

func timeString(c *Clock) string {
	buf := []byte{
		'0' + byte(c.Hour/10), '0' + byte(c.Hour%10),
		'0' + byte(c.Minute/10), '0' + byte(c.Minute%10),
		'0' + byte(c.Second/10), '0' + byte(c.Second%10),
	}
	return string(buf)
}
