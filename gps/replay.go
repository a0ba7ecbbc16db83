package gps

import (
	"context"
	"sync"
	"time"
)

// Replayer walks a GPX track and republishes each point into the
// parameter store as micro-degree start coordinates, one point per
// interval. The simulator picks each point up on its next tick, so
// replayed positions flow through the same derivation, jitter and
// fault paths as static ones.
type Replayer struct {
	store    *ParamStore
	points   []TrackPoint
	interval time.Duration
	loop     bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewReplayer loads the GPX file at path. An interval of zero or less
// means one point per second.
func NewReplayer(store *ParamStore, path string, interval time.Duration, loop bool) (*Replayer, error) {
	points, err := ReadGPXFile(path)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Replayer{
		store:    store,
		points:   points,
		interval: interval,
		loop:     loop,
	}, nil
}

// Start begins publishing track points. The first point is published
// immediately so the simulator's next tick already uses it.
func (r *Replayer) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrSimulatorAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true

	r.publish(r.points[0])
	go r.run(ctx)
	return nil
}

// Stop halts publishing and blocks until the replay loop has exited.
func (r *Replayer) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return ErrSimulatorNotRunning
	}
	r.running = false
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	cancel()
	<-done
	return nil
}

func (r *Replayer) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	idx := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			idx++
			if idx >= len(r.points) {
				if !r.loop {
					return
				}
				idx = 0
			}
			r.publish(r.points[idx])
		}
	}
}

func (r *Replayer) publish(pt TrackPoint) {
	r.store.SetStartLat(microDegrees(pt.Lat))
	r.store.SetStartLon(microDegrees(pt.Lon))
}

// microDegrees converts decimal degrees to micro-degrees, rounding
// toward the nearest integer.
func microDegrees(deg float64) int {
	scaled := deg * 1000000
	if scaled >= 0 {
		return int(scaled + 0.5)
	}
	return int(scaled - 0.5)
}
