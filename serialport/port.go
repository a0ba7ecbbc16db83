// Package serialport provides the virtual serial endpoint the
// simulator delivers NMEA frames into: an in-memory port with
// explicit session accounting, and a PTY-backed endpoint that shows
// up as a real device node.
package serialport

import (
	"errors"
	"io"
	"sync"
)

// Port lifecycle states.
type State int

const (
	StateUnregistered State = iota
	StateRegistered
	StateDeviceCreated
)

// Errors returned by the virtual serial port.
var (
	ErrDeviceNotCreated = errors.New("device has not been created")
	ErrUnregistered     = errors.New("port is unregistered")
	ErrSessionClosed    = errors.New("session is closed")
)

// DefaultCapacity is the delivery buffer size in bytes, matching a
// typical tty flip buffer.
const DefaultCapacity = 4096

// Port is an in-memory virtual serial port. All open sessions share
// one delivery buffer: a byte read by one session is consumed for all
// of them, there is no per-client isolation. Deliveries are accepted
// only while at least one session is open and are dropped whole when
// the buffer lacks room for the full frame.
type Port struct {
	mu       sync.Mutex
	cond     *sync.Cond
	state    State
	capacity int
	sessions int
	buf      []byte
}

// New returns a registered port with the given buffer capacity.
// A capacity of zero or less means DefaultCapacity.
func New(capacity int) *Port {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	p := &Port{
		state:    StateRegistered,
		capacity: capacity,
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// CreateDevice makes the device node available for opening.
func (p *Port) CreateDevice() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateUnregistered {
		return ErrUnregistered
	}
	p.state = StateDeviceCreated
	return nil
}

// State returns the current lifecycle state.
func (p *Port) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Sessions returns the number of currently open sessions.
func (p *Port) Sessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions
}

// Open opens a client session. Safe for concurrent callers and
// succeeds regardless of whether the simulator is already delivering.
func (p *Port) Open() (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateUnregistered:
		return nil, ErrUnregistered
	case StateRegistered:
		return nil, ErrDeviceNotCreated
	}
	p.sessions++
	return &Session{port: p}, nil
}

// Deliver queues a frame for reading. It reports false, without
// error, when no session is open, the port is torn down, or the
// buffer lacks room for the entire frame; a frame is never split.
func (p *Port) Deliver(frame []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateDeviceCreated || p.sessions == 0 {
		return false
	}
	if p.capacity-len(p.buf) < len(frame) {
		return false
	}
	p.buf = append(p.buf, frame...)
	p.cond.Broadcast()
	return true
}

// WriteRoom returns the free space in the delivery buffer.
func (p *Port) WriteRoom() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capacity - len(p.buf)
}

// Unregister tears the port down. Blocked readers are woken with
// io.EOF and any further operation fails.
func (p *Port) Unregister() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = StateUnregistered
	p.buf = nil
	p.cond.Broadcast()
}

// Session is one open handle on the port.
type Session struct {
	port   *Port
	closed bool
}

// Read blocks until frame bytes are available, the session is closed,
// or the port is unregistered. Bytes read are consumed from the
// shared buffer.
func (s *Session) Read(b []byte) (int, error) {
	p := s.port
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if s.closed {
			return 0, ErrSessionClosed
		}
		if p.state == StateUnregistered {
			return 0, io.EOF
		}
		if len(p.buf) > 0 {
			n := copy(b, p.buf)
			p.buf = p.buf[n:]
			return n, nil
		}
		p.cond.Wait()
	}
}

// Write accepts and discards host-to-device bytes, reporting the full
// length: the simulated receiver ignores input but pretends to be a
// real device.
func (s *Session) Write(b []byte) (int, error) {
	p := s.port
	p.mu.Lock()
	defer p.mu.Unlock()

	if s.closed {
		return 0, ErrSessionClosed
	}
	if p.state == StateUnregistered {
		return 0, ErrUnregistered
	}
	return len(b), nil
}

// Close ends the session. Closing twice is a no-op.
func (s *Session) Close() error {
	p := s.port
	p.mu.Lock()
	defer p.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if p.sessions > 0 {
		p.sessions--
	}
	p.cond.Broadcast()
	return nil
}
