package serialport

import (
	"fmt"
	"os"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// PTY exposes the simulated receiver as a real pseudo-terminal
// device. Frames are written to the master side; consumers open the
// slave (or the stable symlink pointing at it) like any serial
// device. Whether a consumer currently has the slave open cannot be
// observed from user space, so admission is by buffer room alone: the
// kernel queues frames for a not-yet-attached reader and a frame that
// does not fit whole is dropped.
type PTY struct {
	master   *os.File
	slave    *os.File
	link     string
	capacity int
}

// OpenPTY creates a master/slave pair and, when link is non-empty, a
// symlink at link pointing to the slave device. On failure every
// acquired resource is released in reverse order before the error is
// returned.
func OpenPTY(link string) (*PTY, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("open pty: %w", err)
	}

	if err := unix.SetNonblock(int(master.Fd()), true); err != nil {
		slave.Close()
		master.Close()
		return nil, fmt.Errorf("set pty nonblocking: %w", err)
	}

	if link != "" {
		os.Remove(link)
		if err := os.Symlink(slave.Name(), link); err != nil {
			slave.Close()
			master.Close()
			return nil, fmt.Errorf("create device link %s: %w", link, err)
		}
	}

	return &PTY{
		master:   master,
		slave:    slave,
		link:     link,
		capacity: DefaultCapacity,
	}, nil
}

// Name returns the slave device path.
func (p *PTY) Name() string {
	return p.slave.Name()
}

// Link returns the symlink path, or "" when none was created.
func (p *PTY) Link() string {
	return p.link
}

// Deliver writes a frame to the master side. The pending input on the
// slave is checked first so the frame is either queued whole or
// dropped whole; partial writes never reach a reader.
func (p *PTY) Deliver(frame []byte) bool {
	queued, err := unix.IoctlGetInt(int(p.slave.Fd()), unix.TIOCINQ)
	if err != nil {
		return false
	}
	if p.capacity-queued < len(frame) {
		return false
	}
	n, err := p.master.Write(frame)
	return err == nil && n == len(frame)
}

// Close releases the endpoint in reverse order of acquisition:
// symlink, slave, master.
func (p *PTY) Close() error {
	var first error
	if p.link != "" {
		if err := os.Remove(p.link); err != nil && first == nil {
			first = err
		}
	}
	if err := p.slave.Close(); err != nil && first == nil {
		first = err
	}
	if err := p.master.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
