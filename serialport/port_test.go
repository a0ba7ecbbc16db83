package serialport

import (
	"io"
	"sync"
	"testing"
	"time"
)

func createOpenPort(t *testing.T, capacity int) (*Port, *Session) {
	t.Helper()
	p := New(capacity)
	if err := p.CreateDevice(); err != nil {
		t.Fatalf("CreateDevice failed: %v", err)
	}
	s, err := p.Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return p, s
}

func TestPortLifecycle(t *testing.T) {
	p := New(0)
	if p.State() != StateRegistered {
		t.Errorf("new port state = %v, want StateRegistered", p.State())
	}

	if _, err := p.Open(); err != ErrDeviceNotCreated {
		t.Errorf("Open before CreateDevice = %v, want ErrDeviceNotCreated", err)
	}

	if err := p.CreateDevice(); err != nil {
		t.Fatalf("CreateDevice failed: %v", err)
	}
	if p.State() != StateDeviceCreated {
		t.Errorf("state after CreateDevice = %v, want StateDeviceCreated", p.State())
	}

	s, err := p.Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if p.Sessions() != 1 {
		t.Errorf("sessions = %d, want 1", p.Sessions())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if p.Sessions() != 0 {
		t.Errorf("sessions after close = %d, want 0", p.Sessions())
	}

	// Reopening after close is allowed any number of times.
	if _, err := p.Open(); err != nil {
		t.Fatalf("reopen failed: %v", err)
	}

	p.Unregister()
	if _, err := p.Open(); err != ErrUnregistered {
		t.Errorf("Open after Unregister = %v, want ErrUnregistered", err)
	}
	if err := p.CreateDevice(); err != ErrUnregistered {
		t.Errorf("CreateDevice after Unregister = %v, want ErrUnregistered", err)
	}
}

func TestDeliverRequiresOpenSession(t *testing.T) {
	p := New(0)
	if err := p.CreateDevice(); err != nil {
		t.Fatal(err)
	}

	if p.Deliver([]byte("$GNGGA,x*00\r\n")) {
		t.Error("Deliver with no open session should report false")
	}

	s, err := p.Open()
	if err != nil {
		t.Fatal(err)
	}
	if !p.Deliver([]byte("$GNGGA,x*00\r\n")) {
		t.Error("Deliver with an open session should succeed")
	}

	s.Close()
	if p.Deliver([]byte("$GNGGA,x*00\r\n")) {
		t.Error("Deliver after last close should report false")
	}
}

func TestDeliverDropsWholeFrame(t *testing.T) {
	p, s := createOpenPort(t, 16)

	if !p.Deliver([]byte("0123456789")) {
		t.Fatal("first frame should fit")
	}
	if room := p.WriteRoom(); room != 6 {
		t.Errorf("WriteRoom = %d, want 6", room)
	}

	// 10 bytes do not fit in the remaining 6: the whole frame drops,
	// nothing is partially queued.
	if p.Deliver([]byte("0123456789")) {
		t.Error("oversized frame should be refused")
	}
	if room := p.WriteRoom(); room != 6 {
		t.Errorf("WriteRoom after refused frame = %d, want 6", room)
	}

	// A frame that exactly fits is accepted.
	if !p.Deliver([]byte("012345")) {
		t.Error("exactly fitting frame should be accepted")
	}
	_ = s
}

func TestSessionRead(t *testing.T) {
	p, s := createOpenPort(t, 0)

	p.Deliver([]byte("$GNGGA,a*00\r\n"))
	p.Deliver([]byte("$GNRMC,b*00\r\n"))

	buf := make([]byte, 64)
	n, err := s.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got := string(buf[:n]); got != "$GNGGA,a*00\r\n$GNRMC,b*00\r\n" {
		t.Errorf("Read = %q, want both frames in order", got)
	}

	// Consumed bytes free room in the shared buffer.
	if room := p.WriteRoom(); room != DefaultCapacity {
		t.Errorf("WriteRoom after read = %d, want %d", room, DefaultCapacity)
	}
}

func TestSessionReadBlocksUntilDeliver(t *testing.T) {
	p, s := createOpenPort(t, 0)

	got := make(chan string, 1)
	go func() {
		buf := make([]byte, 64)
		n, err := s.Read(buf)
		if err != nil {
			got <- "error: " + err.Error()
			return
		}
		got <- string(buf[:n])
	}()

	time.Sleep(10 * time.Millisecond)
	if !p.Deliver([]byte("frame")) {
		t.Fatal("Deliver failed")
	}

	select {
	case v := <-got:
		if v != "frame" {
			t.Errorf("blocked read returned %q, want \"frame\"", v)
		}
	case <-time.After(time.Second):
		t.Fatal("read did not wake after delivery")
	}
}

func TestSessionWriteDiscards(t *testing.T) {
	p, s := createOpenPort(t, 0)

	n, err := s.Write([]byte("$PMTK104*37\r\n"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != 13 {
		t.Errorf("Write returned %d, want 13", n)
	}

	// Client writes never reach the delivery buffer.
	if room := p.WriteRoom(); room != DefaultCapacity {
		t.Errorf("WriteRoom after client write = %d, want %d", room, DefaultCapacity)
	}
}

func TestUnregisterWakesReaders(t *testing.T) {
	p, s := createOpenPort(t, 0)

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Read(make([]byte, 8))
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	p.Unregister()

	select {
	case err := <-errCh:
		if err != io.EOF {
			t.Errorf("read after Unregister = %v, want io.EOF", err)
		}
	case <-time.After(time.Second):
		t.Fatal("reader not woken by Unregister")
	}
}

func TestSessionCloseIdempotent(t *testing.T) {
	p, s := createOpenPort(t, 0)

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if p.Sessions() != 0 {
		t.Errorf("sessions = %d, want 0 after double close", p.Sessions())
	}
	if _, err := s.Read(make([]byte, 8)); err != ErrSessionClosed {
		t.Errorf("Read on closed session = %v, want ErrSessionClosed", err)
	}
	if _, err := s.Write([]byte("x")); err != ErrSessionClosed {
		t.Errorf("Write on closed session = %v, want ErrSessionClosed", err)
	}
}

func TestConcurrentOpenClose(t *testing.T) {
	p := New(0)
	if err := p.CreateDevice(); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s, err := p.Open()
				if err != nil {
					t.Errorf("concurrent Open failed: %v", err)
					return
				}
				s.Close()
			}
		}()
	}
	wg.Wait()

	if p.Sessions() != 0 {
		t.Errorf("sessions = %d, want 0 after all closes", p.Sessions())
	}
}
