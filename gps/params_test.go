package gps

import (
	"sync"
	"testing"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.StartLat != -35315075 {
		t.Errorf("default StartLat = %d, want -35315075", p.StartLat)
	}
	if p.StartLon != 149129404 {
		t.Errorf("default StartLon = %d, want 149129404", p.StartLon)
	}
	if p.ErrorRate != 0 {
		t.Errorf("default ErrorRate = %d, want 0", p.ErrorRate)
	}
	if p.SignalLoss {
		t.Error("default SignalLoss should be false")
	}
}

func TestSetErrorRateClamping(t *testing.T) {
	tests := []struct {
		name  string
		write int
		want  int
	}{
		{name: "In range", write: 42, want: 42},
		{name: "Above range", write: 150, want: 100},
		{name: "Below range", write: -5, want: 0},
		{name: "Upper bound", write: 100, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewParamStore(DefaultParams())
			store.SetErrorRate(tt.write)
			if got := store.Load().ErrorRate; got != tt.want {
				t.Errorf("SetErrorRate(%d) stored %d, want %d", tt.write, got, tt.want)
			}
		})
	}
}

func TestSetByKey(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value int
		check func(Params) bool
		known bool
	}{
		{name: "Latitude", key: KeyStartLat, value: 51117300, check: func(p Params) bool { return p.StartLat == 51117300 }, known: true},
		{name: "Longitude", key: KeyStartLon, value: -2516600, check: func(p Params) bool { return p.StartLon == -2516600 }, known: true},
		{name: "Error rate clamped", key: KeyErrorRate, value: 150, check: func(p Params) bool { return p.ErrorRate == 100 }, known: true},
		{name: "Signal loss coerced", key: KeySignalLoss, value: 7, check: func(p Params) bool { return p.SignalLoss }, known: true},
		{name: "Signal loss zero", key: KeySignalLoss, value: 0, check: func(p Params) bool { return !p.SignalLoss }, known: true},
		{name: "Unknown key", key: "altitude", value: 1, check: func(p Params) bool { return p == DefaultParams() }, known: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewParamStore(DefaultParams())
			if got := store.Set(tt.key, tt.value); got != tt.known {
				t.Errorf("Set(%q) recognized = %t, want %t", tt.key, got, tt.known)
			}
			if !tt.check(store.Load()) {
				t.Errorf("Set(%q, %d) left store at %+v", tt.key, tt.value, store.Load())
			}
		})
	}
}

func TestSetString(t *testing.T) {
	store := NewParamStore(DefaultParams())

	if !store.SetString(KeySignalLoss, "true") {
		t.Error("SetString should accept boolean literals for signal_loss")
	}
	if !store.Load().SignalLoss {
		t.Error("signal_loss should be true")
	}
	if !store.SetString(KeySignalLoss, "0") {
		t.Error("SetString should accept 0/1 for signal_loss")
	}
	if store.Load().SignalLoss {
		t.Error("signal_loss should be false")
	}
	if store.SetString(KeyErrorRate, "lots") {
		t.Error("SetString should report unparseable values")
	}
}

func TestNewParamStoreNormalizes(t *testing.T) {
	store := NewParamStore(Params{ErrorRate: 250})
	if got := store.Load().ErrorRate; got != 100 {
		t.Errorf("initial ErrorRate = %d, want 100", got)
	}
}

// Writers publish whole snapshots: a reader must never observe a
// torn update.
func TestConcurrentAccess(t *testing.T) {
	store := NewParamStore(Params{})

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			// Both fields move together; a torn snapshot would
			// expose a mismatched pair.
			store.update(func(p *Params) {
				p.StartLat = i
				p.StartLon = -i
			})
		}
		close(stop)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			p := store.Load()
			if p.StartLat != -p.StartLon {
				t.Errorf("torn snapshot: lat=%d lon=%d", p.StartLat, p.StartLon)
				return
			}
			select {
			case <-stop:
				return
			default:
			}
		}
	}()

	wg.Wait()
}
