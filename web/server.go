// Package web exposes the runtime settings and status of the
// simulator over HTTP.
package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"gps-sim/gps"
)

// BoolLike accepts JSON true/false as well as 0/non-zero numbers, the
// way the signal_loss parameter is specified.
type BoolLike bool

func (b *BoolLike) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true":
		*b = true
		return nil
	case "false":
		*b = false
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("signal_loss must be a boolean or integer")
	}
	*b = n != 0
	return nil
}

// SettingsPayload is the POST schema. Absent fields are left
// untouched; present fields are normalized exactly like direct store
// writes and never rejected for range.
type SettingsPayload struct {
	StartLat   *int      `json:"start_lat"`
	StartLon   *int      `json:"start_lon"`
	ErrorRate  *int      `json:"error_rate"`
	SignalLoss *BoolLike `json:"signal_loss"`
}

// Handler serves the settings and status API.
func Handler(sim *gps.Simulator, store *gps.ParamStore) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, sim.GetStatus())
	})

	mux.HandleFunc("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, store.Load())
		case http.MethodPost:
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<16))
			if err != nil {
				http.Error(w, "read body failed", http.StatusBadRequest)
				return
			}
			dec := json.NewDecoder(bytes.NewReader(body))
			dec.DisallowUnknownFields()
			var in SettingsPayload
			if err := dec.Decode(&in); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			applySettings(store, in)
			writeJSON(w, store.Load())
		default:
			w.Header().Set("Allow", "GET, POST")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	return mux
}

func applySettings(store *gps.ParamStore, in SettingsPayload) {
	if in.StartLat != nil {
		store.SetStartLat(*in.StartLat)
	}
	if in.StartLon != nil {
		store.SetStartLon(*in.StartLon)
	}
	if in.ErrorRate != nil {
		store.SetErrorRate(*in.ErrorRate)
	}
	if in.SignalLoss != nil {
		store.SetSignalLoss(bool(*in.SignalLoss))
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
	_, _ = w.Write([]byte("\n"))
}
