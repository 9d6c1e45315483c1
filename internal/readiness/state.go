package readiness

import "time"

// State is a point-in-time snapshot of local runtime readiness. Callers
// receive copies; only the warmup routine mutates the cached value.
type State struct {
	WarmingUp      bool      `json:"warming_up"`
	Reachable      bool      `json:"reachable"`
	Ready          bool      `json:"ready"`
	ActiveModel    string    `json:"active_model"`
	PrimaryModel   string    `json:"primary_model"`
	FallbackModels []string  `json:"fallback_models"`
	AutoInstall    bool      `json:"auto_install"`
	LastCheckedAt  time.Time `json:"last_checked_at"`
	LastError      string    `json:"last_error,omitempty"`
}

func (s State) clone() State {
	out := s
	out.FallbackModels = append([]string(nil), s.FallbackModels...)
	return out
}
