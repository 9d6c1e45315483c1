package readiness

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager probes the local AI runtime, selects an installed model from the
// candidate list and optionally installs a fallback. Concurrent warmups
// collapse onto a single in-flight probe; every caller observes the same
// settled outcome.
type Manager struct {
	cfg    Config
	log    *zap.Logger
	client *runtimeClient

	mu       sync.Mutex
	state    State
	inflight chan struct{}
}

// NewManager builds a readiness manager with idle initial state.
func NewManager(cfg Config, log *zap.Logger) *Manager {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cfg:    cfg,
		log:    log.Named("readiness"),
		client: newRuntimeClient(cfg.BaseURL),
		state: State{
			PrimaryModel:   cfg.PrimaryModel,
			FallbackModels: append([]string(nil), cfg.FallbackModels...),
			AutoInstall:    cfg.AutoInstall,
		},
	}
}

// Warmup runs the readiness sequence, or attaches to one already in
// flight. It never returns an error: all failure modes are encoded in
// the returned state.
func (m *Manager) Warmup(ctx context.Context) State {
	m.mu.Lock()
	if m.inflight == nil {
		m.inflight = make(chan struct{})
		m.state.WarmingUp = true
		go m.runWarmup(m.inflight)
	}
	done := m.inflight
	m.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
	}
	return m.CurrentState()
}

// CurrentState returns the last-known snapshot without probing.
func (m *Manager) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// ResolveModelName returns the active model when ready, otherwise the
// configured primary as a best-effort guess.
func (m *Manager) ResolveModelName() string {
	state := m.CurrentState()
	if state.Ready && state.ActiveModel != "" {
		return state.ActiveModel
	}
	return m.cfg.PrimaryModel
}

// ResetForTest clears the cached state and any in-flight slot.
func (m *Manager) ResetForTest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inflight = nil
	m.state = State{
		PrimaryModel:   m.cfg.PrimaryModel,
		FallbackModels: append([]string(nil), m.cfg.FallbackModels...),
		AutoInstall:    m.cfg.AutoInstall,
	}
}

func (m *Manager) runWarmup(done chan struct{}) {
	// Detached from any single caller so one cancelled request cannot
	// abort a warmup other callers are waiting on.
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.WarmupTimeout)
	defer cancel()

	next := m.performWarmup(ctx)

	m.mu.Lock()
	m.state = next
	m.inflight = nil
	m.mu.Unlock()
	close(done)
}

func (m *Manager) performWarmup(ctx context.Context) State {
	next := State{
		PrimaryModel:   m.cfg.PrimaryModel,
		FallbackModels: append([]string(nil), m.cfg.FallbackModels...),
		AutoInstall:    m.cfg.AutoInstall,
		LastCheckedAt:  time.Now().UTC(),
	}

	installed, err := m.client.ListInstalledModels(ctx, m.cfg.ProbeTimeout)
	if err != nil {
		next.LastError = "runtime unreachable: " + err.Error()
		m.log.Info("local runtime unreachable", zap.Error(err))
		return next
	}
	next.Reachable = true

	if active := firstInstalledCandidate(m.cfg.candidates(), installed); active != "" {
		next.Ready = true
		next.ActiveModel = active
		m.log.Info("local model ready", zap.String("model", active))
		return next
	}

	if !m.cfg.AutoInstall {
		next.LastError = "no candidate model installed and auto-install disabled"
		return next
	}

	for _, candidate := range m.cfg.candidates() {
		if ctx.Err() != nil {
			next.LastError = "warmup timed out"
			return next
		}

		m.log.Info("installing candidate model", zap.String("model", candidate))
		if err := m.client.InstallModel(ctx, candidate, m.cfg.InstallTimeout); err != nil {
			next.LastError = "install " + candidate + " failed: " + err.Error()
			m.log.Warn("model install failed",
				zap.String("model", candidate),
				zap.Error(err),
			)
			continue
		}

		installed, err = m.client.ListInstalledModels(ctx, m.cfg.ProbeTimeout)
		if err != nil {
			next.Reachable = false
			next.LastError = "runtime unreachable after install: " + err.Error()
			return next
		}
		if active := firstInstalledCandidate([]string{candidate}, installed); active != "" {
			next.Ready = true
			next.ActiveModel = active
			next.LastError = ""
			m.log.Info("local model ready after install", zap.String("model", active))
			return next
		}
	}

	if ctx.Err() != nil {
		next.LastError = "warmup timed out"
	} else if next.LastError == "" {
		next.LastError = "no candidate model could be installed"
	}
	return next
}

// firstInstalledCandidate returns the first candidate present in the
// installed list. An installed "name:latest" tag satisfies an untagged
// candidate "name".
func firstInstalledCandidate(candidates, installed []string) string {
	for _, candidate := range candidates {
		for _, name := range installed {
			if modelMatches(candidate, name) {
				return candidate
			}
		}
	}
	return ""
}

func modelMatches(candidate, installed string) bool {
	if candidate == installed {
		return true
	}
	if !strings.Contains(candidate, ":") && installed == candidate+":latest" {
		return true
	}
	return false
}
