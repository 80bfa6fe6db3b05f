package service

import (
	"sync"

	"github.com/pantrykit/scanbatch/internal/domain"
	"github.com/pantrykit/scanbatch/internal/host"
)

// ModeController holds the session mode. The mode applies globally to
// the whole queue at dispatch time: switching it mid-session changes
// the intended action for every queued item.
type ModeController struct {
	mu   sync.Mutex
	mode domain.Mode
}

// NewModeController initializes the mode from the host's launch
// parameters when a valid "mode" value is present, else INTAKE.
func NewModeController(bridge host.Bridge) *ModeController {
	mode := domain.ModeIntake
	if bridge != nil {
		if m, ok := domain.ParseMode(bridge.LaunchParams().Get("mode")); ok {
			mode = m
		}
	}
	return &ModeController{mode: mode}
}

// Mode returns the current session mode.
func (m *ModeController) Mode() domain.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Set switches the session mode.
func (m *ModeController) Set(mode domain.Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
}

// Toggle flips between intake and depletion and returns the new mode.
func (m *ModeController) Toggle() domain.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == domain.ModeIntake {
		m.mode = domain.ModeDepletion
	} else {
		m.mode = domain.ModeIntake
	}
	return m.mode
}
