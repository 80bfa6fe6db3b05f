package service

import (
	"net/url"
	"testing"

	"github.com/pantrykit/scanbatch/internal/domain"
	"github.com/pantrykit/scanbatch/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestModeController_DefaultsToIntake(t *testing.T) {
	m := NewModeController(nil)
	assert.Equal(t, domain.ModeIntake, m.Mode())

	m = NewModeController(&testutil.RecordingBridge{})
	assert.Equal(t, domain.ModeIntake, m.Mode())
}

func TestModeController_ReadsLaunchParams(t *testing.T) {
	bridge := &testutil.RecordingBridge{Params: url.Values{"mode": []string{"remove"}}}
	m := NewModeController(bridge)
	assert.Equal(t, domain.ModeDepletion, m.Mode())
}

func TestModeController_IgnoresInvalidLaunchParam(t *testing.T) {
	bridge := &testutil.RecordingBridge{Params: url.Values{"mode": []string{"purge"}}}
	m := NewModeController(bridge)
	assert.Equal(t, domain.ModeIntake, m.Mode())
}

func TestModeController_SetAndToggle(t *testing.T) {
	m := NewModeController(nil)

	m.Set(domain.ModeDepletion)
	assert.Equal(t, domain.ModeDepletion, m.Mode())

	assert.Equal(t, domain.ModeIntake, m.Toggle())
	assert.Equal(t, domain.ModeDepletion, m.Toggle())
}
