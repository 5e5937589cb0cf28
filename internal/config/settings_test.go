package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/wsforge/internal/planner"
)

func writeConfig(t *testing.T, p *Paths, body string) {
	t.Helper()
	require.NoError(t, p.EnsureDirectories())
	require.NoError(t, os.WriteFile(p.Config, []byte(body), 0644))
}

func TestLoadSettings_DefaultsWithoutFile(t *testing.T) {
	s, err := LoadSettings(PathsAt(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
	assert.Equal(t, planner.ResolutionMerge, s.DefaultResolution())
}

func TestLoadSettings_ReadsFile(t *testing.T) {
	p := PathsAt(t.TempDir())
	writeConfig(t, p, `
git:
  binary: /usr/local/bin/git
  timeout: 10s
apply:
  default_resolution: cancel
  strict_conflicts: true
validate:
  concurrency: 2
log:
  level: debug
`)

	s, err := LoadSettings(p)
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/git", s.Git.Binary)
	assert.Equal(t, 10*time.Second, s.Git.Timeout)
	assert.Equal(t, planner.ResolutionCancel, s.DefaultResolution())
	assert.True(t, s.Apply.StrictConflicts)
	assert.Equal(t, 2, s.Validate.Concurrency)
	assert.Equal(t, 5*time.Minute, s.Validate.Interval, "unset keys keep defaults")
	assert.Equal(t, "debug", s.Log.Level)
}

func TestLoadSettings_EnvOverridesFile(t *testing.T) {
	p := PathsAt(t.TempDir())
	writeConfig(t, p, "git:\n  timeout: 10s\n")
	t.Setenv("WSFORGE_GIT_TIMEOUT", "45s")
	t.Setenv("WSFORGE_APPLY_DEFAULT_RESOLUTION", "overwrite")

	s, err := LoadSettings(p)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, s.Git.Timeout)
	assert.Equal(t, planner.ResolutionOverwrite, s.DefaultResolution())
}

func TestLoadSettings_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown resolution", body: "apply:\n  default_resolution: skip\n"},
		{name: "zero timeout", body: "git:\n  timeout: 0s\n"},
		{name: "zero concurrency", body: "validate:\n  concurrency: 0\n"},
		{name: "malformed yaml", body: "git: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PathsAt(t.TempDir())
			writeConfig(t, p, tt.body)

			_, err := LoadSettings(p)
			assert.Error(t, err)
		})
	}
}

func TestDefaultSettings_PassCheck(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.check())

	s.Validate.Concurrency = 0
	assert.ErrorContains(t, s.check(), "validate.concurrency")
}
