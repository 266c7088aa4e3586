package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.LeaveTimeout)
	assert.Equal(t, 4, cfg.MaxParallelOffers)
	assert.Zero(t, cfg.ReconnectCooldown)
	assert.Len(t, cfg.ICE.STUN, 2)
	assert.Empty(t, cfg.ICE.TURN)
	assert.Equal(t, "127.0.0.1:7070", cfg.ControlAddr)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, "release", cfg.Mode)
}

func TestFileEnvAndFlags(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, `
api_url: http://signal.example:9000
poll_interval: 1500ms
reconnect_cooldown: 2
ice:
  turn: ["turn:turn.example:3478"]
  turn_user: alice
  force_relay: true
media:
  video_file: /tmp/from-file.ivf
`))
	t.Setenv("MESH_TOKEN", "env-token")
	t.Setenv("MESH_ICE_TURN_PASS", "env-pass")
	t.Setenv("MESH_POLL_INTERVAL", "2s")

	fs := pflag.NewFlagSet("join", pflag.ContinueOnError)
	fs.String("video", "", "")
	fs.String("api-url", "", "")
	require.NoError(t, fs.Parse([]string{"--video", "/tmp/flag.ivf"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "http://signal.example:9000", cfg.APIURL, "unset flag must not win")
	assert.Equal(t, 2*time.Second, cfg.PollInterval, "env beats file")
	assert.Equal(t, "env-token", cfg.Token)
	assert.Equal(t, 2, cfg.ReconnectCooldown)
	assert.Equal(t, []string{"turn:turn.example:3478"}, cfg.ICE.TURN)
	assert.Equal(t, "alice", cfg.ICE.TURNUser)
	assert.Equal(t, "env-pass", cfg.ICE.TURNPass)
	assert.True(t, cfg.ICE.ForceRelay)
	assert.Equal(t, "/tmp/flag.ivf", cfg.Media.VideoFile, "flag beats file")
}

func TestInvalidValues(t *testing.T) {
	tests := map[string]string{
		"zero poll":         "poll_interval: 0s",
		"negative timeout":  "leave_timeout: -1s",
		"no offers":         "max_parallel_offers: 0",
		"empty api":         `api_url: ""`,
		"negative cooldown": "reconnect_cooldown: -1",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", writeConfig(t, body))
			_, err := Load(nil)
			assert.Error(t, err)
		})
	}
}

func TestBrokenFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", writeConfig(t, "poll_interval: [unclosed"))
	_, err := Load(nil)
	assert.Error(t, err)
}
