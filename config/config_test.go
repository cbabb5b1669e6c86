package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
global:
  connection_type: initiator
  heartbeat_interval: 15s
log:
  level: debug
metrics:
  addr: :9999
sessions:
  - begin_string: FIX.4.2
    sender_comp_id: CLIENT
    target_comp_id: BROKER
    socket_connect_host: 127.0.0.1
    socket_connect_port: 5001
  - begin_string: FIX.4.2
    sender_comp_id: CLIENT
    target_comp_id: BROKER2
    connection_type: acceptor
    reset_on_logon: true
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "initiator", cfg.Global.ConnectionType)
	require.Equal(t, 15*time.Second, cfg.Global.HeartBtInt)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, ":9999", cfg.Metrics.Addr)
	require.Equal(t, "/metrics", cfg.Metrics.Path) // default, not overridden
	require.Len(t, cfg.Sessions, 2)

	require.True(t, cfg.Global.CheckLatency) // default applied
}

func TestResolveOverridesPerSession(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	r0 := Resolve(cfg.Global, cfg.Sessions[0])
	require.Equal(t, "initiator", r0.ConnectionType) // inherited
	require.False(t, r0.ResetOnLogon)

	r1 := Resolve(cfg.Global, cfg.Sessions[1])
	require.Equal(t, "acceptor", r1.ConnectionType) // overridden
	require.True(t, r1.ResetOnLogon)                // overridden
}

func TestValidateRejectsMissingIdentity(t *testing.T) {
	cfg := &Config{Sessions: []SessionConfig{{SenderCompID: "A", TargetCompID: "B"}}}
	err := Validate(cfg)
	require.ErrorIs(t, err, errMissingBeginString)
}

func TestValidateRejectsDuplicateSessions(t *testing.T) {
	sc := SessionConfig{BeginString: "FIX.4.2", SenderCompID: "A", TargetCompID: "B"}
	cfg := &Config{Sessions: []SessionConfig{sc, sc}}
	err := Validate(cfg)
	require.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)
	t.Setenv("GOFIX_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Log.Level)
}
