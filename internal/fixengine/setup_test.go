package fixengine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	quickfix "github.com/qyangdu/gofix"
	"github.com/qyangdu/gofix/config"
)

const sampleYAML = `
global:
  connection_type: initiator
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
    socket_accept_port: 6001
`

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

func TestBuildConstructsOneSessionPerEntry(t *testing.T) {
	cfg := loadTestConfig(t)

	var builtIDs []quickfix.SessionID
	engine, err := Build(cfg, func(id quickfix.SessionID, reg *quickfix.Registry, log quickfix.Logger) quickfix.Application {
		builtIDs = append(builtIDs, id)
		return &stubApp{}
	})
	require.NoError(t, err)

	require.Len(t, engine.Sessions, 2)
	require.Len(t, builtIDs, 2)

	for _, sess := range engine.Sessions {
		_, ok := engine.Registry.Lookup(sess.ID())
		require.True(t, ok)
	}
}

func TestBuildUsesFileStoreWhenConfigured(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Global.FileStoreDir = t.TempDir()

	engine, err := Build(cfg, func(id quickfix.SessionID, reg *quickfix.Registry, log quickfix.Logger) quickfix.Application {
		return &stubApp{}
	})
	require.NoError(t, err)
	require.Len(t, engine.Sessions, 2)

	entries, err := os.ReadDir(cfg.Global.FileStoreDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
}

type stubApp struct{}

func (stubApp) OnCreate(quickfix.SessionID)                          {}
func (stubApp) OnLogon(quickfix.SessionID)                           {}
func (stubApp) OnLogout(quickfix.SessionID)                          {}
func (stubApp) ToAdmin(*quickfix.Message, quickfix.SessionID) error  { return nil }
func (stubApp) ToApp(*quickfix.Message, quickfix.SessionID) error    { return nil }
func (stubApp) FromAdmin(*quickfix.Message, quickfix.SessionID) error { return nil }
func (stubApp) FromApp(*quickfix.Message, quickfix.SessionID) error   { return nil }
