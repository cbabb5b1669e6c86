// Package fixengine assembles the pieces config, store, datadictionary,
// internal/fixlog, internal/fixmetrics and the root quickfix package each
// provide into a set of running Sessions, the shared wiring cmd/fixecho
// and cmd/fixinit both need.
package fixengine

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	quickfix "github.com/qyangdu/gofix"
	"github.com/qyangdu/gofix/config"
	"github.com/qyangdu/gofix/datadictionary"
	"github.com/qyangdu/gofix/internal/fixlog"
	"github.com/qyangdu/gofix/internal/fixmetrics"
	"github.com/qyangdu/gofix/store"
)

// Engine owns every Session built from a Config, plus the shared Registry,
// Logger and Metrics they were wired with.
type Engine struct {
	Registry *quickfix.Registry
	Log      *fixlog.Logger
	Metrics  *fixmetrics.Metrics

	Sessions []*quickfix.Session
	Configs  []config.SessionConfig
}

// AppFactory builds the Application a Session should run, given its
// identity, the shared Registry (so it can route replies to other
// sessions) and Logger; cmd/fixecho and cmd/fixinit both pass a
// constructor for internal/fixapp.EchoApplication.
type AppFactory func(id quickfix.SessionID, reg *quickfix.Registry, log quickfix.Logger) quickfix.Application

// Build constructs an Engine from cfg: one Session per cfg.Sessions entry,
// sharing a store.Factory selected by whether global.file_store_path is
// set, and dictionaries loaded once per distinct path.
func Build(cfg *config.Config, newApp AppFactory) (*Engine, error) {
	reg := quickfix.NewRegistry()
	log := fixlog.New(os.Stderr, cfg.Log.Level, true)
	metrics := fixmetrics.NewMetrics(prometheus.DefaultRegisterer)

	var factory store.Factory
	if cfg.Global.FileStoreDir != "" {
		factory = store.FileStoreFactory{Dir: cfg.Global.FileStoreDir}
	} else {
		factory = store.MemoryStoreFactory{}
	}

	dicts := map[string]*datadictionary.Dictionary{}
	loadDict := func(path string) (*datadictionary.Dictionary, error) {
		if path == "" {
			return nil, nil
		}
		if d, ok := dicts[path]; ok {
			return d, nil
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("fixengine: open data dictionary %s: %w", path, err)
		}
		defer f.Close()
		d, err := datadictionary.Load(f)
		if err != nil {
			return nil, fmt.Errorf("fixengine: load data dictionary %s: %w", path, err)
		}
		dicts[path] = d
		return d, nil
	}

	e := &Engine{Registry: reg, Log: log, Metrics: metrics}

	for _, sc := range cfg.Sessions {
		id := quickfix.SessionID{
			BeginString:  sc.BeginString,
			SenderCompID: sc.SenderCompID,
			TargetCompID: sc.TargetCompID,
			Qualifier:    sc.Qualifier,
		}

		sessionDict, err := loadDict(sc.DataDictionary)
		if err != nil {
			return nil, err
		}
		appDict := sessionDict
		if sc.AppDataDictionary != "" {
			appDict, err = loadDict(sc.AppDataDictionary)
			if err != nil {
				return nil, err
			}
		}

		st, err := factory.Create(store.ID{
			BeginString:  id.BeginString,
			SenderCompID: id.SenderCompID,
			TargetCompID: id.TargetCompID,
			Qualifier:    id.Qualifier,
		})
		if err != nil {
			return nil, fmt.Errorf("fixengine: create message store for %s: %w", id, err)
		}

		resolved := config.Resolve(cfg.Global, sc)
		settings := quickfix.SessionSettings{
			ConnectionType:            resolved.ConnectionType,
			HeartBtInt:                resolved.HeartBtInt,
			ResetOnLogon:              resolved.ResetOnLogon,
			ResetOnLogout:             resolved.ResetOnLogout,
			ResetOnDisconnect:         resolved.ResetOnDisconnect,
			RefreshOnLogon:            resolved.RefreshOnLogon,
			PersistMessages:           resolved.PersistMessages,
			ValidateLengthAndChecksum: resolved.ValidateLengthAndChecksum,
			CheckCompID:               resolved.CheckCompID,
			CheckLatency:              resolved.CheckLatency,
			MaxLatency:                resolved.MaxLatency,
			MillisecondsInTimeStamp:   resolved.MillisecondsInTimeStamp,
			LogonTimeout:              resolved.LogonTimeout,
			LogoutTimeout:             resolved.LogoutTimeout,
			MaxMessageSize:            resolved.MaxMessageSize,
			SenderDefaultApplVerID:    sc.DefaultApplVerID,
		}

		sess := quickfix.NewSession(id, newApp(id, reg, log), st, sessionDict, appDict, settings, log)
		sess.SetMetrics(metrics)

		reg.Register(sess)
		e.Sessions = append(e.Sessions, sess)
		e.Configs = append(e.Configs, sc)
	}

	return e, nil
}
