// Package config loads FIX engine configuration using koanf/v2: a YAML
// file of global defaults plus a list of per-session overrides, with
// environment variable overrides layered on top, mirroring the
// reference engine's SessionSettings .cfg/[DEFAULT]/[SESSION] layering.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the complete engine configuration: one Global block of
// defaults and a list of Sessions that inherit from it.
type Config struct {
	Global   GlobalConfig    `koanf:"global"`
	Log      LogConfig       `koanf:"log"`
	Metrics  MetricsConfig   `koanf:"metrics"`
	Sessions []SessionConfig `koanf:"sessions"`
}

// GlobalConfig holds defaults every SessionConfig inherits unless it sets
// its own value.
type GlobalConfig struct {
	ConnectionType            string        `koanf:"connection_type"`
	HeartBtInt                time.Duration `koanf:"heartbeat_interval"`
	ResetOnLogon              bool          `koanf:"reset_on_logon"`
	ResetOnLogout             bool          `koanf:"reset_on_logout"`
	ResetOnDisconnect         bool          `koanf:"reset_on_disconnect"`
	RefreshOnLogon            bool          `koanf:"refresh_on_logon"`
	PersistMessages           bool          `koanf:"persist_messages"`
	ValidateLengthAndChecksum bool          `koanf:"validate_length_and_checksum"`
	CheckCompID               bool          `koanf:"check_comp_id"`
	CheckLatency              bool          `koanf:"check_latency"`
	MaxLatency                time.Duration `koanf:"max_latency"`
	MillisecondsInTimeStamp   bool          `koanf:"milliseconds_in_timestamp"`
	LogonTimeout              time.Duration `koanf:"logon_timeout"`
	LogoutTimeout             time.Duration `koanf:"logout_timeout"`
	MaxMessageSize            int           `koanf:"max_message_size"`
	FileStoreDir              string        `koanf:"file_store_path"`
	DataDictionaryDir         string        `koanf:"data_dictionary_path"`
}

// LogConfig configures the zerolog writer backing internal/fixlog.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
	Path string `koanf:"path"`
}

// SessionConfig describes one FIX session, overriding GlobalConfig's
// defaults field-by-field when its own fields are non-zero.
type SessionConfig struct {
	BeginString  string `koanf:"begin_string"`
	SenderCompID string `koanf:"sender_comp_id"`
	TargetCompID string `koanf:"target_comp_id"`
	Qualifier    string `koanf:"qualifier"`

	ConnectionType string `koanf:"connection_type"`

	SocketConnectHost string `koanf:"socket_connect_host"`
	SocketConnectPort int    `koanf:"socket_connect_port"`
	SocketAcceptPort  int    `koanf:"socket_accept_port"`

	StartTime string `koanf:"start_time"`
	EndTime   string `koanf:"end_time"`

	HeartBtInt        *time.Duration `koanf:"heartbeat_interval"`
	ResetOnLogon      *bool          `koanf:"reset_on_logon"`
	ResetOnLogout     *bool          `koanf:"reset_on_logout"`
	ResetOnDisconnect *bool          `koanf:"reset_on_disconnect"`
	PersistMessages   *bool          `koanf:"persist_messages"`

	DataDictionary    string `koanf:"data_dictionary"`
	AppDataDictionary string `koanf:"app_data_dictionary"`

	DefaultApplVerID string `koanf:"default_appl_ver_id"`
}

var errMissingBeginString = errors.New("session missing begin_string")
var errMissingCompIDs = errors.New("session missing sender_comp_id or target_comp_id")

// envPrefix is the environment variable prefix for engine configuration.
const envPrefix = "GOFIX_"

// Load reads a YAML config file at path, overlays GOFIX_ environment
// variable overrides, and unmarshals into a validated Config.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"global.connection_type":               "initiator",
		"global.heartbeat_interval":             "30s",
		"global.check_comp_id":                 true,
		"global.check_latency":                  true,
		"global.max_latency":                    "120s",
		"global.logon_timeout":                  "10s",
		"global.logout_timeout":                 "2s",
		"global.max_message_size":               1 << 20,
		"global.validate_length_and_checksum":   true,
		"log.level":                             "info",
		"log.format":                             "json",
		"metrics.addr":                          ":9300",
		"metrics.path":                           "/metrics",
	}
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("config: set default %s: %w", key, err)
		}
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("config: load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validate %s: %w", path, err)
	}
	return cfg, nil
}

func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

// Validate checks every SessionConfig has the identity fields an engine
// needs and that there are no duplicate SessionIDs.
func Validate(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Sessions))
	for i, sc := range cfg.Sessions {
		if sc.BeginString == "" {
			return fmt.Errorf("sessions[%d]: %w", i, errMissingBeginString)
		}
		if sc.SenderCompID == "" || sc.TargetCompID == "" {
			return fmt.Errorf("sessions[%d]: %w", i, errMissingCompIDs)
		}
		key := sc.BeginString + ":" + sc.SenderCompID + "->" + sc.TargetCompID + ":" + sc.Qualifier
		if seen[key] {
			return fmt.Errorf("sessions[%d]: duplicate session %s", i, key)
		}
		seen[key] = true
	}
	return nil
}

// Resolved is the flat settings value Resolve produces for one session:
// a GlobalConfig's defaults with a SessionConfig's overrides applied.
type Resolved struct {
	ConnectionType            string
	HeartBtInt                time.Duration
	ResetOnLogon              bool
	ResetOnLogout             bool
	ResetOnDisconnect         bool
	RefreshOnLogon            bool
	PersistMessages           bool
	ValidateLengthAndChecksum bool
	CheckCompID               bool
	CheckLatency              bool
	MaxLatency                time.Duration
	MillisecondsInTimeStamp   bool
	LogonTimeout              time.Duration
	LogoutTimeout             time.Duration
	MaxMessageSize            int
}

// Resolve applies sc's per-session overrides on top of g's defaults.
func Resolve(g GlobalConfig, sc SessionConfig) Resolved {
	r := Resolved{
		ConnectionType:            g.ConnectionType,
		HeartBtInt:                g.HeartBtInt,
		ResetOnLogon:              g.ResetOnLogon,
		ResetOnLogout:             g.ResetOnLogout,
		ResetOnDisconnect:         g.ResetOnDisconnect,
		RefreshOnLogon:            g.RefreshOnLogon,
		PersistMessages:           g.PersistMessages,
		ValidateLengthAndChecksum: g.ValidateLengthAndChecksum,
		CheckCompID:               g.CheckCompID,
		CheckLatency:              g.CheckLatency,
		MaxLatency:                g.MaxLatency,
		MillisecondsInTimeStamp:   g.MillisecondsInTimeStamp,
		LogonTimeout:              g.LogonTimeout,
		LogoutTimeout:             g.LogoutTimeout,
		MaxMessageSize:            g.MaxMessageSize,
	}
	if sc.ConnectionType != "" {
		r.ConnectionType = sc.ConnectionType
	}
	if sc.HeartBtInt != nil {
		r.HeartBtInt = *sc.HeartBtInt
	}
	if sc.ResetOnLogon != nil {
		r.ResetOnLogon = *sc.ResetOnLogon
	}
	if sc.ResetOnLogout != nil {
		r.ResetOnLogout = *sc.ResetOnLogout
	}
	if sc.ResetOnDisconnect != nil {
		r.ResetOnDisconnect = *sc.ResetOnDisconnect
	}
	if sc.PersistMessages != nil {
		r.PersistMessages = *sc.PersistMessages
	}
	return r
}
