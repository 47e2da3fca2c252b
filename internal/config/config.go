// Package config loads node configuration from a TOML file with
// environment-variable overrides, grounded on gopatchy-artmap's
// config.Load (BurntSushi/toml decode, custom UnmarshalTOML for the
// Port-Address union type) blended with go-coffee's viper env-override
// layer (SetDefault, AutomaticEnv, SetEnvKeyReplacer).
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/gopatchy/artnode/artnet/addr"
	"github.com/gopatchy/artnode/artnet/discovery"
	"github.com/gopatchy/artnode/artnet/failsafe"
	"github.com/gopatchy/artnode/artnet/machine"
	"github.com/gopatchy/artnode/artnet/program"
	"github.com/gopatchy/artnode/artnet/sync"
)

// Config is the complete node configuration: identity, network bind
// behavior, per-port defaults, and the ambient engines' tunables.
type Config struct {
	Node     NodeConfig     `toml:"node"`
	Bind     BindConfig     `toml:"bind"`
	Sync     SyncConfig     `toml:"sync"`
	Failsafe FailsafeConfig `toml:"failsafe"`
	Discovery DiscoveryConfig `toml:"discovery"`
	Trigger  TriggerConfig  `toml:"trigger"`
	Ports    []PortConfig   `toml:"port"`
	Logging  LoggingConfig  `toml:"logging"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

// NodeConfig names the node the way ArtPollReply advertises it.
type NodeConfig struct {
	ShortName string `toml:"short_name"`
	LongName  string `toml:"long_name"`
	Oem       uint16 `toml:"oem"`
	Esta      uint16 `toml:"esta"`
	NetSwitch uint8  `toml:"net_switch"`
	SubSwitch uint8  `toml:"sub_switch"`
}

// BindConfig controls which interface and port the node listens/sends on.
type BindConfig struct {
	Host      string `toml:"host"`       // "0.0.0.0" picks the primary non-loopback interface
	Port      int    `toml:"port"`
	Broadcast string `toml:"broadcast"`  // "auto" derives from the bound interface's mask
	Interface string `toml:"interface"`  // optional explicit interface name; start-node does not read it and takes the interface from its --interface flag
}

// SyncConfig selects ArtSync handling.
type SyncConfig struct {
	Mode string `toml:"mode"` // "immediate" | "artsync"
}

// FailsafeConfig mirrors failsafe.Config with TOML tags and a string mode.
type FailsafeConfig struct {
	Enabled    bool          `toml:"enabled"`
	Mode       string        `toml:"mode"` // "hold" | "zero" | "full" | "scene"
	IdleTimeout time.Duration `toml:"idle_timeout"`
}

// DiscoveryConfig controls ArtPoll reply-on-change behavior.
type DiscoveryConfig struct {
	ReplyOnChangeLimit int    `toml:"reply_on_change_limit"`
	EvictionPolicy     string `toml:"eviction_policy"` // "prefer_existing" | "prefer_latest"
}

// TriggerConfig tunes ArtTrigger's rate limiter.
type TriggerConfig struct {
	MinInterval time.Duration `toml:"min_interval"`
}

// LoggingConfig holds the zap encoder and level settings. start-node does
// not read it; its logger is built from the --log-level and --log-format
// flags.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" | "json"
}

// MetricsConfig holds Prometheus exposition settings. start-node does not
// read it; /metrics is served on the --http-listen address.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

// PortConfig describes one Port-Address's startup behavior. Validate
// checks merge_mode, but MachineConfig does not apply these entries to
// the node.
type PortConfig struct {
	Address    PortAddressValue `toml:"address"`
	Output     bool             `toml:"output"`
	MergeMode  string           `toml:"merge_mode"` // "htp" | "ltp"
	RdmEnabled bool             `toml:"rdm_enabled"`
}

// PortAddressValue decodes a Port-Address from either "net.subnet.universe"
// or a plain integer, the same dual encoding gopatchy-artmap's
// UniverseAddr.UnmarshalTOML accepts for its universe field.
type PortAddressValue struct {
	addr.PortAddress
}

func (v *PortAddressValue) UnmarshalTOML(data interface{}) error {
	switch t := data.(type) {
	case string:
		pa, err := ParsePortAddress(t)
		if err != nil {
			return err
		}
		v.PortAddress = pa
		return nil
	case int64:
		v.PortAddress = addr.PortAddress(t)
		return nil
	case float64:
		v.PortAddress = addr.PortAddress(int64(t))
		return nil
	default:
		return fmt.Errorf("config: unsupported port address type %T", data)
	}
}

// ParsePortAddress parses "net.subnet.universe" or a bare decimal number.
func ParsePortAddress(s string) (addr.PortAddress, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ".") {
		parts := strings.Split(s, ".")
		if len(parts) != 3 {
			return 0, fmt.Errorf("config: invalid port address %q (expected net.subnet.universe)", s)
		}
		net, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("config: invalid net in %q: %w", s, err)
		}
		sub, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, fmt.Errorf("config: invalid subnet in %q: %w", s, err)
		}
		uni, err := strconv.Atoi(parts[2])
		if err != nil {
			return 0, fmt.Errorf("config: invalid universe in %q: %w", s, err)
		}
		return addr.Compose(uint8(net), uint8(sub), uint8(uni)), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("config: invalid port address %q", s)
	}
	return addr.PortAddress(n), nil
}

// Load decodes path with BurntSushi/toml, then layers environment-variable
// overrides through viper (ARTNODE_ dotted-to-underscore keys), mirroring
// go-coffee's Load: defaults first, file next, env last.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			var pathErr *toml.ParseError
			if !errors.As(err, &pathErr) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyDefaults(&cfg)

	v := viper.New()
	v.SetEnvPrefix("ARTNODE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	overrideString(v, "bind.host", &cfg.Bind.Host)
	overrideString(v, "bind.broadcast", &cfg.Bind.Broadcast)
	overrideString(v, "node.short_name", &cfg.Node.ShortName)
	overrideString(v, "node.long_name", &cfg.Node.LongName)
	overrideString(v, "logging.level", &cfg.Logging.Level)
	overrideString(v, "logging.format", &cfg.Logging.Format)
	if v.IsSet("bind.port") {
		cfg.Bind.Port = v.GetInt("bind.port")
	}
	if v.IsSet("metrics.listen") {
		cfg.Metrics.Listen = v.GetString("metrics.listen")
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func overrideString(v *viper.Viper, key string, dst *string) {
	if v.IsSet(key) {
		*dst = v.GetString(key)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Node.ShortName == "" {
		cfg.Node.ShortName = "artnode"
	}
	if cfg.Node.LongName == "" {
		cfg.Node.LongName = "artnode Art-Net 4 node"
	}
	if cfg.Node.Oem == 0 {
		cfg.Node.Oem = 0xFFFF
	}
	if cfg.Node.Esta == 0 {
		cfg.Node.Esta = 0x7FF0
	}
	if cfg.Bind.Host == "" {
		cfg.Bind.Host = "0.0.0.0"
	}
	if cfg.Bind.Port == 0 {
		cfg.Bind.Port = 6454
	}
	if cfg.Bind.Broadcast == "" {
		cfg.Bind.Broadcast = "auto"
	}
	if cfg.Sync.Mode == "" {
		cfg.Sync.Mode = "immediate"
	}
	if cfg.Failsafe.Mode == "" {
		cfg.Failsafe.Mode = "hold"
	}
	if cfg.Failsafe.IdleTimeout == 0 {
		cfg.Failsafe.IdleTimeout = failsafe.DefaultConfig().IdleTimeout
	}
	if cfg.Discovery.ReplyOnChangeLimit == 0 {
		cfg.Discovery.ReplyOnChangeLimit = 1
	}
	if cfg.Discovery.EvictionPolicy == "" {
		cfg.Discovery.EvictionPolicy = "prefer_existing"
	}
	if cfg.Trigger.MinInterval == 0 {
		cfg.Trigger.MinInterval = 50 * time.Millisecond
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9090"
	}
}

// Validate rejects configuration combinations that would otherwise fail
// silently or confusingly deep inside an engine constructor.
func Validate(cfg *Config) error {
	if cfg.Bind.Port < 1 || cfg.Bind.Port > 65535 {
		return fmt.Errorf("config: bind.port %d out of range", cfg.Bind.Port)
	}
	switch cfg.Sync.Mode {
	case "immediate", "artsync":
	default:
		return fmt.Errorf("config: sync.mode %q must be immediate or artsync", cfg.Sync.Mode)
	}
	switch cfg.Failsafe.Mode {
	case "hold", "zero", "full", "scene":
	default:
		return fmt.Errorf("config: failsafe.mode %q must be hold, zero, full or scene", cfg.Failsafe.Mode)
	}
	for i, p := range cfg.Ports {
		switch strings.ToLower(p.MergeMode) {
		case "", "htp", "ltp":
		default:
			return fmt.Errorf("config: port %d merge_mode %q must be htp or ltp", i, p.MergeMode)
		}
	}
	return nil
}

// SyncModeValue translates the config string into sync.Mode.
func (c *Config) SyncModeValue() sync.Mode {
	if c.Sync.Mode == "artsync" {
		return sync.ModeArtSync
	}
	return sync.ModeImmediate
}

// FailsafeEngineConfig translates FailsafeConfig into failsafe.Config. The
// failsafe mode is not part of failsafe.Config (failsafe.Engine has no
// single default mode); FailsafeModeValue translates the mode string, and
// start-node does not apply it to any port.
func (c *Config) FailsafeEngineConfig() failsafe.Config {
	fc := failsafe.DefaultConfig()
	fc.Enabled = c.Failsafe.Enabled
	fc.IdleTimeout = c.Failsafe.IdleTimeout
	return fc
}

// FailsafeModeValue translates the config string into failsafe.Mode.
func (c *Config) FailsafeModeValue() failsafe.Mode {
	switch c.Failsafe.Mode {
	case "zero":
		return failsafe.ModeZero
	case "full":
		return failsafe.ModeFull
	case "scene":
		return failsafe.ModeScene
	default:
		return failsafe.ModeHold
	}
}

// DiscoveryEvictionPolicy translates the config string into
// discovery.EvictionPolicy.
func (c *Config) DiscoveryEvictionPolicy() discovery.EvictionPolicy {
	if c.Discovery.EvictionPolicy == "prefer_latest" {
		return discovery.PolicyPreferLatest
	}
	return discovery.PolicyPreferExisting
}

// MachineConfig translates the file/env configuration into the
// machine.Config New(...) expects, with bindIP supplying the network
// identity netiface resolved (Config itself does no interface I/O).
func (c *Config) MachineConfig(bindIP [4]byte) machine.Config {
	identity := program.Identity{
		ShortName: c.Node.ShortName,
		LongName:  c.Node.LongName,
		NetSwitch: c.Node.NetSwitch,
		SubSwitch: c.Node.SubSwitch,
	}
	defaults := program.Defaults{
		ShortName: c.Node.ShortName,
		LongName:  c.Node.LongName,
		NetSwitch: c.Node.NetSwitch,
		SubSwitch: c.Node.SubSwitch,
	}
	network := program.NetworkState{IP: bindIP, Port: uint16(c.Bind.Port)}
	networkDefaults := program.NetworkDefaults{IP: bindIP, Port: uint16(c.Bind.Port)}

	cfg := machine.DefaultConfig()
	cfg.Identity = identity
	cfg.Defaults = defaults
	cfg.Network = network
	cfg.NetworkDefaults = networkDefaults
	cfg.NodeOem = c.Node.Oem
	cfg.NodeEsta = c.Node.Esta
	cfg.SyncMode = c.SyncModeValue()
	cfg.Failsafe = c.FailsafeEngineConfig()
	cfg.ReplyOnChangeLimit = c.Discovery.ReplyOnChangeLimit
	cfg.ReplyOnChangePolicy = c.DiscoveryEvictionPolicy()
	cfg.TriggerMinInterval = c.Trigger.MinInterval
	return cfg
}
