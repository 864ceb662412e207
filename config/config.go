// Package config loads tileui server settings and node-config presets from
// TOML and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/phanxgames/tileui"
)

// Config holds server configuration.
type Config struct {
	World       WorldConfig
	Sync        SyncConfig
	Store       StoreConfig
	Server      ServerConfig
	Debug       bool
	SnapshotDir string            `mapstructure:"snapshot_dir"`
	Presets     map[string]Preset `mapstructure:"presets"`
}

// WorldConfig describes the shared tile grid.
type WorldConfig struct {
	ID     string
	Width  int
	Height int
}

// SyncConfig controls the periodic sync pass.
type SyncConfig struct {
	Interval  time.Duration
	DrawRange int `mapstructure:"draw_range"`
}

// StoreConfig holds sqlite settings.
type StoreConfig struct {
	Path string
}

// ServerConfig holds transport settings.
type ServerConfig struct {
	Addr string
}

// Preset is a named node configuration. Unset flags keep the value of
// tileui.DefaultNodeConfig.
type Preset struct {
	UseBegin          *bool       `mapstructure:"use_begin"`
	UseMoving         *bool       `mapstructure:"use_moving"`
	UseEnd            *bool       `mapstructure:"use_end"`
	BeginRequire      *bool       `mapstructure:"begin_require"`
	SessionAcquire    *bool       `mapstructure:"session_acquire"`
	UseOutsideTouches *bool       `mapstructure:"use_outside_touches"`
	Ordered           *bool       `mapstructure:"ordered"`
	Lock              *LockPreset `mapstructure:"lock"`
}

// LockPreset is the configuration form of tileui.LockConfig.
type LockPreset struct {
	Level                 string
	Personal              bool
	Delay                 time.Duration
	AllowThisTouchSession *bool `mapstructure:"allow_this_touch_session"`
	DuringTouchSession    bool  `mapstructure:"during_touch_session"`
}

// NodeConfig builds the tileui configuration the preset describes.
func (p Preset) NodeConfig() (tileui.NodeConfig, error) {
	c := tileui.DefaultNodeConfig()
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.UseBegin, p.UseBegin)
	set(&c.UseMoving, p.UseMoving)
	set(&c.UseEnd, p.UseEnd)
	set(&c.BeginRequire, p.BeginRequire)
	set(&c.SessionAcquire, p.SessionAcquire)
	set(&c.UseOutsideTouches, p.UseOutsideTouches)
	set(&c.Ordered, p.Ordered)

	if l := p.Lock; l != nil {
		var level tileui.LockLevel
		switch strings.ToLower(l.Level) {
		case "", "self":
			level = tileui.LockSelf
		case "root":
			level = tileui.LockRoot
		default:
			return tileui.NodeConfig{}, fmt.Errorf("config: unknown lock level %q", l.Level)
		}
		c.Lock = tileui.NewLockConfig(level, l.Personal, l.Delay)
		set(&c.Lock.AllowThisTouchSession, l.AllowThisTouchSession)
		c.Lock.DuringTouchSession = l.DuringTouchSession
	}
	return c, nil
}

// Preset returns the node configuration of the named preset.
func (c Config) Preset(name string) (tileui.NodeConfig, error) {
	p, ok := c.Presets[name]
	if !ok {
		return tileui.NodeConfig{}, fmt.Errorf("config: unknown preset %q", name)
	}
	return p.NodeConfig()
}

// Load reads configuration from path, or from TILEUI_CONFIG when path is
// empty, then applies env overrides with prefix TILEUI_. A missing file is
// not an error.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("world.id", "default")
	v.SetDefault("world.width", 400)
	v.SetDefault("world.height", 300)
	v.SetDefault("sync.interval", 50*time.Millisecond)
	v.SetDefault("sync.draw_range", 16)
	v.SetDefault("store.path", "tileui.db")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("debug", false)
	v.SetDefault("snapshot_dir", "snapshots")

	v.SetConfigType("toml")
	if path == "" {
		path = os.Getenv("TILEUI_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("tileui")
	}

	v.SetEnvPrefix("TILEUI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return Config{}, fmt.Errorf("config: invalid world size %dx%d", c.World.Width, c.World.Height)
	}
	return c, nil
}

// Apply copies the UI-level settings onto ui.
func (c Config) Apply(ui *tileui.UI) {
	ui.WorldID = c.World.ID
	ui.DrawRange = c.Sync.DrawRange
	ui.SnapshotDir = c.SnapshotDir
	ui.SetDebugMode(c.Debug)
}
