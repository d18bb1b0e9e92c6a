/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads the per-user vecdraw configuration: a YAML file with
// environment overrides, plus the remote repository DSN kept in the OS keyring.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	applog "vecdraw/internal/log"
)

// CurrentVersion is written as config_version; bump it when the layout
// changes incompatibly.
const CurrentVersion = 1

type CanvasConfig struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Background string `yaml:"background"`
	// Font is "basic", "mono" or a directory of .ttf/.otf files.
	Font string `yaml:"font"`
}

type InteractionConfig struct {
	HandleSize    float64 `yaml:"handle_size"`
	SnapEnabled   bool    `yaml:"snap_enabled"`
	SnapThreshold float64 `yaml:"snap_threshold"`
}

type StorageConfig struct {
	AutosaveKeep int `yaml:"autosave_keep"`
}

// RemoteConfig controls the shared Postgres repository. The DSN is a
// secret and never written to the file.
type RemoteConfig struct {
	Enabled   bool `yaml:"enabled"`
	TimeoutMs int  `yaml:"timeout_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int               `yaml:"config_version"`
	Canvas        CanvasConfig      `yaml:"canvas"`
	Interaction   InteractionConfig `yaml:"interaction"`
	Storage       StorageConfig     `yaml:"storage"`
	Remote        RemoteConfig      `yaml:"remote"`
	Logging       LoggingConfig     `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: CurrentVersion,
		Canvas:        CanvasConfig{Width: 800, Height: 600, Background: "#ffffff", Font: "basic"},
		Interaction:   InteractionConfig{HandleSize: 8, SnapEnabled: false, SnapThreshold: 6},
		Storage:       StorageConfig{AutosaveKeep: 20},
		Remote:        RemoteConfig{Enabled: false, TimeoutMs: 15000},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath     = "VECDRAW_CONFIG"
	EnvCanvasWidth    = "VECDRAW_CANVAS_WIDTH"
	EnvCanvasHeight   = "VECDRAW_CANVAS_HEIGHT"
	EnvBackground     = "VECDRAW_CANVAS_BACKGROUND"
	EnvFont           = "VECDRAW_FONT"
	EnvHandleSize     = "VECDRAW_HANDLE_SIZE"
	EnvSnapEnabled    = "VECDRAW_SNAP_ENABLED"
	EnvSnapThreshold  = "VECDRAW_SNAP_THRESHOLD"
	EnvAutosaveKeep   = "VECDRAW_AUTOSAVE_KEEP"
	EnvRemoteEnabled  = "VECDRAW_REMOTE_ENABLED"
	EnvRemoteTimeout  = "VECDRAW_REMOTE_TIMEOUT_MS"
	EnvRemoteDSN      = "VECDRAW_REMOTE_DSN"
	EnvLogLevel       = "VECDRAW_LOG_LEVEL"
	EnvLogFormat      = "VECDRAW_LOG_FORMAT"
	EnvLogSource      = "VECDRAW_LOG_SOURCE"
	EnvLogFile        = "VECDRAW_LOG_FILE"
	keyringService    = "vecdraw"
	keyringRemoteDSN  = "remote_dsn"
	defaultConfigName = "config.yaml"
)

// envOverrides mirrors the overridable fields; nil means the variable is unset.
type envOverrides struct {
	CanvasWidth   *int     `envconfig:"VECDRAW_CANVAS_WIDTH"`
	CanvasHeight  *int     `envconfig:"VECDRAW_CANVAS_HEIGHT"`
	Background    *string  `envconfig:"VECDRAW_CANVAS_BACKGROUND"`
	Font          *string  `envconfig:"VECDRAW_FONT"`
	HandleSize    *float64 `envconfig:"VECDRAW_HANDLE_SIZE"`
	SnapEnabled   *bool    `envconfig:"VECDRAW_SNAP_ENABLED"`
	SnapThreshold *float64 `envconfig:"VECDRAW_SNAP_THRESHOLD"`
	AutosaveKeep  *int     `envconfig:"VECDRAW_AUTOSAVE_KEEP"`
	RemoteEnabled *bool    `envconfig:"VECDRAW_REMOTE_ENABLED"`
	RemoteTimeout *int     `envconfig:"VECDRAW_REMOTE_TIMEOUT_MS"`
	LogLevel      *string  `envconfig:"VECDRAW_LOG_LEVEL"`
	LogFormat     *string  `envconfig:"VECDRAW_LOG_FORMAT"`
	LogSource     *bool    `envconfig:"VECDRAW_LOG_SOURCE"`
	LogFile       *string  `envconfig:"VECDRAW_LOG_FILE"`
}

// envKeys maps yaml field paths to their override variable.
var envKeys = map[string]string{
	"canvas.width":               EnvCanvasWidth,
	"canvas.height":              EnvCanvasHeight,
	"canvas.background":          EnvBackground,
	"canvas.font":                EnvFont,
	"interaction.handle_size":    EnvHandleSize,
	"interaction.snap_enabled":   EnvSnapEnabled,
	"interaction.snap_threshold": EnvSnapThreshold,
	"storage.autosave_keep":      EnvAutosaveKeep,
	"remote.enabled":             EnvRemoteEnabled,
	"remote.timeout_ms":          EnvRemoteTimeout,
	"remote.dsn":                 EnvRemoteDSN,
	"logging.level":              EnvLogLevel,
	"logging.format":             EnvLogFormat,
	"logging.source":             EnvLogSource,
	"logging.file":               EnvLogFile,
}

// SecretStore abstracts the OS keyring so tests can stub it.
type SecretStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

var secretStore SecretStore = osKeyring{}

// osKeyring implements SecretStore on github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) {
	return keyring.Get(service, key)
}

func (osKeyring) Set(service, key, value string) error {
	return keyring.Set(service, key, value)
}

func (osKeyring) Delete(service, key string) error {
	return keyring.Delete(service, key)
}

// ConfigPath returns the per-user config file path. VECDRAW_CONFIG wins
// when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "vecdraw")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "vecdraw")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "vecdraw")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "vecdraw")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, defaultConfigName), nil
}

// Load returns defaults overlaid with the config file (if present) and the
// environment. The remote DSN comes back separately: from VECDRAW_REMOTE_DSN
// when set, otherwise from the keyring. A malformed file is logged and
// ignored; a malformed override is an error.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applog.WithComponent("config").Warn("ignoring malformed config file", slog.String("path", path), slog.Any("err", err))
		} else {
			cfg = fileCfg
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, "", err
	}
	cfg.normalize()

	dsn := strings.TrimSpace(os.Getenv(EnvRemoteDSN))
	if dsn == "" {
		v, err := secretStore.Get(keyringService, keyringRemoteDSN)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			applog.WithComponent("config").Debug("keyring unavailable", slog.Any("err", err))
		}
		dsn = v
	}
	return cfg, dsn, nil
}

// Save writes the YAML file and stores dsn in the keyring when non-empty.
func Save(cfg AppConfig, dsn string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ConfigVersion = CurrentVersion
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if dsn != "" {
		if err := secretStore.Set(keyringService, keyringRemoteDSN, dsn); err != nil {
			return fmt.Errorf("store remote dsn: %w", err)
		}
	}
	return nil
}

// ForgetRemoteDSN removes the stored DSN; a missing entry is not an error.
func ForgetRemoteDSN() error {
	if err := secretStore.Delete(keyringService, keyringRemoteDSN); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

func applyEnvOverrides(cfg *AppConfig) error {
	var o envOverrides
	if err := envconfig.Process("", &o); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}
	setInt(&cfg.Canvas.Width, o.CanvasWidth)
	setInt(&cfg.Canvas.Height, o.CanvasHeight)
	setString(&cfg.Canvas.Background, o.Background)
	setString(&cfg.Canvas.Font, o.Font)
	setFloat(&cfg.Interaction.HandleSize, o.HandleSize)
	setBool(&cfg.Interaction.SnapEnabled, o.SnapEnabled)
	setFloat(&cfg.Interaction.SnapThreshold, o.SnapThreshold)
	setInt(&cfg.Storage.AutosaveKeep, o.AutosaveKeep)
	setBool(&cfg.Remote.Enabled, o.RemoteEnabled)
	setInt(&cfg.Remote.TimeoutMs, o.RemoteTimeout)
	setString(&cfg.Logging.Level, o.LogLevel)
	setString(&cfg.Logging.Format, o.LogFormat)
	setBool(&cfg.Logging.Source, o.LogSource)
	setString(&cfg.Logging.File, o.LogFile)
	return nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		*dst = strings.TrimSpace(*v)
	}
}

// normalize replaces out-of-range values with defaults.
func (c *AppConfig) normalize() {
	d := Defaults()
	if c.Canvas.Width <= 0 {
		c.Canvas.Width = d.Canvas.Width
	}
	if c.Canvas.Height <= 0 {
		c.Canvas.Height = d.Canvas.Height
	}
	if c.Interaction.HandleSize <= 0 {
		c.Interaction.HandleSize = d.Interaction.HandleSize
	}
	if c.Interaction.SnapThreshold <= 0 {
		c.Interaction.SnapThreshold = d.Interaction.SnapThreshold
	}
	if c.Storage.AutosaveKeep <= 0 {
		c.Storage.AutosaveKeep = d.Storage.AutosaveKeep
	}
	if c.Remote.TimeoutMs <= 0 {
		c.Remote.TimeoutMs = d.Remote.TimeoutMs
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
}

// EnvOverrideFor returns the variable overriding the yaml field key
// (for example "canvas.width") when it is set.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok {
		return "", false
	}
	if v, set := os.LookupEnv(name); set && v != "" {
		return name, true
	}
	return "", false
}

// OverridableKeys lists the yaml field keys EnvOverrideFor knows, sorted.
func OverridableKeys() []string {
	return slices.Sorted(maps.Keys(envKeys))
}

// LogOptions converts the logging section for log.Init.
func (c AppConfig) LogOptions() applog.Options {
	return applog.Options{Level: c.Logging.Level, Format: c.Logging.Format, AddSource: c.Logging.Source, File: c.Logging.File}
}

// Timeout is the remote operation timeout.
func (r RemoteConfig) Timeout() time.Duration {
	if r.TimeoutMs <= 0 {
		return time.Duration(Defaults().Remote.TimeoutMs) * time.Millisecond
	}
	return time.Duration(r.TimeoutMs) * time.Millisecond
}
