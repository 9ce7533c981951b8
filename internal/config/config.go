/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"goslides/internal/gesture"
	"goslides/internal/panzoom"
	"goslides/internal/snap"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	TelemetryURL   string `yaml:"telemetry_url"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark"
	FontDir        string `yaml:"font_dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// SnapConfig tunes the alignment thresholds; zero fields keep the engine
// defaults. center_min and center_max pin the center threshold to fixed
// pixel bounds; unset, it follows the selection width.
type SnapConfig struct {
	ThresholdFactor  float64 `yaml:"threshold_factor"`
	ResistanceFactor float64 `yaml:"resistance_factor"`
	CenterMin        float64 `yaml:"center_min"`
	CenterMax        float64 `yaml:"center_max"`
	EdgeMin          float64 `yaml:"edge_min"`
	EdgeMax          float64 `yaml:"edge_max"`
	ResistanceMin    float64 `yaml:"resistance_min"`
	CenterMargin     float64 `yaml:"center_margin"`
	EdgeMargin       float64 `yaml:"edge_margin"`
}

type PanZoomConfig struct {
	MinScale       float64 `yaml:"min_scale"`
	MaxScale       float64 `yaml:"max_scale"`
	LimitX         float64 `yaml:"limit_x"`
	LimitY         float64 `yaml:"limit_y"`
	ScaleSpeed     float64 `yaml:"scale_speed"`
	TranslateSpeed float64 `yaml:"translate_speed"`
	DebounceMs     int     `yaml:"debounce_ms"`
}

type ResizeConfig struct {
	MinWidth      float64 `yaml:"min_width"`
	MinHeight     float64 `yaml:"min_height"`
	FitPadding    float64 `yaml:"fit_padding"`
	DoubleClickMs int     `yaml:"double_click_ms"`
}

// StorageConfig selects the element store. Driver is "sqlite" (Path) or
// "pgx" (DSN). The database password is not stored on disk; it lives in the
// OS keychain.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Snap          SnapConfig    `yaml:"snap"`
	PanZoom       PanZoomConfig `yaml:"panzoom"`
	Resize        ResizeConfig  `yaml:"resize"`
	Storage       StorageConfig `yaml:"storage"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	so := snap.DefaultOptions()
	po := panzoom.DefaultOptions()
	ro := gesture.DefaultResizeOptions()
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system"},
		Snap: SnapConfig{
			ThresholdFactor:  so.ThresholdFactor,
			ResistanceFactor: so.ResistanceFactor,
			CenterMin:        so.CenterMin,
			CenterMax:        so.CenterMax,
			EdgeMin:          so.EdgeMin,
			EdgeMax:          so.EdgeMax,
			ResistanceMin:    so.ResistanceMin,
			CenterMargin:     so.CenterMargin,
			EdgeMargin:       so.EdgeMargin,
		},
		PanZoom: PanZoomConfig{
			MinScale:       po.MinScale,
			MaxScale:       po.MaxScale,
			LimitX:         po.LimitX,
			LimitY:         po.LimitY,
			ScaleSpeed:     po.ScaleSpeed,
			TranslateSpeed: po.TranslateSpeed,
			DebounceMs:     int(po.Debounce / time.Millisecond),
		},
		Resize: ResizeConfig{
			MinWidth:      ro.MinWidth,
			MinHeight:     ro.MinHeight,
			FitPadding:    ro.FitPadding,
			DoubleClickMs: int(gesture.DoubleClickWindow / time.Millisecond),
		},
		Storage: StorageConfig{Driver: "sqlite"},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

func (c SnapConfig) Options() snap.Options {
	return snap.Options{
		ThresholdFactor:  c.ThresholdFactor,
		ResistanceFactor: c.ResistanceFactor,
		CenterMin:        c.CenterMin,
		CenterMax:        c.CenterMax,
		EdgeMin:          c.EdgeMin,
		EdgeMax:          c.EdgeMax,
		ResistanceMin:    c.ResistanceMin,
		CenterMargin:     c.CenterMargin,
		EdgeMargin:       c.EdgeMargin,
	}
}

func (c PanZoomConfig) Options() panzoom.Options {
	return panzoom.Options{
		MinScale:       c.MinScale,
		MaxScale:       c.MaxScale,
		LimitX:         c.LimitX,
		LimitY:         c.LimitY,
		ScaleSpeed:     c.ScaleSpeed,
		TranslateSpeed: c.TranslateSpeed,
		Debounce:       time.Duration(c.DebounceMs) * time.Millisecond,
	}
}

func (c ResizeConfig) Options() gesture.ResizeOptions {
	d := gesture.DefaultResizeOptions()
	o := gesture.ResizeOptions{MinWidth: c.MinWidth, MinHeight: c.MinHeight, FitPadding: c.FitPadding}
	if o.MinWidth <= 0 {
		o.MinWidth = d.MinWidth
	}
	if o.MinHeight <= 0 {
		o.MinHeight = d.MinHeight
	}
	if o.FitPadding < 0 {
		o.FitPadding = d.FitPadding
	}
	return o
}

// DoubleClick returns the tap window.
func (c ResizeConfig) DoubleClick() time.Duration {
	if c.DoubleClickMs <= 0 {
		return gesture.DoubleClickWindow
	}
	return time.Duration(c.DoubleClickMs) * time.Millisecond
}

// Env var names used as overrides.
const (
	EnvConfigPath     = "GSL_CONFIG"
	EnvTelemetryOptIn = "GSL_TELEMETRY_OPT_IN"
	EnvTelemetryURL   = "GSL_TELEMETRY_URL"
	EnvFontDir        = "GSL_FONT_DIR"
	EnvStorageDriver  = "GSL_STORAGE_DRIVER"
	EnvStoragePath    = "GSL_STORAGE_PATH"
	EnvStorageDSN     = "GSL_STORAGE_DSN"
	EnvPanZoomDebMs   = "GSL_PANZOOM_DEBOUNCE_MS"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GSL_LOG_LEVEL"
	EnvLogFormat = "GSL_LOG_FORMAT"
	EnvLogSource = "GSL_LOG_SOURCE"
	EnvLogFile   = "GSL_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService  = "goslides"
	keyringPassword = "storage_password"
)

var ErrInvalid = errors.New("invalid config")

// tokenStore abstracts keyring so tests can swap it.
var tokenStore TokenStore = osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// ConfigPath returns the per-user config file path. GSL_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoSlides")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoSlides")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "goslides")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// DataDir is where the default sqlite store lives, next to the config file.
func DataDir() (string, error) {
	p, err := ConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(p), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// The storage password comes from the keyring and is returned separately.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
		}
		mergeInto(&cfg, &fileCfg)
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, "", err
	}
	pw, _ := tokenStore.Get(keyringService, keyringPassword)
	return cfg, pw, nil
}

// Save writes the user config YAML and persists the password into the OS keyring (if non-empty).
func Save(cfg AppConfig, password string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if password != "" {
		if err := tokenStore.Set(keyringService, keyringPassword, password); err != nil {
			return fmt.Errorf("store password: %w", err)
		}
	}
	return nil
}

// ForgetPassword removes the stored database password.
func ForgetPassword() error {
	err := tokenStore.Delete(keyringService, keyringPassword)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// Validate rejects settings the engine cannot work with.
func (c AppConfig) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("%w: storage.driver %q (want sqlite or pgx)", ErrInvalid, c.Storage.Driver)
	}
	if c.Storage.Driver == "pgx" && c.Storage.DSN == "" {
		return fmt.Errorf("%w: storage.dsn is required for pgx", ErrInvalid)
	}
	if c.PanZoom.MinScale > c.PanZoom.MaxScale {
		return fmt.Errorf("%w: panzoom.min_scale above max_scale", ErrInvalid)
	}
	return nil
}

func mergeFloat(dst *float64, src float64) {
	if src != 0 {
		*dst = src
	}
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if src.General.TelemetryURL != "" {
		dst.General.TelemetryURL = src.General.TelemetryURL
	}
	if src.General.FontDir != "" {
		dst.General.FontDir = src.General.FontDir
	}

	mergeFloat(&dst.Snap.ThresholdFactor, src.Snap.ThresholdFactor)
	mergeFloat(&dst.Snap.ResistanceFactor, src.Snap.ResistanceFactor)
	mergeFloat(&dst.Snap.CenterMin, src.Snap.CenterMin)
	mergeFloat(&dst.Snap.CenterMax, src.Snap.CenterMax)
	mergeFloat(&dst.Snap.EdgeMin, src.Snap.EdgeMin)
	mergeFloat(&dst.Snap.EdgeMax, src.Snap.EdgeMax)
	mergeFloat(&dst.Snap.ResistanceMin, src.Snap.ResistanceMin)
	mergeFloat(&dst.Snap.CenterMargin, src.Snap.CenterMargin)
	mergeFloat(&dst.Snap.EdgeMargin, src.Snap.EdgeMargin)

	mergeFloat(&dst.PanZoom.MinScale, src.PanZoom.MinScale)
	mergeFloat(&dst.PanZoom.MaxScale, src.PanZoom.MaxScale)
	mergeFloat(&dst.PanZoom.LimitX, src.PanZoom.LimitX)
	mergeFloat(&dst.PanZoom.LimitY, src.PanZoom.LimitY)
	mergeFloat(&dst.PanZoom.ScaleSpeed, src.PanZoom.ScaleSpeed)
	mergeFloat(&dst.PanZoom.TranslateSpeed, src.PanZoom.TranslateSpeed)
	if src.PanZoom.DebounceMs > 0 {
		dst.PanZoom.DebounceMs = src.PanZoom.DebounceMs
	}

	mergeFloat(&dst.Resize.MinWidth, src.Resize.MinWidth)
	mergeFloat(&dst.Resize.MinHeight, src.Resize.MinHeight)
	mergeFloat(&dst.Resize.FitPadding, src.Resize.FitPadding)
	if src.Resize.DoubleClickMs > 0 {
		dst.Resize.DoubleClickMs = src.Resize.DoubleClickMs
	}

	if d := strings.ToLower(strings.TrimSpace(src.Storage.Driver)); d != "" {
		dst.Storage.Driver = d
	}
	if src.Storage.Path != "" {
		dst.Storage.Path = src.Storage.Path
	}
	if src.Storage.DSN != "" {
		dst.Storage.DSN = src.Storage.DSN
	}

	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryURL)); v != "" {
		cfg.General.TelemetryURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFontDir)); v != "" {
		cfg.General.FontDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDriver)); v != "" {
		cfg.Storage.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStoragePath)); v != "" {
		cfg.Storage.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorageDSN)); v != "" {
		cfg.Storage.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPanZoomDebMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PanZoom.DebounceMs = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env := map[string]string{
		"general.telemetry_opt_in": EnvTelemetryOptIn,
		"general.telemetry_url":    EnvTelemetryURL,
		"general.font_dir":         EnvFontDir,
		"storage.driver":           EnvStorageDriver,
		"storage.path":             EnvStoragePath,
		"storage.dsn":              EnvStorageDSN,
		"panzoom.debounce_ms":      EnvPanZoomDebMs,
		"logging.level":            EnvLogLevel,
		"logging.format":           EnvLogFormat,
		"logging.source":           EnvLogSource,
		"logging.file":             EnvLogFile,
	}[key]
	if env != "" && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}
