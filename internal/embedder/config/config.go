package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Bundle filenames expected inside the assets directory.
const (
	AOTFileName        = "libaot.so"
	KernelBlobFileName = "kernel_blob.bin"
	ICUDataFileName    = "icudtl.dat"
)

// Config groups the settings required to bring up an embedding session. Zero
// values fall back to the documented defaults.
type Config struct {
	// WindowTitle is the toplevel surface title announced to the compositor.
	WindowTitle string `toml:"window_title"`

	// WindowWidth and WindowHeight are the initial surface dimensions in
	// logical pixels. Both must be positive.
	WindowWidth  int `toml:"window_width"`
	WindowHeight int `toml:"window_height"`

	// PixelRatio is the device pixel ratio reported with window metrics.
	// Zero means 1.0.
	PixelRatio float64 `toml:"pixel_ratio"`

	// AssetsPath points at the engine asset bundle directory.
	AssetsPath string `toml:"assets_path"`

	// ICUDataPath points at the ICU data file. Empty means "next to the
	// assets bundle".
	ICUDataPath string `toml:"icu_data_path"`

	// EngineArgs are extra command-line arguments forwarded to the engine.
	EngineArgs []string `toml:"engine_args"`

	// LauncherCommand is the helper executable used by the url-launcher
	// channel. Defaults to xdg-open.
	LauncherCommand string `toml:"launcher_command"`

	// LauncherTimeout bounds how long the url-launcher handler waits for the
	// helper process. Zero disables the bound.
	LauncherTimeout time.Duration `toml:"launcher_timeout"`

	// MetricsEnabled turns on the Prometheus collectors.
	MetricsEnabled bool `toml:"metrics_enabled"`
	// MetricsPort is the port where Prometheus metrics will be exposed.
	// Zero keeps the collectors in-process only.
	MetricsPort int `toml:"metrics_port"`

	// TapEnabled publishes normalized input events and channel traffic on
	// the in-process event tap.
	TapEnabled bool `toml:"tap_enabled"`
}

const (
	DefaultWindowTitle     = "Lumen"
	DefaultWindowWidth     = 800
	DefaultWindowHeight    = 600
	DefaultLauncherCommand = "xdg-open"
)

// WithDefaults returns a copy with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.WindowTitle == "" {
		c.WindowTitle = DefaultWindowTitle
	}
	if c.WindowWidth == 0 {
		c.WindowWidth = DefaultWindowWidth
	}
	if c.WindowHeight == 0 {
		c.WindowHeight = DefaultWindowHeight
	}
	if c.PixelRatio == 0 {
		c.PixelRatio = 1.0
	}
	if c.LauncherCommand == "" {
		c.LauncherCommand = DefaultLauncherCommand
	}
	return c
}

// Validate checks that the configuration can produce a runnable session.
func (c *Config) Validate() error {
	var errs []error

	if c.WindowWidth < 0 || c.WindowHeight < 0 {
		errs = append(errs, errors.New("window: dimensions cannot be negative"))
	}
	if c.PixelRatio < 0 {
		errs = append(errs, errors.New("window: pixel ratio cannot be negative"))
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("metrics: invalid port %d", c.MetricsPort))
	}
	if c.LauncherTimeout < 0 {
		errs = append(errs, errors.New("launcher: timeout cannot be negative"))
	}

	return errors.Join(errs...)
}

// Load reads a TOML configuration file.
func Load(path string) (Config, error) {
	var c Config
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

func (c Config) String() string {
	type configAlias Config
	return fmt.Sprintf("%+v", configAlias(c))
}

// FileExists reports whether path names a readable file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// AOTPresent reports whether the assets directory carries an AOT snapshot.
func AOTPresent(assetsPath string) bool {
	return FileExists(filepath.Join(assetsPath, AOTFileName))
}

// ValidateAssets checks that the assets directory holds either an AOT
// snapshot or a kernel blob, and that the ICU data file is reachable.
func ValidateAssets(c Config) error {
	info, err := os.Stat(c.AssetsPath)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("assets: directory %q does not exist", c.AssetsPath)
	}

	if !AOTPresent(c.AssetsPath) && !FileExists(filepath.Join(c.AssetsPath, KernelBlobFileName)) {
		return fmt.Errorf("assets: neither %s nor %s found in %q",
			AOTFileName, KernelBlobFileName, c.AssetsPath)
	}

	icu := c.ICUDataPath
	if icu == "" {
		icu = filepath.Join(c.AssetsPath, ICUDataFileName)
	}
	if !FileExists(icu) {
		return fmt.Errorf("assets: ICU data %q does not exist", icu)
	}

	return nil
}
