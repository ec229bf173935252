package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDefaults(t *testing.T) {
	c := Config{}.WithDefaults()

	assert.Equal(t, DefaultWindowTitle, c.WindowTitle)
	assert.Equal(t, DefaultWindowWidth, c.WindowWidth)
	assert.Equal(t, DefaultWindowHeight, c.WindowHeight)
	assert.Equal(t, 1.0, c.PixelRatio)
	assert.Equal(t, DefaultLauncherCommand, c.LauncherCommand)
}

func TestWithDefaultsKeepsExplicitValues(t *testing.T) {
	c := Config{
		WindowTitle: "Demo",
		WindowWidth: 1920,
		PixelRatio:  2.0,
	}.WithDefaults()

	assert.Equal(t, "Demo", c.WindowTitle)
	assert.Equal(t, 1920, c.WindowWidth)
	assert.Equal(t, DefaultWindowHeight, c.WindowHeight)
	assert.Equal(t, 2.0, c.PixelRatio)
}

func TestValidate(t *testing.T) {
	valid := Config{WindowWidth: 640, WindowHeight: 480}
	assert.NoError(t, valid.Validate())

	bad := Config{
		WindowWidth:     -1,
		PixelRatio:      -0.5,
		MetricsPort:     70000,
		LauncherTimeout: -time.Second,
	}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions")
	assert.Contains(t, err.Error(), "pixel ratio")
	assert.Contains(t, err.Error(), "port")
	assert.Contains(t, err.Error(), "timeout")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lumen.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
window_title = "Demo"
window_width = 1024
window_height = 768
pixel_ratio = 1.5
assets_path = "/opt/demo/assets"
engine_args = ["--trace-startup"]
launcher_command = "open"
metrics_enabled = true
metrics_port = 9102
`), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Demo", c.WindowTitle)
	assert.Equal(t, 1024, c.WindowWidth)
	assert.Equal(t, 768, c.WindowHeight)
	assert.Equal(t, 1.5, c.PixelRatio)
	assert.Equal(t, "/opt/demo/assets", c.AssetsPath)
	assert.Equal(t, []string{"--trace-startup"}, c.EngineArgs)
	assert.Equal(t, "open", c.LauncherCommand)
	assert.True(t, c.MetricsEnabled)
	assert.Equal(t, 9102, c.MetricsPort)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte(`window_title = `), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidateAssets(t *testing.T) {
	dir := t.TempDir()

	c := Config{AssetsPath: dir}
	assert.Error(t, ValidateAssets(c), "empty bundle")

	require.NoError(t, os.WriteFile(filepath.Join(dir, KernelBlobFileName), []byte("blob"), 0o600))
	assert.Error(t, ValidateAssets(c), "missing ICU data")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ICUDataFileName), []byte("icu"), 0o600))
	assert.NoError(t, ValidateAssets(c))

	assert.False(t, AOTPresent(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, AOTFileName), []byte("elf"), 0o600))
	assert.True(t, AOTPresent(dir))
}

func TestValidateAssetsMissingDirectory(t *testing.T) {
	c := Config{AssetsPath: filepath.Join(t.TempDir(), "nope")}
	assert.Error(t, ValidateAssets(c))
}
