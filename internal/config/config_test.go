package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wew/pkg/wew"
)

func isolateXDG(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, env := range []string{"XDG_CONFIG_HOME", "XDG_DATA_HOME", "XDG_STATE_HOME", "XDG_CACHE_HOME"} {
		t.Setenv(env, filepath.Join(root, strings.ToLower(env)))
	}
	return root
}

func TestDefaultConfigIsValid(t *testing.T) {
	isolateXDG(t)
	cfg := DefaultConfig()
	require.NoError(t, validateConfig(cfg))
	assert.Equal(t, LoopMainThread, cfg.Runtime.Loop)
	assert.Equal(t, RenderNative, cfg.Runtime.Mode)
	assert.True(t, strings.HasSuffix(cfg.Cookies.Database, filepath.Join("wew", "cookies.sqlite")))
	assert.False(t, cfg.Scheme.Enabled())
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	isolateXDG(t)
	dir := t.TempDir()

	m, err := NewManagerWithDir(dir)
	require.NoError(t, err)
	require.NoError(t, m.Load())
	assert.True(t, m.Created())

	assert.FileExists(t, filepath.Join(dir, "config.toml"))
	assert.FileExists(t, filepath.Join(dir, "config.schema.json"))
	assert.Equal(t, uint32(800), m.Get().WebView.Width)
}

func TestLoadReadsFileAndEnv(t *testing.T) {
	isolateXDG(t)
	dir := t.TempDir()
	content := `
[runtime]
loop = "PUMP"
mode = "windowless"
log_severity = "debug"

[webview]
width = 1280
height = 720
frame_rate = 60
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644))
	t.Setenv("WEW_WEBVIEW_HEIGHT", "1024")
	t.Setenv("WEW_LOG_LEVEL", "trace")

	m, err := NewManagerWithDir(dir)
	require.NoError(t, err)
	require.NoError(t, m.Load())
	assert.False(t, m.Created())

	cfg := m.Get()
	assert.Equal(t, LoopPump, cfg.Runtime.Loop)
	assert.Equal(t, RenderWindowless, cfg.Runtime.Mode)
	assert.Equal(t, uint32(1280), cfg.WebView.Width)
	assert.Equal(t, uint32(1024), cfg.WebView.Height)
	assert.Equal(t, uint32(60), cfg.WebView.FrameRate)
	assert.Equal(t, "trace", cfg.Logging.Level)
	// Unset keys keep their defaults.
	assert.True(t, cfg.WebView.Javascript)
	assert.Equal(t, "wew", cfg.Scheme.Name)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	isolateXDG(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[runtime]\nloop = \"pump\"\n"), 0o644))

	m, err := NewManagerWithDir(dir)
	require.NoError(t, err)
	err = m.Load()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "requires runtime.mode windowless")
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	isolateXDG(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[runtime\n"), 0o644))

	m, err := NewManagerWithDir(dir)
	require.NoError(t, err)
	err = m.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidateConfig(t *testing.T) {
	isolateXDG(t)
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"loop", func(c *Config) { c.Runtime.Loop = "fast" }, "runtime.loop"},
		{"mode", func(c *Config) { c.Runtime.Mode = "3d" }, "runtime.mode"},
		{"severity", func(c *Config) { c.Runtime.LogSeverity = "loud" }, "runtime.log_severity"},
		{"color", func(c *Config) { c.WebView.BackgroundColor = "red" }, "webview.background_color"},
		{"nul", func(c *Config) { c.Runtime.CachePath = "/tmp/\x00" }, "runtime.cache_path"},
		{"size", func(c *Config) { c.WebView.Width = 0 }, "webview.width"},
		{"fps", func(c *Config) { c.WebView.FrameRate = 120 }, "webview.frame_rate"},
		{"scale", func(c *Config) { c.WebView.DeviceScaleFactor = 0 }, "device_scale_factor"},
		{"scheme", func(c *Config) { c.Scheme.Root = "/srv"; c.Scheme.Name = "" }, "scheme.name"},
		{"format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"database", func(c *Config) { c.Cookies.Database = "" }, "cookies.database"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseColor(t *testing.T) {
	v, err := ParseColor("#ff0000")
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFFFF0000), v)

	v, err = ParseColor("#80000000")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x80000000), v)

	_, err = ParseColor("#fff")
	assert.Error(t, err)
	_, err = ParseColor("#gggggg")
	assert.Error(t, err)
}

func TestWriteConfigOrderedRoundTrip(t *testing.T) {
	isolateXDG(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	cfg.Scheme.Root = "/srv/app"
	require.NoError(t, WriteConfigOrdered(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var headers []string
	for _, line := range strings.Split(string(data), "\n") {
		if m := sectionHeader.FindStringSubmatch(line); m != nil {
			headers = append(headers, m[1])
		}
	}
	assert.Equal(t, []string{"cookies", "logging", "runtime", "scheme", "webview"}, headers)

	var back Config
	require.NoError(t, toml.Unmarshal(data, &back))
	assert.Equal(t, *cfg, back)
}

func TestSortTOMLSections(t *testing.T) {
	input := "title = 'x'\n\n[zeta]\na = 1\n\n[alpha]\nb = 2\n"
	want := "title = 'x'\n\n[alpha]\nb = 2\n\n[zeta]\na = 1\n"
	assert.Equal(t, want, sortTOMLSections(input))
	assert.Equal(t, "", sortTOMLSections("\n\n"))
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"runtime", "webview", "scheme", "logging", "cookies"} {
		assert.Contains(t, props, key)
	}
}

func waitChange(t *testing.T, changes <-chan Change) Change {
	t.Helper()
	select {
	case c := <-changes:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
		return Change{}
	}
}

func assertNoChange(t *testing.T, changes <-chan Change) {
	t.Helper()
	select {
	case c := <-changes:
		t.Fatalf("unexpected change: %+v", c.Current)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestSaveAndWatch(t *testing.T) {
	isolateXDG(t)
	dir := t.TempDir()
	m, err := NewManagerWithDir(dir)
	require.NoError(t, err)
	require.NoError(t, m.Load())
	require.NoError(t, m.Watch())

	changes := make(chan Change, 8)
	m.OnConfigChange(func(c Change) { changes <- c })

	t.Run("save reports once", func(t *testing.T) {
		cfg := m.Get()
		cfg.WebView.DevTools = true
		require.NoError(t, m.Save(cfg))
		assert.True(t, m.Get().WebView.DevTools)

		c := waitChange(t, changes)
		assert.False(t, c.Previous.WebView.DevTools)
		assert.True(t, c.Current.WebView.DevTools)
		assert.True(t, c.WebViewChanged())
		assert.False(t, c.RestartRequired())

		// The watcher sees our own write and stays quiet.
		assertNoChange(t, changes)
	})

	t.Run("unchanged save is silent", func(t *testing.T) {
		require.NoError(t, m.Save(m.Get()))
		assertNoChange(t, changes)
	})

	t.Run("external edit of runtime settings", func(t *testing.T) {
		edited := m.Get()
		edited.Runtime.CachePath = filepath.Join(dir, "other-cache")
		require.NoError(t, WriteConfigOrdered(edited, m.ConfigFile()))

		c := waitChange(t, changes)
		assert.Equal(t, filepath.Join(dir, "other-cache"), c.Current.Runtime.CachePath)
		assert.True(t, c.RestartRequired())
		assert.False(t, c.WebViewChanged())
		assert.Equal(t, edited.Runtime.CachePath, m.Get().Runtime.CachePath)
	})

	t.Run("invalid external edit is ignored", func(t *testing.T) {
		before := m.Get()
		broken := m.Get()
		broken.WebView.Width = 0
		require.NoError(t, WriteConfigOrdered(broken, m.ConfigFile()))

		assertNoChange(t, changes)
		assert.Equal(t, before.WebView.Width, m.Get().WebView.Width)
	})

	t.Run("invalid save is rejected", func(t *testing.T) {
		bad := m.Get()
		bad.WebView.Width = 0
		assert.ErrorIs(t, m.Save(bad), ErrInvalidConfig)
	})
}

func TestChangeCallbacksGetCopies(t *testing.T) {
	isolateXDG(t)
	m, err := NewManagerWithDir(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, m.Load())

	m.OnConfigChange(func(c Change) { c.Current.WebView.Width = 1 })
	cfg := m.Get()
	cfg.WebView.Height = 123
	require.NoError(t, m.Save(cfg))

	assert.NotEqual(t, uint32(1), m.Get().WebView.Width)
	assert.Equal(t, uint32(123), m.Get().WebView.Height)
}

func TestAttributesMapping(t *testing.T) {
	isolateXDG(t)
	cfg := DefaultConfig()
	cfg.Runtime.Mode = RenderWindowless
	cfg.Runtime.Loop = LoopPump
	cfg.WebView.Width = 320
	cfg.WebView.Height = 240
	cfg.WebView.BackgroundColor = "#00000000"

	assert.Equal(t, wew.Windowless, cfg.RenderMode())
	assert.IsType(t, wew.MessagePumpLoop{}, cfg.MessageLoop())

	attrs := cfg.RuntimeAttributes(cfg.MessageLoop(), nil)
	assert.Equal(t, wew.Windowless, attrs.Mode())

	wv := cfg.WebViewAttributes(nil)
	assert.Equal(t, uint32(320), wv.Width)
	assert.Equal(t, uint32(240), wv.Height)
	assert.Equal(t, uint32(0), wv.BackgroundColor)
	assert.Equal(t, uint32(30), wv.WindowlessFrameRate)
	assert.True(t, wv.Javascript)
}
