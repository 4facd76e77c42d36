package config

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"github.com/fsnotify/fsnotify"

	"github.com/bnema/wew/internal/logging"
)

// Change is an applied configuration update, from Save or from an edit of
// the file on disk. Both configs are private copies.
type Change struct {
	Previous *Config
	Current  *Config
}

// RestartRequired reports whether settings changed that the engine only
// reads when the runtime is created.
func (c Change) RestartRequired() bool {
	return c.Previous.Runtime != c.Current.Runtime || c.Previous.Scheme != c.Current.Scheme
}

// WebViewChanged reports whether per-webview settings changed. Of those,
// only DevTools can be applied to pages that are already open.
func (c Change) WebViewChanged() bool {
	return c.Previous.WebView != c.Current.WebView
}

// OnConfigChange registers fn for every applied change.
func (m *Manager) OnConfigChange(fn func(Change)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Watch follows the config file. Valid edits replace the current
// configuration and are reported to OnConfigChange callbacks; invalid edits
// are logged and ignored. The file written by Save is recognized by content
// and not reported a second time.
func (m *Manager) Watch() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watching {
		return nil
	}
	m.watching = true
	m.viper.OnConfigChange(m.fileChanged)
	m.viper.WatchConfig()
	return nil
}

func (m *Manager) fileChanged(e fsnotify.Event) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}
	log := logging.NewFromEnv().With().Str("component", "config").Str("file", e.Name).Logger()

	data, err := os.ReadFile(e.Name)
	if err != nil {
		log.Warn().Err(err).Msg("config file unreadable")
		return
	}
	// A truncating write shows up as an empty file first.
	if len(bytes.TrimSpace(data)) == 0 {
		return
	}

	m.mu.Lock()
	if m.saved != nil && bytes.Equal(data, m.saved) {
		m.mu.Unlock()
		return
	}
	next, err := m.reload()
	if err != nil {
		m.mu.Unlock()
		log.Warn().Err(err).Msg("config edit rejected, keeping current settings")
		return
	}
	change, callbacks, ok := m.applyLocked(next, nil)
	m.mu.Unlock()
	if !ok {
		return
	}

	if change.RestartRequired() {
		log.Warn().Msg("runtime settings changed, restart to apply them")
	} else {
		log.Info().Msg("config reloaded")
	}
	notify(callbacks, change)
}

// applyLocked installs next as the current configuration. It must be called
// with m.mu held for write. ok is false when nothing changed.
func (m *Manager) applyLocked(next *Config, saved []byte) (change Change, callbacks []func(Change), ok bool) {
	prev := m.config
	if prev == nil {
		prev = DefaultConfig()
	}
	m.config = next
	if saved != nil {
		m.saved = saved
	}
	if *prev == *next {
		return Change{}, nil, false
	}
	return Change{Previous: prev, Current: next}, slices.Clone(m.callbacks), true
}

func notify(callbacks []func(Change), change Change) {
	for _, fn := range callbacks {
		prev, cur := *change.Previous, *change.Current
		fn(Change{Previous: &prev, Current: &cur})
	}
}

// reload reads the file and environment into a new Config. It must be
// called with m.mu held for write.
func (m *Manager) reload() (*Config, error) {
	if err := m.viper.ReadInConfig(); err != nil {
		return nil, err
	}
	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return nil, err
	}
	normalizeConfig(config)
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}
