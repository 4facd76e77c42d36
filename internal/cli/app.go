// Package cli holds the dependencies shared by the wew commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/bnema/wew/internal/cli/styles"
	"github.com/bnema/wew/internal/config"
	"github.com/bnema/wew/internal/cookiestore"
	"github.com/bnema/wew/internal/logging"
	"github.com/bnema/wew/internal/native"
	"github.com/bnema/wew/pkg/wew"
)

// BuildInfo is set from ldflags in main.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
}

// App holds CLI dependencies.
type App struct {
	Config    *config.Config
	Manager   *config.Manager
	Theme     *styles.Theme
	BuildInfo BuildInfo
	Logger    zerolog.Logger

	// ConfigErr is the load error when the defaults were used instead.
	ConfigErr error

	ctx        context.Context
	logCleanup func()
}

// NewApp loads the configuration and sets up logging. A broken config file
// does not fail startup; the defaults are used and ConfigErr is set.
func NewApp() (*App, error) {
	mgr, err := config.NewManager()
	if err != nil {
		return nil, fmt.Errorf("config manager: %w", err)
	}
	cfg := config.DefaultConfig()
	loadErr := mgr.Load()
	if loadErr == nil {
		cfg = mgr.Get()
	}

	logger, cleanup, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	if loadErr != nil {
		logger.Warn().Err(loadErr).Str("path", mgr.ConfigFile()).Msg("config not loaded, using defaults")
	}
	wew.SetLogger(logger.With().Str("component", "wew").Logger())

	// The loader only reads the environment.
	if lib := cfg.Runtime.LibraryPath; lib != "" && os.Getenv(native.EnvLibraryPath) == "" {
		if err := os.Setenv(native.EnvLibraryPath, lib); err != nil {
			return nil, fmt.Errorf("set library path: %w", err)
		}
	}

	return &App{
		Config:     cfg,
		Manager:    mgr,
		Theme:      styles.NewTheme(),
		Logger:     logger,
		ConfigErr:  loadErr,
		ctx:        logging.WithContext(context.Background(), logger),
		logCleanup: cleanup,
	}, nil
}

func newLogger(lc config.LoggingConfig) (zerolog.Logger, func(), error) {
	cfg := logging.Config{
		Level:      logging.ParseLevel(lc.Level),
		Format:     lc.Format,
		TimeFormat: "15:04:05",
	}
	if !lc.File {
		return logging.New(cfg), func() {}, nil
	}

	dir := lc.Dir
	if dir == "" {
		var err error
		if dir, err = config.GetLogDir(); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("log dir: %w", err)
		}
	}
	rotator, err := logging.NewLogRotator(logging.RotatorConfig{
		Dir:        dir,
		MaxSizeMB:  lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
		Compress:   lc.Compress,
	})
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	// The file always gets JSON; the console keeps the configured format.
	var console io.Writer = os.Stderr
	if lc.Format == "console" {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: cfg.TimeFormat}
	}
	logger := zerolog.New(zerolog.MultiLevelWriter(console, rotator)).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()
	return logger, func() { _ = rotator.Close() }, nil
}

// Close releases all resources.
func (a *App) Close() error {
	if a.logCleanup != nil {
		a.logCleanup()
	}
	return nil
}

// Ctx returns the application context with logger.
func (a *App) Ctx() context.Context {
	return a.ctx
}

// OpenCookieStore opens the snapshot database configured in cookies.database.
func (a *App) OpenCookieStore(ctx context.Context) (*cookiestore.Store, error) {
	return cookiestore.Open(ctx, a.Config.Cookies.Database)
}

// Stdout is where commands render output.
var Stdout io.Writer = os.Stdout
