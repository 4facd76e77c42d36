package wew

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/bnema/wew/internal/handle"
	"github.com/bnema/wew/internal/logging"
	"github.com/bnema/wew/internal/mainthread"
	"github.com/bnema/wew/internal/native"
)

var (
	engineMu sync.Mutex
	engine   native.Engine

	pkgLogger atomic.Pointer[zerolog.Logger]

	// contexts resolves every key handed to the engine.
	contexts = handle.NewTable()

	// Overridden in tests.
	isMainThread = mainthread.IsMain
	processArgs  = func() []string { return os.Args }
)

func init() {
	nop := zerolog.Nop()
	pkgLogger.Store(&nop)
}

// SetLogger sets the logger used for binding diagnostics. The binding is
// silent by default.
func SetLogger(l zerolog.Logger) {
	pkgLogger.Store(&l)
}

func log() *zerolog.Logger {
	return pkgLogger.Load()
}

// SetEngine installs the engine implementation. It is meant for hosts that
// load the library themselves, and for tests.
func SetEngine(e native.Engine) {
	engineMu.Lock()
	engine = e
	engineMu.Unlock()
}

// LoadEngine loads libwew from the default search path unless an engine is
// already installed.
func LoadEngine(ctx context.Context) error {
	_, err := loadEngine(ctx)
	return err
}

func loadEngine(ctx context.Context) (native.Engine, error) {
	engineMu.Lock()
	defer engineMu.Unlock()

	if engine != nil {
		return engine, nil
	}

	lib, err := native.Load(logging.WithComponent(ctx, "native"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}
	engine = lib
	log().Debug().Str("path", lib.Path()).Msg("engine library loaded")
	return engine, nil
}

func currentEngine() (native.Engine, error) {
	return loadEngine(log().WithContext(context.Background()))
}
