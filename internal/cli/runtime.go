package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/wew/internal/config"
	"github.com/bnema/wew/internal/logging"
	"github.com/bnema/wew/pkg/wew"
)

// ErrLoopExited is returned when the message loop stops before the task
// handed to WithRuntime finished.
var ErrLoopExited = errors.New("message loop exited early")

// WithRuntime starts a native-window runtime on the main thread loop and runs
// fn on its own goroutine once the engine context is ready. The loop quits
// when fn returns. It must be called from the main goroutine.
func (a *App) WithRuntime(fn func(ctx context.Context) error) error {
	ctx := logging.WithComponent(a.ctx, "runtime")
	log := logging.FromContext(ctx)

	if err := wew.LoadEngine(ctx); err != nil {
		return err
	}

	cfg := *a.Config
	cfg.Runtime.Mode = config.RenderNative
	loop := wew.MainThreadMessageLoop{}

	errc := make(chan error, 1)
	rt, err := cfg.RuntimeAttributes(loop, nil).CreateRuntime(wew.RuntimeHandlerFunc(func() {
		log.Debug().Msg("context initialized")
		go func() {
			errc <- fn(ctx)
			loop.Quit()
		}()
	}))
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close()

	loop.Run()

	select {
	case err := <-errc:
		return err
	default:
		return ErrLoopExited
	}
}
