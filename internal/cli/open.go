package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/bnema/wew/internal/config"
	"github.com/bnema/wew/internal/logging"
	"github.com/bnema/wew/pkg/wew"
)

// ErrPumpLoopUnsupported is returned by Open for runtime.loop = "pump".
var ErrPumpLoopUnsupported = errors.New("open needs the main or multi loop; the pump loop only drives windowless snapshots")

// OpenOptions configures Open.
type OpenOptions struct {
	URL      string
	DevTools bool
	// Serve overrides scheme.root.
	Serve string
	// Watch applies config file changes to the open page.
	Watch bool
}

// Open shows URL in a native window and blocks until the page closes or the
// process is interrupted. It must be called from the main goroutine.
func (a *App) Open(ctx context.Context, opts OpenOptions) error {
	ctx = logging.WithComponent(ctx, "open")
	log := logging.FromContext(ctx)

	cfg := *a.Config
	cfg.Runtime.Mode = config.RenderNative
	if opts.Serve != "" {
		cfg.Scheme.Root = opts.Serve
	}
	if cfg.Runtime.Loop == config.LoopPump {
		return ErrPumpLoopUnsupported
	}

	if err := wew.LoadEngine(ctx); err != nil {
		return err
	}

	var (
		scheme  *wew.CustomSchemeAttributes
		factory *wew.CustomRequestHandlerFactory
	)
	if cfg.Scheme.Enabled() {
		var err error
		factory, err = wew.NewCustomRequestHandlerFactory(wew.NewLocalDiskFactory(cfg.Scheme.Root))
		if err != nil {
			return fmt.Errorf("scheme factory: %w", err)
		}
		defer factory.Close()
		scheme = wew.NewCustomSchemeAttributes(cfg.Scheme.Name, cfg.Scheme.Domain, factory)
		log.Info().Str("root", cfg.Scheme.Root).Str("scheme", cfg.Scheme.Name).Msg("serving local files")
	}
	url := opts.URL
	if url == "" {
		if scheme == nil {
			return errors.New("no url given and no scheme root configured")
		}
		url = fmt.Sprintf("%s://%s/index.html", cfg.Scheme.Name, cfg.Scheme.Domain)
	}
	ctx = logging.WithURL(ctx, url)
	log = logging.FromContext(ctx)

	loop := cfg.MessageLoop()
	done := make(chan struct{})
	var quitOnce sync.Once
	quit := func() {
		quitOnce.Do(func() {
			close(done)
			if l, ok := loop.(wew.MainThreadMessageLoop); ok {
				l.Quit()
			}
		})
	}

	var (
		rt      *wew.Runtime
		rtReady = make(chan struct{})
		current atomic.Pointer[wew.WebView]
	)
	page := &pageHandler{log: log, quit: quit, current: &current}
	createPage := func() {
		<-rtReady
		wv, err := rt.CreateWebView(url, cfg.WebViewAttributes(factory), page)
		if err != nil {
			log.Error().Err(err).Msg("failed to open page")
			quit()
			return
		}
		current.Store(wv)
		if opts.DevTools || cfg.WebView.DevTools {
			wv.SetDevToolsEnabled(true)
		}
	}

	var err error
	rt, err = cfg.RuntimeAttributes(loop, scheme).CreateRuntime(wew.RuntimeHandlerFunc(func() {
		if !wew.PostMain(createPage) {
			log.Error().Msg("engine refused the page task")
			quit()
		}
	}))
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	close(rtReady)
	defer rt.Close()

	if opts.Watch {
		a.watchConfig(log, &current)
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		select {
		case <-sigCtx.Done():
			log.Info().Msg("received interrupt, quitting")
			if !wew.PostMain(func() { page.close() }) {
				quit()
			}
		case <-done:
		}
	}()

	if l, ok := loop.(wew.MainThreadMessageLoop); ok {
		l.Run()
		quit()
	} else {
		<-done
	}
	return nil
}

func (a *App) watchConfig(log *zerolog.Logger, current *atomic.Pointer[wew.WebView]) {
	a.Manager.OnConfigChange(func(c config.Change) {
		if c.RestartRequired() {
			log.Warn().Msg("runtime or scheme settings changed, reopen the page to apply them")
		}
		if c.Previous.WebView.DevTools == c.Current.WebView.DevTools {
			return
		}
		devtools := c.Current.WebView.DevTools
		wew.PostMain(func() {
			if wv := current.Load(); wv != nil {
				wv.SetDevToolsEnabled(devtools)
			}
		})
		log.Info().Bool("devtools", devtools).Msg("devtools toggled from config")
	})
	if err := a.Manager.Watch(); err != nil {
		log.Warn().Err(err).Msg("config watch disabled")
	}
}

// pageHandler closes the page when it asks to, and quits once it is gone.
type pageHandler struct {
	wew.NopWebViewHandler
	log     *zerolog.Logger
	quit    func()
	current *atomic.Pointer[wew.WebView]
}

func (h *pageHandler) close() {
	if wv := h.current.Swap(nil); wv != nil {
		wv.Close()
	}
	h.quit()
}

func (h *pageHandler) OnStateChange(state wew.WebViewState) {
	h.log.Debug().Stringer("state", state).Msg("page state")
	switch state {
	case wew.LoadError:
		h.log.Warn().Msg("page failed to load")
	case wew.RequestClose, wew.Close:
		h.close()
	}
}

func (h *pageHandler) OnTitleChange(title string) {
	h.log.Info().Str("title", title).Msg("title changed")
}

func (h *pageHandler) OnMessage(message string) {
	h.log.Info().Str("message", message).Msg("page message")
}
