package cli

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/wew/internal/config"
	"github.com/bnema/wew/internal/logging"
	"github.com/bnema/wew/internal/pump"
	"github.com/bnema/wew/pkg/wew"
)

// ErrPageLoad is returned when the page reports a load error.
var ErrPageLoad = errors.New("page failed to load")

// SnapshotOptions configures Snapshot.
type SnapshotOptions struct {
	URL     string
	Output  string
	Timeout time.Duration
	// Settle delays the capture after the page reported Loaded.
	Settle time.Duration
}

// Snapshot renders URL in a windowless webview driven by a host-pumped loop
// and writes the first frame painted after the page loaded as a PNG.
func (a *App) Snapshot(ctx context.Context, opts SnapshotOptions) error {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(logging.WithURL(logging.WithComponent(ctx, "snapshot"), opts.URL), opts.Timeout)
	defer cancel()
	log := logging.FromContext(ctx)

	if err := wew.LoadEngine(ctx); err != nil {
		return err
	}

	cfg := *a.Config
	cfg.Runtime.Loop = config.LoopPump
	cfg.Runtime.Mode = config.RenderWindowless

	host := pump.NewLoop()
	engineLoop := wew.MessagePumpLoop{}
	sched := pump.NewScheduler(func(fn func()) { host.Post(fn) }, engineLoop.Poll)
	defer sched.Stop()

	capture := newFrameCapture(opts.Settle, time.Now)
	var (
		rt *wew.Runtime
		wv *wew.WindowlessWebView
	)
	// Closing the webview drops its callbacks, so the loop quits right away
	// instead of waiting for the Close state.
	capture.onDone = func() {
		host.Post(func() {
			if wv != nil {
				wv.Close()
			}
			host.Quit()
		})
	}
	capture.onClosed = host.Quit

	handler := &pumpHandler{
		schedule: sched.Schedule,
		ready: func() {
			// Deferred to the host loop: the engine may report the context
			// before CreateRuntime returned.
			host.Post(func() {
				var err error
				wv, err = rt.CreateWindowlessWebView(opts.URL, cfg.WebViewAttributes(nil), capture)
				if err != nil {
					capture.fail(fmt.Errorf("create webview: %w", err))
					host.Quit()
				}
			})
		},
	}

	var err error
	rt, err = cfg.RuntimeAttributes(engineLoop, nil).CreateRuntime(handler)
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close()

	log.Debug().Msg("waiting for first frame")
	if err := host.Run(ctx); err != nil {
		if wv != nil {
			wv.Close()
		}
		return fmt.Errorf("snapshot %s: %w", opts.URL, err)
	}

	img, err := capture.result()
	if err != nil {
		return err
	}
	return WritePNG(opts.Output, img)
}

type pumpHandler struct {
	schedule func(delayMS int64)
	ready    func()
}

func (h *pumpHandler) OnContextInitialized()                   { h.ready() }
func (h *pumpHandler) OnScheduleMessagePumpWork(delayMS int64) { h.schedule(delayMS) }

// frameCapture keeps the first frame painted once the page has loaded.
type frameCapture struct {
	wew.NopWindowlessHandler

	mu       sync.Mutex
	settle   time.Duration
	now      func() time.Time
	loadedAt time.Time
	img      *image.RGBA
	err      error
	done     bool

	onDone   func()
	onClosed func()
}

func newFrameCapture(settle time.Duration, now func() time.Time) *frameCapture {
	return &frameCapture{settle: settle, now: now, onDone: func() {}, onClosed: func() {}}
}

func (c *frameCapture) OnStateChange(state wew.WebViewState) {
	switch state {
	case wew.Loaded:
		c.mu.Lock()
		if c.loadedAt.IsZero() {
			c.loadedAt = c.now()
		}
		c.mu.Unlock()
	case wew.LoadError:
		c.fail(ErrPageLoad)
		c.onDone()
	case wew.Close:
		c.onClosed()
	}
}

func (c *frameCapture) OnFrame(frame []byte, rect wew.Rect) {
	c.mu.Lock()
	if c.done || c.loadedAt.IsZero() || c.now().Sub(c.loadedAt) < c.settle {
		c.mu.Unlock()
		return
	}
	img, err := FrameImage(frame, rect)
	if err != nil {
		c.mu.Unlock()
		return
	}
	c.img = img
	c.done = true
	c.mu.Unlock()
	c.onDone()
}

func (c *frameCapture) fail(err error) {
	c.mu.Lock()
	if !c.done {
		c.err = err
		c.done = true
	}
	c.mu.Unlock()
}

func (c *frameCapture) result() (*image.RGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if c.img == nil {
		return nil, errors.New("no frame captured")
	}
	return c.img, nil
}

// FrameImage copies a tightly packed BGRA frame into an RGBA image.
func FrameImage(frame []byte, rect wew.Rect) (*image.RGBA, error) {
	w, h := int(rect.Width), int(rect.Height)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty frame %dx%d", w, h)
	}
	if len(frame) < w*h*4 {
		return nil, fmt.Errorf("short frame: %d bytes for %dx%d", len(frame), w, h)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h*4; i += 4 {
		img.Pix[i+0] = frame[i+2]
		img.Pix[i+1] = frame[i+1]
		img.Pix[i+2] = frame[i+0]
		img.Pix[i+3] = frame[i+3]
	}
	return img, nil
}

// WritePNG encodes img to path, creating parent directories.
func WritePNG(path string, img image.Image) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, img)
}
