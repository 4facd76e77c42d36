package wew

import (
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalDiskFactory serves custom scheme requests from files under a root
// directory. The URL path selects the file; an empty URL or path serves
// index.html. Paths escaping the root are declined.
type LocalDiskFactory struct {
	root string
}

// NewLocalDiskFactory returns a factory serving files below root.
func NewLocalDiskFactory(root string) *LocalDiskFactory {
	return &LocalDiskFactory{root: root}
}

// Root returns the served directory.
func (f *LocalDiskFactory) Root() string { return f.root }

// Resolve maps a request URL to a file path below the root.
func (f *LocalDiskFactory) Resolve(rawURL string) (string, bool) {
	if rawURL == "" {
		rawURL = "http://localhost/index.html"
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	p := strings.TrimPrefix(u.Path, "/")
	if p == "" {
		p = "index.html"
	}
	p = filepath.FromSlash(p)
	if !filepath.IsLocal(p) {
		return "", false
	}
	return filepath.Join(f.root, p), true
}

func (f *LocalDiskFactory) Request(req *Request) RequestHandler {
	path, ok := f.Resolve(req.URL)
	if !ok {
		return nil
	}
	return &localDiskHandler{path: path}
}

type localDiskHandler struct {
	path string
	file *os.File
}

func (h *localDiskHandler) Open() bool {
	f, err := os.Open(h.path)
	if err != nil {
		return false
	}
	h.file = f
	return true
}

func (h *localDiskHandler) Response() (Response, bool) {
	if h.file == nil {
		return Response{}, false
	}
	info, err := h.file.Stat()
	if err != nil {
		return Response{}, false
	}
	return Response{
		StatusCode:    200,
		ContentLength: uint64(info.Size()),
		MimeType:      mimeType(h.path),
	}, true
}

func (h *localDiskHandler) Skip(n uint64) (uint64, error) {
	if h.file == nil {
		return 0, os.ErrClosed
	}
	if _, err := h.file.Seek(int64(n), io.SeekCurrent); err != nil {
		return 0, err
	}
	return n, nil
}

func (h *localDiskHandler) Read(p []byte) (int, error) {
	if h.file == nil {
		return 0, os.ErrClosed
	}
	return h.file.Read(p)
}

func (h *localDiskHandler) Cancel() {
	_ = h.Close()
}

func (h *localDiskHandler) Close() error {
	if h.file == nil {
		return nil
	}
	err := h.file.Close()
	h.file = nil
	return err
}

// mimeType guesses the media type from the file extension, without
// parameters.
func mimeType(path string) string {
	t := mime.TypeByExtension(filepath.Ext(path))
	if t == "" {
		return "application/octet-stream"
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}
