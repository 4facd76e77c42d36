package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wew/internal/cli/styles"
	"github.com/bnema/wew/internal/cookiestore"
	"github.com/bnema/wew/internal/logging"
	"github.com/bnema/wew/pkg/wew"
)

type fakeJar struct {
	cookies []wew.Cookie
	set     map[string]wew.Cookie
	reject  string
	flushed int
}

func (j *fakeJar) SetCookie(url string, c wew.Cookie) error {
	if c.Name == j.reject {
		return wew.ErrSetCookieFailed
	}
	if j.set == nil {
		j.set = make(map[string]wew.Cookie)
	}
	j.set[url+"#"+c.Name] = c
	return nil
}

func (j *fakeJar) DeleteCookies(string, string) error { return nil }

func (j *fakeJar) FlushStore() error {
	j.flushed++
	return nil
}

func (j *fakeJar) Cookies(context.Context, string) ([]wew.Cookie, error) {
	return j.cookies, nil
}

type mockJar struct {
	mock.Mock
}

func (m *mockJar) SetCookie(url string, c wew.Cookie) error {
	return m.Called(url, c).Error(0)
}

func (m *mockJar) DeleteCookies(url, name string) error {
	return m.Called(url, name).Error(0)
}

func (m *mockJar) FlushStore() error {
	return m.Called().Error(0)
}

func (m *mockJar) Cookies(ctx context.Context, url string) ([]wew.Cookie, error) {
	args := m.Called(ctx, url)
	cookies, _ := args.Get(0).([]wew.Cookie)
	return cookies, args.Error(1)
}

func openTestStore(t *testing.T) *cookiestore.Store {
	t.Helper()
	s, err := cookiestore.Open(context.Background(), filepath.Join(t.TempDir(), "cookies.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestExportImportCookies(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	src := &fakeJar{cookies: []wew.Cookie{
		wew.NewCookie("sid", "abc").WithDomain(".example.com").WithSecure(true),
		wew.NewCookie("local", "1"),
	}}
	snap, err := ExportCookies(ctx, src, store, "manual", "http://localhost/")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Count)

	dst := &fakeJar{}
	restored, failed, err := ImportCookies(ctx, dst, store, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, restored)
	assert.Zero(t, failed)
	assert.Equal(t, 1, dst.flushed)
	assert.Contains(t, dst.set, "https://example.com/#sid")
	assert.Contains(t, dst.set, "http://localhost/#local")
}

func TestImportCookiesCountsRejected(t *testing.T) {
	var logs bytes.Buffer
	logger := logging.New(logging.Config{Level: zerolog.DebugLevel, Format: "json", Output: &logs})
	ctx := logging.WithContext(context.Background(), logger)
	store := openTestStore(t)

	src := &fakeJar{cookies: []wew.Cookie{wew.NewCookie("a", "1"), wew.NewCookie("b", "2")}}
	snap, err := ExportCookies(ctx, src, store, "", "http://localhost/")
	require.NoError(t, err)

	restored, failed, err := ImportCookies(ctx, &fakeJar{reject: "b"}, store, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, restored)
	assert.Equal(t, 1, failed)

	out := logs.String()
	assert.Contains(t, out, fmt.Sprintf(`"snapshot":%d`, snap.ID))
	assert.Contains(t, out, `"message":"cookie not restored"`)
	assert.Contains(t, out, `"name":"b"`)
}

func TestImportCookiesFlushFailure(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	_, err := store.Save(ctx, "one", []cookiestore.Entry{{URL: "http://localhost/", Cookie: wew.NewCookie("a", "1")}})
	require.NoError(t, err)

	jar := &mockJar{}
	jar.On("SetCookie", "http://localhost/", mock.AnythingOfType("wew.Cookie")).Return(nil).Once()
	jar.On("FlushStore").Return(wew.ErrFlushStoreFailed).Once()

	restored, _, err := ImportCookies(ctx, jar, store, 0)
	assert.ErrorIs(t, err, wew.ErrFlushStoreFailed)
	assert.Equal(t, 1, restored)
	jar.AssertExpectations(t)
}

func TestExportCookiesReadFailure(t *testing.T) {
	jar := &mockJar{}
	jar.On("Cookies", mock.Anything, "https://example.com").Return(nil, wew.ErrCookieManagerClosed)

	_, err := ExportCookies(context.Background(), jar, openTestStore(t), "", "https://example.com")
	assert.ErrorIs(t, err, wew.ErrCookieManagerClosed)
	jar.AssertExpectations(t)
}

func TestImportCookiesEmptyStore(t *testing.T) {
	_, _, err := ImportCookies(context.Background(), &fakeJar{}, openTestStore(t), 0)
	assert.ErrorIs(t, err, cookiestore.ErrSnapshotNotFound)
}

func TestFrameImageSwapsChannels(t *testing.T) {
	frame := []byte{
		1, 2, 3, 255, // BGRA
		10, 20, 30, 128,
	}
	img, err := FrameImage(frame, wew.Rect{Width: 2, Height: 1})
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 2, 1, 255, 30, 20, 10, 128}, img.Pix)

	_, err = FrameImage(frame, wew.Rect{Width: 2, Height: 2})
	assert.Error(t, err)
	_, err = FrameImage(nil, wew.Rect{})
	assert.Error(t, err)
}

func TestWritePNG(t *testing.T) {
	img, err := FrameImage([]byte{0, 0, 255, 255}, wew.Rect{Width: 1, Height: 1})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "shot.png")
	require.NoError(t, WritePNG(path, img))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	r, g, b, _ := decoded.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestFrameCaptureWaitsForLoadAndSettle(t *testing.T) {
	now := time.Unix(0, 0)
	c := newFrameCapture(100*time.Millisecond, func() time.Time { return now })
	done := 0
	c.onDone = func() { done++ }

	frame := []byte{0, 0, 0, 255}
	rect := wew.Rect{Width: 1, Height: 1}

	c.OnFrame(frame, rect)
	assert.Zero(t, done, "frames before Loaded are ignored")

	c.OnStateChange(wew.Loaded)
	c.OnFrame(frame, rect)
	assert.Zero(t, done, "frames during settle are ignored")

	now = now.Add(150 * time.Millisecond)
	c.OnFrame(frame, rect)
	c.OnFrame(frame, rect)
	assert.Equal(t, 1, done)

	img, err := c.result()
	require.NoError(t, err)
	assert.Equal(t, 1, img.Bounds().Dx())
}

func TestFrameCaptureLoadError(t *testing.T) {
	c := newFrameCapture(0, time.Now)
	closed := false
	c.onClosed = func() { closed = true }

	c.OnStateChange(wew.LoadError)
	_, err := c.result()
	assert.True(t, errors.Is(err, ErrPageLoad))

	c.OnStateChange(wew.Close)
	assert.True(t, closed)
}

func TestCheckWritableDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	assert.Equal(t, styles.DoctorOK, checkWritableDir("Cache", dir).Status)
	assert.Equal(t, styles.DoctorWarn, checkWritableDir("Cache", "").Status)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	assert.Equal(t, styles.DoctorFail, checkWritableDir("Cache", filepath.Join(file, "sub")).Status)
}

func TestCheckCookieStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.sqlite")
	c := checkCookieStore(context.Background(), path)
	assert.Equal(t, styles.DoctorOK, c.Status)
	assert.Contains(t, c.Detail, "0 snapshots")
}

func TestCheckLibraryOverrideDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WEW_LIBRARY_PATH", "")

	c := checkLibrary(dir)
	assert.Equal(t, styles.DoctorWarn, c.Status)

	lib := filepath.Join(dir, c.Name)
	require.NoError(t, os.WriteFile(lib, nil, 0o600))
	c = checkLibrary(dir)
	assert.Equal(t, styles.DoctorOK, c.Status)
	assert.Equal(t, lib, c.Detail)
}
