package cli

import (
	"context"
	"fmt"

	"github.com/bnema/wew/internal/cookiestore"
	"github.com/bnema/wew/internal/logging"
	"github.com/bnema/wew/pkg/wew"
)

// CookieJar is the part of wew.CookieManager the cookie commands use.
type CookieJar interface {
	SetCookie(url string, c wew.Cookie) error
	DeleteCookies(url, name string) error
	FlushStore() error
	Cookies(ctx context.Context, url string) ([]wew.Cookie, error)
}

var _ CookieJar = (*wew.CookieManager)(nil)

// ExportCookies saves the cookies visible for url (all when empty) as a new
// snapshot.
func ExportCookies(ctx context.Context, jar CookieJar, store *cookiestore.Store, label, url string) (cookiestore.Snapshot, error) {
	cookies, err := jar.Cookies(ctx, url)
	if err != nil {
		return cookiestore.Snapshot{}, fmt.Errorf("read cookies: %w", err)
	}

	entries := make([]cookiestore.Entry, 0, len(cookies))
	for _, c := range cookies {
		entries = append(entries, cookiestore.Entry{URL: cookiestore.CookieURL(c, url), Cookie: c})
	}
	snap, err := store.Save(ctx, label, entries)
	if err != nil {
		return cookiestore.Snapshot{}, err
	}
	logging.FromContext(logging.WithSnapshot(ctx, snap.ID)).Debug().Int("cookies", snap.Count).Msg("cookies exported")
	return snap, nil
}

// ImportCookies restores snapshot id, or the newest one when id is zero, and
// flushes the store. Cookies the engine rejects are counted and skipped.
func ImportCookies(ctx context.Context, jar CookieJar, store *cookiestore.Store, id int64) (restored, failed int, err error) {
	if id == 0 {
		if id, err = store.Latest(ctx); err != nil {
			return 0, 0, err
		}
	}
	log := logging.FromContext(logging.WithSnapshot(ctx, id))
	entries, err := store.Entries(ctx, id)
	if err != nil {
		return 0, 0, err
	}

	for _, e := range entries {
		if err := jar.SetCookie(e.URL, e.Cookie); err != nil {
			log.Warn().Err(err).Str("url", e.URL).Str("name", e.Cookie.Name).Msg("cookie not restored")
			failed++
			continue
		}
		restored++
	}
	if err := jar.FlushStore(); err != nil {
		return restored, failed, fmt.Errorf("flush cookies: %w", err)
	}
	return restored, failed, nil
}
