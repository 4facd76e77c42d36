package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/bnema/wew/internal/cli/styles"
	"github.com/bnema/wew/internal/cookiestore"
	"github.com/bnema/wew/internal/native"
)

// Diagnose runs the doctor checks concurrently. Individual failures are
// reported in the result, not returned.
func (a *App) Diagnose(ctx context.Context) (styles.DoctorReport, error) {
	checks := make([]styles.DoctorCheck, 4)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		checks[0] = checkLibrary(a.Config.Runtime.LibraryPath)
		return nil
	})
	g.Go(func() error {
		checks[1] = a.checkConfig()
		return nil
	})
	g.Go(func() error {
		checks[2] = checkWritableDir("Cache directory", a.Config.Runtime.RootCachePath)
		return nil
	})
	g.Go(func() error {
		checks[3] = checkCookieStore(gctx, a.Config.Cookies.Database)
		return nil
	})
	if err := g.Wait(); err != nil {
		return styles.DoctorReport{}, err
	}

	return styles.DoctorReport{Sections: []styles.DoctorSection{
		{Title: "Engine", Icon: styles.IconPackage, Checks: checks[:1]},
		{Title: "Files", Icon: styles.IconFolder, Checks: checks[1:]},
	}}, nil
}

func checkLibrary(override string) styles.DoctorCheck {
	check := styles.DoctorCheck{Name: native.LibraryName()}
	candidates := native.Candidates()
	if override != "" {
		p := override
		if fi, err := os.Stat(p); err == nil && fi.IsDir() {
			p = filepath.Join(p, native.LibraryName())
		}
		candidates = append([]string{p}, candidates...)
	}

	for _, path := range candidates {
		if !filepath.IsAbs(path) {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			check.Detail = path
			return check
		}
	}
	check.Status = styles.DoctorWarn
	check.Detail = fmt.Sprintf("not found next to the binary; relying on the system loader (set %s to override)", native.EnvLibraryPath)
	return check
}

func (a *App) checkConfig() styles.DoctorCheck {
	check := styles.DoctorCheck{Name: "Config", Detail: a.Manager.ConfigFile()}
	if a.ConfigErr != nil {
		check.Status = styles.DoctorFail
		check.Detail = a.ConfigErr.Error()
	}
	return check
}

func checkWritableDir(name, dir string) styles.DoctorCheck {
	check := styles.DoctorCheck{Name: name, Detail: dir}
	if dir == "" {
		check.Status, check.Detail = styles.DoctorWarn, "not set"
		return check
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		check.Status, check.Detail = styles.DoctorFail, err.Error()
		return check
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		check.Status, check.Detail = styles.DoctorFail, err.Error()
		return check
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return check
}

func checkCookieStore(ctx context.Context, path string) styles.DoctorCheck {
	check := styles.DoctorCheck{Name: "Cookie snapshots", Detail: path}
	store, err := cookiestore.Open(ctx, path)
	if err != nil {
		check.Status, check.Detail = styles.DoctorFail, err.Error()
		return check
	}
	defer store.Close()

	snaps, err := store.Snapshots(ctx)
	if err != nil {
		check.Status, check.Detail = styles.DoctorFail, err.Error()
		return check
	}
	check.Detail = fmt.Sprintf("%s (%d snapshots)", path, len(snaps))
	return check
}
