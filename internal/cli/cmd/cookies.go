package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/wew/internal/cli"
	"github.com/bnema/wew/internal/cli/styles"
	"github.com/bnema/wew/pkg/wew"
)

var (
	cookiesURL   string
	cookiesLabel string

	cookieSet struct {
		domain   string
		path     string
		secure   bool
		httpOnly bool
		maxAge   time.Duration
		sameSite string
	}
)

var cookiesCmd = &cobra.Command{
	Use:   "cookies",
	Short: "Manage the engine cookie store",
	Long: `Inspect and edit the cookies the engine keeps under runtime.cache_path, and
save or restore them as snapshots in a local SQLite database.`,
}

var cookiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored cookies",
	Long: `List every stored cookie, or those sent to --url.

Examples:
  wew cookies list
  wew cookies list --url https://example.com`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCookies(func(ctx context.Context, app *cli.App, jar *wew.CookieManager) error {
			cookies, err := jar.Cookies(ctx, cookiesURL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styles.NewCookieRenderer(app.Theme).RenderCookies(cookies))
			return nil
		})
	},
}

var cookiesSetCmd = &cobra.Command{
	Use:   "set <url> <name> <value>",
	Short: "Set a cookie",
	Long: `Set a cookie for url. Without --max-age the cookie lasts for the session.

Examples:
  wew cookies set https://example.com theme dark
  wew cookies set https://example.com sid abc --secure --http-only --max-age 24h`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		sameSite, err := parseSameSite(cookieSet.sameSite)
		if err != nil {
			return err
		}
		c := wew.NewCookie(args[1], args[2]).
			WithSecure(cookieSet.secure).
			WithHTTPOnly(cookieSet.httpOnly).
			WithSameSite(sameSite)
		if cookieSet.domain != "" {
			c = c.WithDomain(cookieSet.domain)
		}
		if cookieSet.path != "" {
			c = c.WithPath(cookieSet.path)
		}
		if cookieSet.maxAge > 0 {
			c = c.ExpiresIn(cookieSet.maxAge)
		}

		return withCookies(func(_ context.Context, app *cli.App, jar *wew.CookieManager) error {
			if err := jar.SetCookie(args[0], c); err != nil {
				return err
			}
			if err := jar.FlushStore(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s set %s\n", app.Theme.SuccessStyle.Render(styles.IconCheck), app.Theme.Highlight.Render(c.Name))
			return nil
		})
	},
}

var cookiesDeleteCmd = &cobra.Command{
	Use:   "delete [url] [name]",
	Short: "Delete cookies",
	Long: `Delete the cookie name for url, every cookie for url, or every cookie when
no argument is given.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var url, name string
		if len(args) > 0 {
			url = args[0]
		}
		if len(args) > 1 {
			name = args[1]
		}
		return withCookies(func(_ context.Context, app *cli.App, jar *wew.CookieManager) error {
			if err := jar.DeleteCookies(url, name); err != nil {
				return err
			}
			if err := jar.FlushStore(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s deleted\n", app.Theme.SuccessStyle.Render(styles.IconCheck))
			return nil
		})
	},
}

var cookiesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Save the current cookies as a snapshot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCookies(func(ctx context.Context, app *cli.App, jar *wew.CookieManager) error {
			store, err := app.OpenCookieStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			snap, err := cli.ExportCookies(ctx, jar, store, cookiesLabel, cookiesURL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styles.NewCookieRenderer(app.Theme).RenderSaved(snap))
			return nil
		})
	},
}

var cookiesImportCmd = &cobra.Command{
	Use:   "import [snapshot-id]",
	Short: "Restore a snapshot into the cookie store",
	Long:  `Restore the given snapshot, or the newest one when no ID is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := snapshotID(args)
		if err != nil {
			return err
		}
		return withCookies(func(ctx context.Context, app *cli.App, jar *wew.CookieManager) error {
			store, err := app.OpenCookieStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			restored, failed, err := cli.ImportCookies(ctx, jar, store, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styles.NewCookieRenderer(app.Theme).RenderRestored(restored, failed))
			return nil
		})
	},
}

var cookiesSnapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List saved snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		store, err := app.OpenCookieStore(app.Ctx())
		if err != nil {
			return err
		}
		defer store.Close()

		snaps, err := store.Snapshots(app.Ctx())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), styles.NewCookieRenderer(app.Theme).RenderSnapshots(snaps))
		return nil
	},
}

var cookiesDropCmd = &cobra.Command{
	Use:   "drop <snapshot-id>",
	Short: "Delete a saved snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		id, err := snapshotID(args)
		if err != nil {
			return err
		}
		store, err := app.OpenCookieStore(app.Ctx())
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(app.Ctx(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s dropped snapshot %d\n", app.Theme.SuccessStyle.Render(styles.IconCheck), id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cookiesCmd)
	cookiesCmd.AddCommand(cookiesListCmd, cookiesSetCmd, cookiesDeleteCmd, cookiesExportCmd, cookiesImportCmd, cookiesSnapshotsCmd, cookiesDropCmd)

	cookiesListCmd.Flags().StringVar(&cookiesURL, "url", "", "only cookies sent to this URL")
	cookiesExportCmd.Flags().StringVar(&cookiesURL, "url", "", "only cookies sent to this URL")
	cookiesExportCmd.Flags().StringVarP(&cookiesLabel, "label", "l", "", "snapshot label")

	f := cookiesSetCmd.Flags()
	f.StringVar(&cookieSet.domain, "domain", "", "cookie domain (default: derived from the URL)")
	f.StringVar(&cookieSet.path, "path", "", "cookie path (default: derived from the URL)")
	f.BoolVar(&cookieSet.secure, "secure", false, "only send over https")
	f.BoolVar(&cookieSet.httpOnly, "http-only", false, "hide from scripts")
	f.DurationVar(&cookieSet.maxAge, "max-age", 0, "lifetime; zero makes a session cookie")
	f.StringVar(&cookieSet.sameSite, "same-site", "", "none, lax or strict")
}

// withCookies runs fn with the global cookie manager of a started runtime.
func withCookies(fn func(ctx context.Context, app *cli.App, jar *wew.CookieManager) error) error {
	app, err := requireApp()
	if err != nil {
		return err
	}
	return app.WithRuntime(func(ctx context.Context) error {
		jar, err := wew.GlobalCookieManager()
		if err != nil {
			return err
		}
		defer jar.Close()
		return fn(ctx, app, jar)
	})
}

func parseSameSite(v string) (wew.SameSite, error) {
	switch v {
	case "":
		return wew.SameSiteUnspecified, nil
	case "none":
		return wew.SameSiteNoRestriction, nil
	case "lax":
		return wew.SameSiteLax, nil
	case "strict":
		return wew.SameSiteStrict, nil
	default:
		return 0, fmt.Errorf("invalid same-site %q (want none, lax or strict)", v)
	}
}

func snapshotID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid snapshot id %q", args[0])
	}
	return id, nil
}
