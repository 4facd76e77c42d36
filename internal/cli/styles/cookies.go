package styles

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bnema/wew/internal/cookiestore"
	"github.com/bnema/wew/pkg/wew"
)

// CookieRenderer renders cookie listings.
type CookieRenderer struct {
	theme *Theme
}

func NewCookieRenderer(theme *Theme) *CookieRenderer {
	return &CookieRenderer{theme: theme}
}

func (r *CookieRenderer) newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(r.theme.Border)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.theme.TableHeader
			}
			return r.theme.TableCell
		}).
		Headers(headers...)
}

// RenderCookies renders cookies as a table.
func (r *CookieRenderer) RenderCookies(cookies []wew.Cookie) string {
	if len(cookies) == 0 {
		return r.theme.Subtle.Render(fmt.Sprintf("%s no cookies", IconCookie))
	}

	t := r.newTable("Name", "Value", "Domain", "Path", "Flags", "Expires")
	for _, c := range cookies {
		t.Row(c.Name, truncate(c.Value, 32), deref(c.Domain), deref(c.Path), cookieFlags(c), expires(c.Expires))
	}
	return t.Render()
}

// RenderSnapshots renders stored snapshots as a table.
func (r *CookieRenderer) RenderSnapshots(snaps []cookiestore.Snapshot) string {
	if len(snaps) == 0 {
		return r.theme.Subtle.Render(fmt.Sprintf("%s no snapshots", IconDatabase))
	}

	t := r.newTable("ID", "Label", "Created", "Cookies")
	for _, s := range snaps {
		t.Row(strconv.FormatInt(s.ID, 10), s.Label, s.CreatedAt.Local().Format(time.DateTime), strconv.Itoa(s.Count))
	}
	return t.Render()
}

// RenderSaved renders the result of an export.
func (r *CookieRenderer) RenderSaved(s cookiestore.Snapshot) string {
	return fmt.Sprintf("%s saved %s cookies as snapshot %s",
		r.theme.SuccessStyle.Render(IconCheck),
		r.theme.Highlight.Render(strconv.Itoa(s.Count)),
		r.theme.Highlight.Render(strconv.FormatInt(s.ID, 10)),
	)
}

// RenderRestored renders the result of an import.
func (r *CookieRenderer) RenderRestored(restored, failed int) string {
	line := fmt.Sprintf("%s restored %s cookies", r.theme.SuccessStyle.Render(IconCheck), r.theme.Highlight.Render(strconv.Itoa(restored)))
	if failed > 0 {
		line += r.theme.WarningStyle.Render(fmt.Sprintf(" (%d failed)", failed))
	}
	return line
}

func cookieFlags(c wew.Cookie) string {
	flags := ""
	if c.Secure {
		flags += "S"
	}
	if c.HTTPOnly {
		flags += "H"
	}
	switch c.SameSite {
	case wew.SameSiteLax:
		flags += "L"
	case wew.SameSiteStrict:
		flags += "X"
	case wew.SameSiteNoRestriction:
		flags += "N"
	}
	if flags == "" {
		return "-"
	}
	return flags
}

func expires(ts *int64) string {
	if ts == nil {
		return "session"
	}
	return time.Unix(*ts, 0).Local().Format(time.DateTime)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
