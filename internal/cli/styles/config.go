package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// ConfigRenderer renders config status messages.
type ConfigRenderer struct {
	theme *Theme
}

func NewConfigRenderer(theme *Theme) *ConfigRenderer {
	return &ConfigRenderer{theme: theme}
}

// RenderPath renders the config file location.
func (r *ConfigRenderer) RenderPath(path string, exists bool) string {
	iconStyle := lipgloss.NewStyle().Foreground(r.theme.Accent)
	status := r.theme.SuccessStyle.Render("exists")
	if !exists {
		status = r.theme.WarningStyle.Render("not created yet")
	}
	return fmt.Sprintf("%s Config %s %s", iconStyle.Render(IconConfig), r.theme.Subtle.Render(path), r.theme.BadgeMuted.Render(status))
}

// RenderCreated renders the result of config init.
func (r *ConfigRenderer) RenderCreated(path string) string {
	return fmt.Sprintf("%s Created %s", r.theme.SuccessStyle.Render(IconCheck), r.theme.Highlight.Render(path))
}

func (r *ConfigRenderer) RenderError(err error) string {
	return fmt.Sprintf("%s %s", r.theme.ErrorStyle.Render(IconX), r.theme.ErrorStyle.Render(err.Error()))
}
