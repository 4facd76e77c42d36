package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/wew/internal/cli/styles"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and build information",
	Run: func(cmd *cobra.Command, _ []string) {
		theme := styles.NewTheme()
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
			theme.Highlight.Render(styles.IconGlobe+" wew"),
			theme.Badge.Render(buildInfo.Version),
			theme.Subtle.Render(fmt.Sprintf("%s %s, built %s, %s", styles.IconVersion, buildInfo.Commit, buildInfo.BuildDate, buildInfo.GoVersion)),
		)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
