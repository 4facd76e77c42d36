package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/wew/internal/cli"
	"github.com/bnema/wew/internal/cli/styles"
)

var snapshotOpts cli.SnapshotOptions

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <url>",
	Short: "Render a page off screen to a PNG",
	Long: `Render a page in a windowless webview and save the first frame painted
after it loaded. The engine loop is pumped by wew itself, so no window is
created.

Size and frame rate come from the webview section of the config.

Examples:
  wew snapshot https://example.com -o example.png
  wew snapshot https://example.com --settle 500ms --timeout 1m`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		opts := snapshotOpts
		opts.URL = args[0]
		if err := app.Snapshot(app.Ctx(), opts); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", app.Theme.SuccessStyle.Render(styles.IconImage), app.Theme.Highlight.Render(opts.Output))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&snapshotOpts.Output, "output", "o", "snapshot.png", "PNG file to write")
	snapshotCmd.Flags().DurationVar(&snapshotOpts.Timeout, "timeout", 30*time.Second, "give up after this long")
	snapshotCmd.Flags().DurationVar(&snapshotOpts.Settle, "settle", 0, "wait this long after load before capturing")
}
