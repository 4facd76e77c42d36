package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bnema/wew/internal/cli"
)

var openOpts cli.OpenOptions

var openCmd = &cobra.Command{
	Use:   "open [url]",
	Short: "Open a page in a native window",
	Long: `Open a page in a native engine window and wait until it closes.

Without a URL the index.html of the custom scheme root is opened, if one is
configured (scheme.root) or given with --serve.

Examples:
  wew open https://example.com
  wew open --serve ./dist
  wew open --devtools --watch https://example.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}
		opts := openOpts
		if len(args) == 1 {
			opts.URL = args[0]
		}
		return app.Open(app.Ctx(), opts)
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().BoolVar(&openOpts.DevTools, "devtools", false, "open the inspector with the page")
	openCmd.Flags().StringVar(&openOpts.Serve, "serve", "", "serve this directory on the custom scheme")
	openCmd.Flags().BoolVar(&openOpts.Watch, "watch", false, "apply config file changes while the page is open")
}
