package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/wew/internal/cli/styles"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the engine library and local files",
	Long: `Doctor checks that the engine library can be found, that the config file
loads, that the cache directory is writable and that the cookie snapshot
database opens.

Examples:
  wew doctor`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	app, err := requireApp()
	if err != nil {
		return err
	}

	report, err := app.Diagnose(app.Ctx())
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), styles.NewDoctorRenderer(app.Theme).Render(report))
	if !report.OK() {
		return errors.New("doctor found problems")
	}
	return nil
}
