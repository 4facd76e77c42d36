package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/wew/internal/cli/styles"
	"github.com/bnema/wew/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Show, locate and initialize the TOML configuration file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE:  runConfigPath,
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the config file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		schema, err := config.Schema()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(append(schema, '\n'))
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	Long: `Writes the default configuration and its JSON schema.

An existing file is kept unless --force is given.`,
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configPathCmd, configSchemaCmd, configInitCmd)
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing config file")
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	app, err := requireApp()
	if err != nil {
		return err
	}
	if app.ConfigErr != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), styles.NewConfigRenderer(app.Theme).RenderError(app.ConfigErr))
	}

	data, err := config.EncodeOrdered(app.Config)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	app, err := requireApp()
	if err != nil {
		return err
	}
	path := app.Manager.ConfigFile()
	_, statErr := os.Stat(path)
	fmt.Fprintln(cmd.OutOrStdout(), styles.NewConfigRenderer(app.Theme).RenderPath(path, statErr == nil))
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	app, err := requireApp()
	if err != nil {
		return err
	}
	renderer := styles.NewConfigRenderer(app.Theme)
	path := app.Manager.ConfigFile()

	// Loading already wrote a missing file.
	if app.Manager.Created() {
		fmt.Fprintln(cmd.OutOrStdout(), renderer.RenderCreated(path))
		return nil
	}
	if !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := app.Manager.Save(config.DefaultConfig()); err != nil {
		return err
	}
	if err := config.GenerateSchemaFile(app.Manager.Dir()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderer.RenderCreated(path))
	return nil
}
