package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"kvhttpd/internal/config"
	"kvhttpd/internal/errors"
	"kvhttpd/internal/paths"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage kvhttpd configuration",
	Long:  "View and manage kvhttpd configuration stored in .kvhttpd/config.toml",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Long: `Write .kvhttpd/config.toml with every setting at its default.

Examples:
  kvhttpd config init           # Create the file
  kvhttpd config init --force   # Overwrite an existing file`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := os.Getwd()
		if err != nil {
			return err
		}
		return runConfigInit(root, configForce, cmd.OutOrStdout())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := os.Getwd()
		if err != nil {
			return err
		}
		return runConfigShow(root, cmd.OutOrStdout())
	},
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range config.GetSupportedEnvVars() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(root string, force bool, out io.Writer) error {
	configPath := paths.GetConfigPath(root)
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.Newf(errors.InvalidConfig, "%s already exists (use --force to overwrite)", configPath)
	}

	if err := config.DefaultConfig().Save(root); err != nil {
		return errors.New(errors.InvalidConfig, "failed to write config", err)
	}
	fmt.Fprintf(out, "Wrote %s\n", configPath)
	return nil
}

func runConfigShow(root string, out io.Writer) error {
	result, err := config.LoadConfigWithDetails(root)
	if err != nil {
		return err
	}

	if result.UsedDefaults {
		fmt.Fprintln(out, "# Source: defaults (no config file found)")
	} else {
		fmt.Fprintf(out, "# Source: %s\n", result.ConfigPath)
	}
	for _, ov := range result.EnvOverrides {
		fmt.Fprintf(out, "# Override: %s=%s -> %s\n", ov.EnvVar, ov.Value, ov.Key)
	}

	data, err := result.Config.Encode()
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
