package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tallykit/tallymcp/internal/config"
	tallyerr "github.com/tallykit/tallymcp/internal/errors"
	"github.com/tallykit/tallymcp/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and initialize configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd)
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}

	cmd.AddCommand(showCmd)
	cmd.AddCommand(initCmd)
	cmd.AddCommand(pathCmd)
	return cmd
}

func runConfigShow(cmd *cobra.Command) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := config.Load()
	if err != nil {
		out.Error(tallyerr.FormatForCLI(err))
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command) error {
	out := output.New(cmd.OutOrStdout())

	path := config.GetUserConfigPath()
	if config.UserConfigExists() {
		out.Warningf("config already exists at %s", path)
		return nil
	}

	cfg := config.NewConfig()
	if err := cfg.WriteYAML(path); err != nil {
		out.Error(tallyerr.FormatForCLI(err))
		return err
	}
	out.Successf("wrote %s", path)
	return nil
}
