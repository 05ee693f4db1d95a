package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/buddy/internal/buddyerr"
	"github.com/zjrosen/buddy/internal/config"
	"github.com/zjrosen/buddy/internal/flags"
)

// skipConfig marks commands that must run without a readable config file.
const skipConfig = "skip-config"

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and edit the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(a), newConfigSetEmailCmd(a), newConfigFlagsCmd(a), newConfigPathCmd(a))
	return cmd
}

func (a *app) configTarget() string {
	if a.cfgFile != "" {
		return a.cfgFile
	}
	return config.DefaultConfigPath()
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented default config file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configTarget()
			if _, err := os.Stat(path); err == nil && !force {
				return buddyerr.Valuef("%s already exists; use --force to overwrite", path)
			}
			if err := config.WriteDefaultConfig(path); err != nil {
				return err
			}
			if err := config.SaveUserHash(path, config.NewUserHash()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigSetEmailCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-email <address>",
		Short: "Set the email address sent to NCBI",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg := a.cfg
			cfg.Email = args[0]
			if err := config.Validate(cfg); err != nil {
				return err
			}
			return config.SaveEmail(a.cfgPath, args[0])
		},
	}
}

func newConfigFlagsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "flags",
		Short: "List feature flags and whether they are enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range flags.Names() {
				desc, _ := flags.Describe(name)
				state := "off"
				if a.flags.Enabled(name) {
					state = "on"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %-3s  %s\n", name, state, desc)
			}
			return nil
		},
	}
}

func newConfigPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file and data directory in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "config\t%s\ndata\t%s\n", a.cfgPath, a.cfg.DataDir)
			return nil
		},
	}
}
