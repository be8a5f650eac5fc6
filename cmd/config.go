// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"synclite/cli/internal/config"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Show or change CLI settings",
	Annotations: map[string]string{skipSetup: "true"},
}

// configShowCmd prints the effective configuration, environment overrides included.
var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Print the effective configuration",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipSetup: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfigPath)
		if err != nil {
			return err
		}
		path := flagConfigPath
		if path == "" {
			if path, err = config.Path(); err != nil {
				return err
			}
		}
		b, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ File: ") + path)
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

// configSetCmd writes one key to the config file. Environment overrides are
// not persisted.
var configSetCmd = &cobra.Command{
	Use:         "set <key> <value>",
	Short:       "Set a configuration key",
	Long:        "Keys: " + strings.Join(config.Keys(), ", "),
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{skipSetup: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile(flagConfigPath)
		if err != nil {
			return err
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := config.Save(cfg, flagConfigPath); err != nil {
			return err
		}
		pterm.Success.Printf("%s = %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
