/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package cmd provides CLI commands for nixedit.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/nixedit/cmd/check"
	"bennypowers.dev/nixedit/cmd/list"
	"bennypowers.dev/nixedit/cmd/search"
	"bennypowers.dev/nixedit/cmd/set"
	"bennypowers.dev/nixedit/cmd/show"
	"bennypowers.dev/nixedit/cmd/unset"
	"bennypowers.dev/nixedit/cmd/version"
)

var rootCmd = &cobra.Command{
	Use:   "nixedit",
	Short: "Inspect and edit Nix module options",
	Long: `nixedit reads a NixOS-style module configuration together with its
options metadata feed and lets you list, search, and edit option values
while preserving every byte of surrounding source text.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("root", "C", ".", "Configuration root directory")
	rootCmd.PersistentFlags().String("entry", "", "Root module file (default from config)")
	rootCmd.PersistentFlags().String("feed", "", "Options metadata feed path (default from config)")

	_ = viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	_ = viper.BindPFlag("entry", rootCmd.PersistentFlags().Lookup("entry"))
	_ = viper.BindPFlag("feed", rootCmd.PersistentFlags().Lookup("feed"))
	viper.SetEnvPrefix("NIXEDIT")
	viper.AutomaticEnv()

	rootCmd.AddCommand(list.Cmd)
	rootCmd.AddCommand(search.Cmd)
	rootCmd.AddCommand(show.Cmd)
	rootCmd.AddCommand(set.Cmd)
	rootCmd.AddCommand(unset.Cmd)
	rootCmd.AddCommand(check.Cmd)
	rootCmd.AddCommand(version.Cmd)
}
