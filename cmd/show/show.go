/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package show provides the show command for nixedit.
package show

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/nixedit/fs"
	"bennypowers.dev/nixedit/options"
	"bennypowers.dev/nixedit/session"
)

// Cmd is the show cobra command.
var Cmd = &cobra.Command{
	Use:   "show <option-path>",
	Short: "Show one option's metadata and current value",
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func run(cmd *cobra.Command, args []string) error {
	path := options.ParsePath(args[0])

	filesystem := fs.NewOSFileSystem()
	sess, err := session.Open(cmd.Context(), filesystem,
		viper.GetString("root"), viper.GetString("entry"), viper.GetString("feed"))
	if err != nil {
		return err
	}

	node, err := sess.Lookup(path)
	if err != nil {
		return err
	}

	fmt.Printf("Option:      %s\n", node.Path)
	fmt.Printf("Type:        %s\n", node.TypeString)
	if node.ReadOnly {
		fmt.Println("Read-only:   yes")
	}
	if !node.Known {
		fmt.Println("Known:       no (not in the metadata feed)")
	}
	if node.Description != "" {
		fmt.Printf("Description: %s\n", node.Description)
	}
	if node.Default != "" {
		fmt.Printf("Default:     %s\n", node.Default)
	}
	if node.Example != "" {
		fmt.Printf("Example:     %s\n", node.Example)
	}
	for _, decl := range node.DeclaredIn {
		fmt.Printf("Declared in: %s\n", decl)
	}

	if !node.IsSet() {
		fmt.Println("Value:       (unset)")
		return nil
	}
	text, err := sess.CurrentText(path)
	if err != nil {
		return err
	}
	fmt.Printf("Value:       %s\n", text)
	for _, site := range node.Sites {
		fmt.Printf("Defined in:  %s\n", site.File)
	}
	if len(node.Sites) > 1 {
		fmt.Println("Warning:     multiple definition sites; typed edits are rejected")
	}
	return nil
}
