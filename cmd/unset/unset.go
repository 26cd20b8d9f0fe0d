/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package unset provides the unset command for nixedit.
package unset

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/nixedit/cmd/set"
	"bennypowers.dev/nixedit/fs"
	"bennypowers.dev/nixedit/options"
	"bennypowers.dev/nixedit/session"
)

// Cmd is the unset cobra command.
var Cmd = &cobra.Command{
	Use:   "unset <option-path>",
	Short: "Remove an option's binding",
	Long: `Remove an option's entire attribute binding from its file. Enclosing
attribute sets are left in place even when emptied.`,
	Args: cobra.ExactArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().BoolP("dry-run", "n", false, "Show the resulting change without writing files")
}

func run(cmd *cobra.Command, args []string) error {
	path := options.ParsePath(args[0])
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	filesystem := fs.NewOSFileSystem()
	sess, err := session.Open(cmd.Context(), filesystem,
		viper.GetString("root"), viper.GetString("entry"), viper.GetString("feed"))
	if err != nil {
		return err
	}

	if _, err := sess.Clear(path); err != nil {
		return err
	}

	diffs, err := sess.Pending()
	if err != nil {
		return err
	}
	set.PrintDiffs(diffs)

	if dryRun {
		fmt.Println("(dry run, nothing written)")
		return nil
	}
	return sess.Commit()
}
