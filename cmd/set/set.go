/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package set provides the set command for nixedit.
package set

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/nixedit/fs"
	"bennypowers.dev/nixedit/ledger"
	"bennypowers.dev/nixedit/options"
	"bennypowers.dev/nixedit/session"
)

// Cmd is the set cobra command.
var Cmd = &cobra.Command{
	Use:   "set <option-path> <value>",
	Short: "Set an option's value",
	Long: `Set an option to a new value. The value is checked against the
option's declared type; pass --raw to splice an arbitrary Nix expression
instead. Only the affected value bytes change; all surrounding text is
preserved.`,
	Args: cobra.ExactArgs(2),
	RunE: run,
}

func init() {
	Cmd.Flags().Bool("raw", false, "Treat the value as a literal Nix expression, skipping type checks")
	Cmd.Flags().BoolP("dry-run", "n", false, "Show the resulting change without writing files")
}

func run(cmd *cobra.Command, args []string) error {
	path := options.ParsePath(args[0])
	value := args[1]

	raw, _ := cmd.Flags().GetBool("raw")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	filesystem := fs.NewOSFileSystem()
	sess, err := session.Open(cmd.Context(), filesystem,
		viper.GetString("root"), viper.GetString("entry"), viper.GetString("feed"))
	if err != nil {
		return err
	}

	if raw {
		_, err = sess.SetRawExpression(path, value)
	} else {
		node, lookupErr := sess.Lookup(path)
		if lookupErr != nil {
			return lookupErr
		}
		v, coerceErr := options.CoerceString(node.Type, value)
		if coerceErr != nil {
			return coerceErr
		}
		_, err = sess.SetValue(path, v)
	}
	if err != nil {
		return err
	}

	diffs, err := sess.Pending()
	if err != nil {
		return err
	}
	PrintDiffs(diffs)

	if dryRun {
		fmt.Println("(dry run, nothing written)")
		return nil
	}
	return sess.Commit()
}

// PrintDiffs renders pending fragment changes with deletions in red and
// insertions in green.
func PrintDiffs(diffs []ledger.Diff) {
	del := color.New(color.FgRed)
	ins := color.New(color.FgGreen)
	for _, d := range diffs {
		fmt.Printf("%s (%s):\n  ", d.Path, d.File)
		for _, seg := range d.Segments() {
			switch seg.Type {
			case diffmatchpatch.DiffDelete:
				del.Print(seg.Text)
			case diffmatchpatch.DiffInsert:
				ins.Print(seg.Text)
			default:
				fmt.Print(seg.Text)
			}
		}
		fmt.Println()
	}
}
