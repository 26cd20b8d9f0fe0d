/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package check provides the check command for nixedit.
package check

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/nixedit/fs"
	"bennypowers.dev/nixedit/options"
	"bennypowers.dev/nixedit/session"
)

// Cmd is the check cobra command.
var Cmd = &cobra.Command{
	Use:   "check",
	Short: "Check the configuration for problems",
	Long: `Check the configuration for unparsable files, options defined more
than once, options not present in the metadata feed, and import cycles.`,
	RunE: run,
}

func run(cmd *cobra.Command, args []string) error {
	filesystem := fs.NewOSFileSystem()
	sess, err := session.Open(cmd.Context(), filesystem,
		viper.GetString("root"), viper.GetString("entry"), viper.GetString("feed"))
	if err != nil {
		return err
	}

	problems := 0

	unmanaged, err := sess.Unmanaged()
	if err != nil {
		return err
	}
	for _, path := range unmanaged {
		fmt.Printf("parse error: %s is unparsable and read-only\n", path)
		problems++
	}

	cycle, err := sess.ImportCycle()
	if err != nil {
		return err
	}
	if cycle != nil {
		fmt.Printf("import cycle: %s\n", strings.Join(cycle, " -> "))
		problems++
	}

	err = sess.Walk(func(node *options.Node) {
		if len(node.Sites) > 1 {
			files := make([]string, len(node.Sites))
			for i, site := range node.Sites {
				files[i] = site.File
			}
			fmt.Printf("ambiguous: %s is defined %d times (%s)\n",
				node.Path, len(node.Sites), strings.Join(files, ", "))
			problems++
		}
		if !node.Known && node.IsSet() {
			fmt.Printf("unknown option: %s (defined in %s)\n",
				node.Path, node.Sites[0].File)
			problems++
		}
	})
	if err != nil {
		return err
	}

	if problems == 0 {
		fmt.Println("ok")
		return nil
	}
	return fmt.Errorf("%d problem(s) found", problems)
}
