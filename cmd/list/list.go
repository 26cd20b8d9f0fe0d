/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package list provides the list command for nixedit.
package list

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bennypowers.dev/nixedit/fs"
	"bennypowers.dev/nixedit/options"
	"bennypowers.dev/nixedit/session"
)

// Cmd is the list cobra command.
var Cmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "List options from the configuration",
	Long: `List options known to the metadata feed and configured in the module
files, optionally restricted to a dotted path prefix.`,
	Args: cobra.MaximumNArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().Bool("set-only", false, "Only show options with a value in the configuration")
	Cmd.Flags().String("format", "table", "Output format: table, json")
}

type entry struct {
	Node  *options.Node
	Value string
}

func run(cmd *cobra.Command, args []string) error {
	setOnly, _ := cmd.Flags().GetBool("set-only")
	format, _ := cmd.Flags().GetString("format")

	var prefix options.Path
	if len(args) == 1 {
		prefix = options.ParsePath(args[0])
	}

	filesystem := fs.NewOSFileSystem()
	sess, err := session.Open(cmd.Context(), filesystem,
		viper.GetString("root"), viper.GetString("entry"), viper.GetString("feed"))
	if err != nil {
		return err
	}

	var entries []entry
	err = sess.Walk(func(node *options.Node) {
		if !node.Path.HasPrefix(prefix) {
			return
		}
		if setOnly && !node.IsSet() {
			return
		}
		text, _ := sess.CurrentText(node.Path)
		entries = append(entries, entry{Node: node, Value: text})
	})
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return outputJSON(entries)
	default:
		return outputTable(entries)
	}
}

func outputTable(entries []entry) error {
	title := cases.Title(language.English)
	group := ""
	for _, e := range entries {
		if top := e.Node.Path[0]; top != group {
			group = top
			fmt.Printf("\n%s\n", title.String(group))
		}
		value := e.Value
		if value == "" {
			value = e.Node.Default
		}
		value = oneLine(value)
		mark := " "
		if e.Node.IsSet() {
			mark = "*"
		}
		fmt.Printf("%s %-50s %-24s %s\n", mark, e.Node.Path, e.Node.TypeString, value)
	}
	return nil
}

func outputJSON(entries []entry) error {
	type optionOutput struct {
		Path        string `json:"path"`
		Type        string `json:"type,omitempty"`
		Description string `json:"description,omitempty"`
		Default     string `json:"default,omitempty"`
		Value       string `json:"value,omitempty"`
		Set         bool   `json:"set"`
	}

	output := make([]optionOutput, 0, len(entries))
	for _, e := range entries {
		output = append(output, optionOutput{
			Path:        e.Node.Path.String(),
			Type:        e.Node.TypeString,
			Description: e.Node.Description,
			Default:     e.Node.Default,
			Value:       e.Value,
			Set:         e.Node.IsSet(),
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// oneLine collapses a multi-line value for table display.
func oneLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i]) + " …"
	}
	return s
}
