/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package search provides the search command for nixedit.
package search

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/nixedit/fs"
	"bennypowers.dev/nixedit/options"
	"bennypowers.dev/nixedit/session"
)

// Cmd is the search cobra command.
var Cmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search options by path or description",
	Long:  `Search options by dotted path or description text, with optional regex support.`,
	Args:  cobra.ExactArgs(1),
	RunE:  run,
}

func init() {
	Cmd.Flags().Bool("name", false, "Search option paths only")
	Cmd.Flags().Bool("description", false, "Search descriptions only")
	Cmd.Flags().Bool("regex", false, "Query is a regex")
	Cmd.Flags().String("format", "table", "Output format: table, json, names")
}

func run(cmd *cobra.Command, args []string) error {
	query := args[0]

	nameOnly, _ := cmd.Flags().GetBool("name")
	descOnly, _ := cmd.Flags().GetBool("description")
	useRegex, _ := cmd.Flags().GetBool("regex")
	format, _ := cmd.Flags().GetString("format")

	var pattern *regexp.Regexp
	var err error
	if useRegex {
		pattern, err = regexp.Compile(query)
		if err != nil {
			return fmt.Errorf("invalid regex: %w", err)
		}
	}

	match := func(s string) bool {
		if pattern != nil {
			return pattern.MatchString(s)
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(query))
	}

	filesystem := fs.NewOSFileSystem()
	sess, err := session.Open(cmd.Context(), filesystem,
		viper.GetString("root"), viper.GetString("entry"), viper.GetString("feed"))
	if err != nil {
		return err
	}

	var matches []*options.Node
	err = sess.Walk(func(node *options.Node) {
		byName := !descOnly && match(node.Path.String())
		byDesc := !nameOnly && match(node.Description)
		if byName || byDesc {
			matches = append(matches, node)
		}
	})
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return outputJSON(matches)
	case "names":
		for _, node := range matches {
			fmt.Println(node.Path)
		}
		return nil
	default:
		for _, node := range matches {
			fmt.Printf("%-50s %-24s %s\n", node.Path, node.TypeString, firstSentence(node.Description))
		}
		return nil
	}
}

func outputJSON(matches []*options.Node) error {
	type matchOutput struct {
		Path        string `json:"path"`
		Type        string `json:"type,omitempty"`
		Description string `json:"description,omitempty"`
		Set         bool   `json:"set"`
	}

	output := make([]matchOutput, 0, len(matches))
	for _, node := range matches {
		output = append(output, matchOutput{
			Path:        node.Path.String(),
			Type:        node.TypeString,
			Description: node.Description,
			Set:         node.IsSet(),
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// firstSentence trims a description to its first sentence or line.
func firstSentence(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, ". "); i >= 0 {
		s = s[:i+1]
	}
	return s
}
