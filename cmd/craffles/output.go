package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// print writes fields as sorted key/value lines, or as indented JSON with
// --output json
func (a *app) print(cmd *cobra.Command, fields map[string]string) error {
	out := cmd.OutOrStdout()

	if a.v.GetString(outputFormatFlag) == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(fields)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := fmt.Fprintf(out, "%-24s %s\n", k+":", fields[k]); err != nil {
			return err
		}
	}
	return nil
}

// printList writes each entry separated by a blank line, or a JSON array
func (a *app) printList(cmd *cobra.Command, entries []map[string]string) error {
	if a.v.GetString(outputFormatFlag) == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	for i, entry := range entries {
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		if err := a.print(cmd, entry); err != nil {
			return err
		}
	}
	return nil
}
