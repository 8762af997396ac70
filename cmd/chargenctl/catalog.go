package main

import (
	"fmt"
	"strings"

	"github.com/kasuganosora/chargen/resource"
	"github.com/spf13/cobra"
)

func newCatalogCmd(a *app) *cobra.Command {
	var query, sortBy string
	cmd := &cobra.Command{
		Use:   "catalog <kind>",
		Short: "List catalog entries of one kind",
		Long:  "Kinds: " + strings.Join(resource.Kinds(), ", "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load()
			if err != nil {
				return err
			}
			entries, err := resource.NewViews(c, 1).List(args[0], query, sortBy)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if f := a.v.GetString("output"); f != "text" {
				return write(out, f, entries)
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%-24s %-28s %8d\n", e.ID, e.Name, e.Cost)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by id, name or category")
	cmd.Flags().StringVar(&sortBy, "sort", resource.SortName, "sort order: name, id, cost or -cost")
	return cmd
}
