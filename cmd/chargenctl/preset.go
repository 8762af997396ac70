package main

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/kasuganosora/chargen/game/chargen"
	"github.com/spf13/cobra"
)

func newPresetCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "preset [id]",
		Short: "List presets, or write the build a preset expands to",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, id := range slices.Sorted(maps.Keys(c.Presets)) {
					fmt.Fprintf(out, "%-20s %s\n", id, c.Presets[id].Name)
				}
				return nil
			}
			p, ok := c.Preset(args[0])
			if !ok {
				return fmt.Errorf("unknown preset %q", args[0])
			}
			st := chargen.ApplyPreset(p)
			format := a.v.GetString("output")
			if file == "" {
				return write(out, format, st)
			}
			f, err := os.Create(file)
			if err != nil {
				return err
			}
			defer f.Close()
			return write(f, format, st)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "write the build to this file instead of stdout")
	return cmd
}
