package main

import (
	"encoding/json"
	"fmt"

	"github.com/kasuganosora/chargen/game/chargen"
	"github.com/spf13/cobra"
)

func newApplyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "apply <state-file> <command-json>...",
		Short:   "Run mutation commands against a build and print the result",
		Example: `  chargenctl apply samurai.yaml '{"op":"adjust_skill","id":"pistols","delta":1}'`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load()
			if err != nil {
				return err
			}
			st, err := readState(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			for _, raw := range args[1:] {
				var command chargen.Command
				if err := json.Unmarshal([]byte(raw), &command); err != nil {
					return fmt.Errorf("command %s: %w", raw, err)
				}
				_, m, err := command.Resolve()
				if err != nil {
					return err
				}
				next, ok := m(st, c)
				if !ok {
					return fmt.Errorf("command %s does not apply", raw)
				}
				st = next
			}
			format := a.v.GetString("output")
			if format == "text" {
				format = "yaml"
			}
			return write(cmd.OutOrStdout(), format, st)
		},
	}
}
