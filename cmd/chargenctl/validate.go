package main

import (
	"errors"
	"fmt"

	"github.com/kasuganosora/chargen/game/chargen"
	"github.com/spf13/cobra"
)

var errNotSavable = errors.New("build has blocking issues")

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <state-file>",
		Short: "List the issues of a build; fails when it cannot be saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.load()
			if err != nil {
				return err
			}
			st, err := readState(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			_, res := chargen.Check(st, c)
			out := cmd.OutOrStdout()
			if f := a.v.GetString("output"); f != "text" {
				if err := write(out, f, res); err != nil {
					return err
				}
			} else {
				for _, i := range res.Issues {
					fmt.Fprintf(out, "%-7s %-14s %s\n", i.Severity, i.Field, i.Message)
				}
				if len(res.Issues) == 0 {
					fmt.Fprintln(out, "no issues")
				}
			}
			if !res.CanSave {
				return errNotSavable
			}
			return nil
		},
	}
}
