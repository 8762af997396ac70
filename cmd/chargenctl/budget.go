package main

import (
	"fmt"
	"io"

	"github.com/kasuganosora/chargen/game/chargen"
	"github.com/spf13/cobra"
)

func newBudgetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "budget <state-file>",
		Short: "Show the point budgets of a build",
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
			d := chargen.ComputeBudget(st, c)
			if f := a.v.GetString("output"); f != "text" {
				return write(cmd.OutOrStdout(), f, d)
			}
			printBudget(cmd.OutOrStdout(), d)
			return nil
		},
	}
}

func printBudget(w io.Writer, d chargen.Dashboard) {
	pool := func(label string, p chargen.Pool) {
		fmt.Fprintf(w, "%-18s %4d / %-4d (%d left)\n", label, p.Spent, p.Total, p.Remaining)
	}
	pool("attributes", d.Attributes)
	pool("special", d.Special)
	pool("skills", d.Skills)
	pool("skill groups", d.SkillGroups)
	pool("knowledge", d.Knowledge)
	pool("spells", d.Spells)
	pool("complex forms", d.ComplexForms)
	fmt.Fprintf(w, "%-18s %4.2f / %-4.2f (%.2f left)\n", "power points", d.PowerPoints.Spent, d.PowerPoints.Total, d.PowerPoints.Remaining)
	fmt.Fprintf(w, "%-18s %4.2f of %.2f (%.2f left, x%.2f)\n", "essence", d.Essence.Spent, d.Essence.Base, d.Essence.Remaining, d.Essence.BioFactor)
	fmt.Fprintf(w, "%-18s %d / %d (%d left)\n", "nuyen", d.Nuyen.Spent, d.Nuyen.Total, d.Nuyen.Remaining)
}
