package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wbrown/reasongraph/kg/reasoner"
)

func newRulesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules <rules-file>",
		Short: "Parse and validate a rules file",
		Long: `Parse a rules file without materializing, reporting each rule's
kind and shape. The first rule that fails to parse or is not
range-restricted stops the run with an error. One rule per line:

  ?x hasParent ?y, ?y hasParent ?z => ?x hasGrandparent ?z
  ?x age ?a | ?a > 30 => ?x category adult

A rule concluding the single word "false" is an integrity constraint:
its premise must never hold.

  ?x status single, ?x status married => false`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// A throwaway reasoner: validation only, nothing persists.
			r := reasoner.New(reasoner.DefaultConfig())

			f, err := openInput(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			count, constraints := 0, 0
			err = eachLine(f, func(line string) error {
				rule, err := parseRule(r.Dictionary(), line)
				if err != nil {
					return err
				}
				id, err := r.AddRule(rule)
				if err != nil {
					return fmt.Errorf("rule %q: %w", line, err)
				}
				kind := "rule"
				if rule.IsConstraint() {
					kind = "constraint"
					constraints++
				}
				fmt.Printf("  #%d %s: %d premise(s), %d filter(s), %d conclusion(s)\n",
					id, kind, len(rule.Premise), len(rule.Filters), len(rule.Conclusion))
				count++
				return nil
			})
			if err != nil {
				return err
			}

			fmt.Printf("%s %d rules (%d constraints)\n", color.GreenString("ok:"), count, constraints)
			return nil
		},
	}
}
