package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wbrown/reasongraph/kg/executor"
	"github.com/wbrown/reasongraph/kg/planner"
)

func newQueryCommand(opts *RootOptions) *cobra.Command {
	var filters []string
	var project []string
	var explain bool

	cmd := &cobra.Command{
		Use:   "query <pattern>...",
		Short: "Run a multi-pattern join query through the planner",
		Long: `Join one or more triple patterns and print the resulting bindings.
Each pattern is one argument of three terms; "?"-prefixed terms are
variables shared across patterns:

  reasongraph query '?p type Person' '?p age ?a' --filter '?a > 30'

The planner picks the physical join strategy from store statistics;
--explain prints the chosen plan instead of executing it.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(opts)
			if err != nil {
				return err
			}
			defer sess.close()

			logical, err := buildLogical(sess, args, filters, project)
			if err != nil {
				return err
			}

			stats := planner.BuildStatistics(sess.reasoner.Index())
			phys := planner.NewPlanner(stats).Plan(logical)

			if explain {
				fmt.Print(planner.Explain(phys))
				return nil
			}

			ctx := &executor.CountingContext{}
			exec := executor.NewExecutor(sess.reasoner.Index(), sess.reasoner.Dictionary(), nil, ctx)
			rel := exec.Execute(phys)

			executor.PrintRelation(rel, sess.reasoner.Dictionary())
			if opts.Verbose {
				fmt.Printf("%s cost=%.1f rows=%d peak_bindings=%d\n",
					color.HiBlackString("plan:"),
					ctx.Counters().PlanCostEstimate,
					ctx.Counters().RowsOut,
					ctx.Counters().PeakBindingCount)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&filters, "filter", nil, "post-join filter, e.g. '?a > 30' (repeatable)")
	cmd.Flags().StringSliceVar(&project, "project", nil, "variables to keep, e.g. ?p,?a")
	cmd.Flags().BoolVar(&explain, "explain", false, "print the physical plan without executing")

	return cmd
}

// buildLogical assembles the left-deep Scan/Join/Selection/Projection tree
// for the CLI's flat pattern-plus-filter query shape.
func buildLogical(sess *session, patternArgs, filterArgs, project []string) (planner.Logical, error) {
	dict := sess.reasoner.Dictionary()

	var logical planner.Logical
	for i, arg := range patternArgs {
		pat, err := parsePattern(dict, arg)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			logical = planner.Scan{Pattern: pat}
		} else {
			logical = planner.Join{Left: logical, Right: planner.Scan{Pattern: pat}}
		}
	}

	var cond planner.Condition
	for _, arg := range filterArgs {
		f, err := parseFilter(arg)
		if err != nil {
			return nil, err
		}
		simple := planner.SimpleCondition{FilterCondition: f}
		if cond == nil {
			cond = simple
		} else {
			cond = planner.AndCondition{Left: cond, Right: simple}
		}
	}
	if cond != nil {
		logical = planner.Selection{Input: logical, Condition: cond}
	}

	if len(project) > 0 {
		vars := make([]string, len(project))
		for i, v := range project {
			vars[i] = trimVarPrefix(v)
		}
		logical = planner.Projection{Input: logical, Vars: vars}
	}
	return logical, nil
}

func trimVarPrefix(v string) string {
	if len(v) > 0 && v[0] == '?' {
		return v[1:]
	}
	return v
}
