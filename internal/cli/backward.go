package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newBackwardCommand(opts *RootOptions) *cobra.Command {
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "backward <goal-pattern>",
		Short: "Prove a goal pattern by backward chaining",
		Long: `Run goal-driven SLD resolution for a single pattern, printing every
variable binding under which the goal holds:

  reasongraph backward '?a hasAncestor charlie' --rules family.rules

Unlike materialize, nothing is derived into the store; rules are applied
on demand, depth-bounded by the configured maximum.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(opts)
			if err != nil {
				return err
			}
			defer sess.close()

			if rulesPath != "" {
				if _, err := loadRules(sess.reasoner, rulesPath, openInput); err != nil {
					return err
				}
			}

			dict := sess.reasoner.Dictionary()
			goal, err := parsePattern(dict, args[0])
			if err != nil {
				return err
			}
			goalVars := goal.Vars()

			bindings := sess.reasoner.Prove(goal)
			if len(bindings) == 0 {
				fmt.Println(color.RedString("no proof"))
				return nil
			}

			// One line per distinct assignment of the goal's own variables;
			// renamed rule-internal variables stay out of the output.
			seen := make(map[string]bool)
			var lines []string
			for _, b := range bindings {
				parts := make([]string, 0, len(goalVars))
				for _, v := range goalVars {
					id, ok := b[v]
					if !ok {
						continue
					}
					str, _ := dict.Decode(id)
					parts = append(parts, fmt.Sprintf("?%s = %s", v, str))
				}
				line := strings.Join(parts, ", ")
				if line == "" {
					line = "proved"
				}
				if !seen[line] {
					seen[line] = true
					lines = append(lines, line)
				}
			}
			sort.Strings(lines)
			for _, l := range lines {
				fmt.Println(l)
			}
			fmt.Printf("%s\n", color.HiBlackString("%d result(s)", len(lines)))
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", "", "path to a rules file")

	return cmd
}
