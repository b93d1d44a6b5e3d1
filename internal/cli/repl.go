package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wbrown/reasongraph/kg/executor"
	"github.com/wbrown/reasongraph/kg/planner"
	"github.com/wbrown/reasongraph/kg/reasoner"
)

func newReplCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive session against the store",
		Long: `An interactive loop over the reasoner. Commands:

  insert <s> <p> <o>         add one triple
  rule <rule-line>           add a rule (same grammar as a rules file)
  materialize [strategy]     run forward chaining
  query <s> <p> <o>          single-pattern lookup ("?x" terms are variables)
  prove <s> <p> <o>          backward-chain a goal
  stats                      store summary
  help                       this list
  quit`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(opts)
			if err != nil {
				return err
			}
			defer sess.close()

			fmt.Printf("reasongraph repl: %s\n", sess.reasoner)
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "quit" || line == "exit" {
					break
				}
				if err := evalReplLine(sess, line); err != nil {
					fmt.Println(color.RedString("error: %v", err))
				}
			}
			return sess.checkpoint()
		},
	}
}

func evalReplLine(sess *session, line string) error {
	cmdWord, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	dict := sess.reasoner.Dictionary()

	switch cmdWord {
	case "insert":
		pat, err := parsePattern(dict, rest)
		if err != nil {
			return err
		}
		t, ok := pat.Substitute(nil)
		if !ok {
			return fmt.Errorf("insert takes constants, not variables")
		}
		if sess.store != nil {
			if err := sess.store.AppendInsert(t); err != nil {
				return err
			}
		}
		if sess.reasoner.InsertTriple(t) {
			fmt.Println("inserted")
		} else {
			fmt.Println("already present")
		}

	case "rule":
		rule, err := parseRule(dict, rest)
		if err != nil {
			return err
		}
		id, err := sess.reasoner.AddRule(rule)
		if err != nil {
			return err
		}
		fmt.Printf("rule #%d added\n", id)

	case "materialize":
		stats := runStrategy(sess, rest)
		fmt.Printf("%d rounds, %d derived, %d total\n",
			stats.Rounds, stats.TotalDerived, sess.reasoner.Size())

	case "query":
		pat, err := parsePattern(dict, rest)
		if err != nil {
			return err
		}
		phys := planner.NewPlanner(planner.BuildStatistics(sess.reasoner.Index())).
			Plan(planner.Scan{Pattern: pat})
		rel := executor.NewExecutor(sess.reasoner.Index(), dict, nil, nil).Execute(phys)
		executor.PrintRelation(rel, dict)

	case "prove":
		pat, err := parsePattern(dict, rest)
		if err != nil {
			return err
		}
		bindings := sess.reasoner.Prove(pat)
		fmt.Printf("%d proof(s)\n", len(bindings))

	case "stats":
		fmt.Println(sess.reasoner)

	case "help":
		fmt.Println("insert | rule | materialize | query | prove | stats | quit")

	default:
		return fmt.Errorf("unknown command %q (try help)", cmdWord)
	}
	return nil
}

func runStrategy(sess *session, strategy string) reasoner.MaterializeStats {
	switch strategy {
	case "naive":
		return sess.reasoner.Materialize()
	case "parallel":
		return sess.reasoner.MaterializeParallel()
	default:
		return sess.reasoner.MaterializeSemiNaive()
	}
}
