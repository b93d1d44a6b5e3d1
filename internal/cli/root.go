// Package cli implements the reasongraph command tree: ingest, rules,
// materialize, query, backward, repl, and serve. Root flags are threaded
// through every subcommand via RootOptions.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds flags every subcommand inherits.
type RootOptions struct {
	DBPath     string
	ConfigPath string
	Verbose    bool
}

// NewRootCommand builds the reasongraph command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "reasongraph",
		Short: "A main-memory RDF knowledge graph with Datalog-style reasoning",
		Long: `reasongraph ingests triples, materializes Datalog-style rules over
them, and answers SPARQL-like pattern queries through a cost-based
query planner.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "badger-backed checkpoint directory (in-memory only if unset)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML reasoner config")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(newIngestCommand(opts))
	cmd.AddCommand(newRulesCommand(opts))
	cmd.AddCommand(newMaterializeCommand(opts))
	cmd.AddCommand(newQueryCommand(opts))
	cmd.AddCommand(newBackwardCommand(opts))
	cmd.AddCommand(newReplCommand(opts))
	cmd.AddCommand(newServeCommand(opts))

	return cmd
}
