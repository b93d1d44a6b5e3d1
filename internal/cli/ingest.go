package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// openInput opens path, treating "-" as stdin.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func newIngestCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <triples-file>",
		Short: "Load whitespace-separated 's p o' triples into the store",
		Long: `Load triples from a file (or stdin with "-"), one per line:

  alice hasParent bob
  bob   hasParent charlie

Terms are encoded through the dictionary; duplicate triples are ignored.
With --db set, every insert is logged to the write-ahead log and folded
into a checkpoint on exit.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(opts)
			if err != nil {
				return err
			}
			defer sess.close()

			f, err := openInput(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			before := sess.reasoner.Size()
			lines := 0
			err = eachLine(f, func(line string) error {
				pat, err := parsePattern(sess.reasoner.Dictionary(), line)
				if err != nil {
					return err
				}
				t, ok := pat.Substitute(nil)
				if !ok {
					return fmt.Errorf("triple %q: variables not allowed here", line)
				}
				lines++
				return sess.insertTriple(t)
			})
			if err != nil {
				return err
			}

			if err := sess.checkpoint(); err != nil {
				return err
			}

			inserted := sess.reasoner.Size() - before
			fmt.Printf("%s %d lines read, %d new triples, %d total\n",
				color.GreenString("ingested:"), lines, inserted, sess.reasoner.Size())
			return nil
		},
	}
}
