package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wbrown/reasongraph/kg/httpapi"
)

func newServeCommand(opts *RootOptions) *cobra.Command {
	var addr string
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reasoner and query engine over HTTP",
		Long: `Expose the store over HTTP: POST /reason to load rules and
materialize, POST /query for pattern joins, GET /stream to open a
websocket subscription (the server publishes no window reports on it),
GET /healthz.`,
		Args:          cobra.NoArgs,
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

			srv := httpapi.NewServer(sess.reasoner)
			fmt.Printf("%s %s (%d triples)\n",
				color.GreenString("listening:"), addr, sess.reasoner.Size())
			return srv.Engine().Run(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "path to a rules file to preload")

	return cmd
}
