package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/interflow/internal/server"
	"github.com/matzehuels/interflow/pkg/observability"
)

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var strict, noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the diagram API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}

			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Cache.Close()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			observability.Register(observability.NewPrometheus(reg))
			defer observability.Reset()

			srv := server.New(server.Config{
				Runner:  runner,
				Options: c.pipelineOptions(cmd, &buildFlags{strict: strict}),
				Logger:  c.Logger,
				Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			})

			printInfo(cmd.OutOrStdout(), "Listening on %s", StyleValue.Render(addr))
			return server.ListenAndServe(cmd.Context(), addr, srv, c.Logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject unknown app_type values by default")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}
