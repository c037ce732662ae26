package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"accentscope/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if bind = strings.TrimSpace(bind); bind != "" {
				cfg.Paths.APIBind = bind
			}
			analyzer, logger, err := ctx.analyzer()
			if err != nil {
				return err
			}

			srv, err := server.New(cfg, analyzer, logger)
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			if err := srv.Start(runCtx); err != nil {
				return err
			}
			defer srv.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Ctrl+C to stop)\n", srv.Addr())
			<-runCtx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides paths.api_bind)")
	return cmd
}
