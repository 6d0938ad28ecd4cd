package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/qforge/qforge/internal/webserver"
)

func newServeCommand() *cobra.Command {
	var port int
	var outcomesDir string
	var noBrowser bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve saved generation results over HTTP",
		Long: `Serve saved generation results as a JSON API.

Reads outcome files written by generate --output from the results
directory and exposes them at /api/runs, /api/runs/{id}, and
/api/summary. The server binds to loopback only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := webserver.New(webserver.Config{
				Port:        port,
				OutcomesDir: outcomesDir,
				NoBrowser:   noBrowser,
				Logger:      slog.Default(),
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 3000, "Port to listen on")
	cmd.Flags().StringVar(&outcomesDir, "results-dir", ".", "Directory holding outcome JSON files")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Do not open a browser window")

	return cmd
}
