package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/byronguina/tasktracker/internal/httpapi"
	"github.com/byronguina/tasktracker/internal/kvserver"
	"github.com/byronguina/tasktracker/internal/tui"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the repository over HTTP",
		Long: `Serve the repository as a JSON API.

Examples:
  tasks serve
  tasks serve --addr :9090 --backend sqlite`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			router := httpapi.NewRouter(a.repo, a.log, a.cfg.HTTP.AllowedOrigins)
			return httpapi.Serve(ctx, addr, router, a.log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: http.addr from config)")
	return cmd
}

func newKVServerCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "kv-server",
		Short: "Run the key-value server used by the kv backend",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.KVServer.Addr
			}
			if a.cfg.KVServer.Secret == "change-me" {
				a.log.Warn("kv_server.secret is the default; set TASKS_KV_SERVER_SECRET")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return kvserver.New([]byte(a.cfg.KVServer.Secret), a.log).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: kv_server.addr from config)")
	return cmd
}

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and edit items in an interactive terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(a.repo)
		},
	}
}
