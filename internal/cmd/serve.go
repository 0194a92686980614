package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Iron-Ham/maintenance/internal/api"
	"github.com/Iron-Ham/maintenance/internal/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the task set over HTTP",
	Long: `Start the HTTP API (see api.listen). Connected clients can follow
changes on /api/events.

With the file backend and storage.watch enabled, edits made to the
document by other processes are picked up and broadcast.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveListen string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "Address to listen on (default: api.listen)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if w, ok := a.store.Backend().(store.Watcher); ok && a.cfg.Storage.Watch {
		go watchStore(ctx, a, w)
	}

	addr := a.cfg.API.Listen
	if serveListen != "" {
		addr = serveListen
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d tasks from %s storage on %s\n",
		a.store.Len(), a.store.Backend().Name(), addr)

	srv := api.NewServer(a.svc, api.WithLogger(a.logger))
	return srv.Run(ctx, addr)
}

func watchStore(ctx context.Context, a *app, w store.Watcher) {
	logger := a.logger.WithComponent("watch")
	err := w.Watch(ctx, func() {
		report, err := a.tracker.Reload(ctx)
		if err != nil {
			logger.Error("reload failed", "error", err)
			return
		}
		logger.Info("reloaded after external change", "tasks", report.Loaded, "skipped", report.Skipped())
	})
	if err != nil {
		logger.Error("watch stopped", "error", err)
	}
}
