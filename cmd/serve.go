package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/interlingua/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket server",
	Long: `Starts the interlingua server with a REST API (/api/ask, /api/search,
/api/documents, /api/history), a WebSocket endpoint (/ws) that streams
answers, and Prometheus metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		a, err := newApp(cmd.Context(), reg)
		if err != nil {
			return err
		}
		defer a.Close()

		port := a.cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv := server.New(server.Config{
			Port:     port,
			AllowAll: a.cfg.Server.AllowAllOrigins,
		}, server.Deps{
			Asker:      a.pipeline,
			Searcher:   a.retriever,
			Analyzer:   a.classifier,
			Knowledge:  a.knowledge,
			History:    a.history,
			Gatherer:   reg,
			Logger:     a.logger,
			RunOptions: a.cfg.RunOptions(),
			Retrieval:  a.cfg.RetrievalOptions(),
		})

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("shutdown", zap.Error(err))
			}
		}()

		fmt.Fprintf(os.Stderr, "interlingua server %s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Provider: %s (%s)\n", a.cfg.Provider, a.cfg.Model)
		fmt.Fprintf(os.Stderr, "  Documents: %d\n", a.knowledge.Len())
		if a.history != nil {
			fmt.Fprintf(os.Stderr, "  History: %s\n", a.cfg.HistoryPath)
		}

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "port to listen on (default from config)")
	rootCmd.AddCommand(serveCmd)
}
