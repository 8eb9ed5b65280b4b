package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/yngdkt/fin-llm-dataset/internal/handlers"
	"github.com/yngdkt/fin-llm-dataset/internal/master"
	"github.com/yngdkt/fin-llm-dataset/internal/record"
)

func newServeCmd() *cobra.Command {
	var port string
	var corpusPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the match API server",
		Long: `Starts an HTTP API over a corpus so crawlers can check candidates
before submitting them.

Queries run lock-free against the built index; submissions are serialized
through the master service.`,
		Example: `  # Serve the master corpus on default port 8888
  bookdedup serve --corpus data/master/books.jsonl

  # Serve on custom port
  bookdedup serve --corpus data/master/books.jsonl --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := record.NewLoader(corpusPath).Load()
			if err != nil {
				return fmt.Errorf("failed to load corpus: %w", err)
			}

			svc := master.NewService()
			if err := svc.Bootstrap(records); err != nil {
				return err
			}

			handler := handlers.New(svc)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/match", handler.HandleMatch)
			mux.HandleFunc("/api/records", handler.HandleRecords)
			mux.HandleFunc("/api/stats", handler.HandleStats)
			mux.HandleFunc("/api/reviews", handler.HandleReviews)
			mux.HandleFunc("/api/reviews/", handler.HandleReviewDetail)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Match API available", "addr", addr, "records", len(records))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")
	cmd.Flags().StringVar(&corpusPath, "corpus", "data/master/books.jsonl", "Path to corpus file (.jsonl or .parquet)")

	return cmd
}
