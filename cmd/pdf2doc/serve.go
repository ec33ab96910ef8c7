// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf2doc/internal/server"
	"github.com/pdiddy/pdf2doc/internal/stats"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the conversion API over HTTP",
	Long: `Serve accepts PDF uploads at POST /api/v1/convert and returns the
converted document. Statistics, help, and about endpoints live under
/api/v1; /health is always open. When .secrets/api-token exists, API
requests must carry it as a bearer token.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	rec := stats.NewMemory()
	p, prober, err := newPipeline(cfg, logger, rec)
	if err != nil {
		return err
	}

	srv := server.New(p, rec, server.Config{
		MaxFileSize:    cfg.Limits.MaxFileSize,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		APIToken:       cfg.Server.APIToken,
		Version:        version,
		Strategies:     cfg.Extraction.Strategies,
		Converter:      func() string { return converterName(prober) },
	}, logger)
	httpSrv := server.NewHTTPServer(cfg.Server.Addr, srv.Handler())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Server.Addr).
			Strs("strategies", cfg.Extraction.Strategies).
			Str("converter", converterName(prober)).
			Bool("auth", cfg.Server.APIToken != "").
			Msg("listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
