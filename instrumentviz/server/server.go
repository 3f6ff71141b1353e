package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/stdr"
	"github.com/ilhamster/instrumentviz/instrumentviz/service"
	"github.com/spf13/cobra"
)

var (
	port      int
	verbosity int
	cfg       = service.DefaultConfig()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "instrumentviz",
		Short: "Serve an interactive viewer for science instrument data",
		Long: `instrumentviz fetches instrument data products on request and serves
them as interactive plots, with hover readouts, zoom, and pan.`,
		Args: cobra.NoArgs,
		RunE: run,
	}

	rootCmd.Flags().IntVar(&port, "port", 7410, "Port to serve InstrumentViz clients on")
	rootCmd.Flags().StringVar(&cfg.CatalogPath, "catalog", "", "Path to the instrument catalog JSON file")
	rootCmd.Flags().StringVar(&cfg.ResourceRoot, "resource_root", "", "The path to the InstrumentViz client resources, served under /static/")
	rootCmd.Flags().DurationVar(&cfg.FetchTimeout, "fetch_timeout", cfg.FetchTimeout, "Limit on each data fetch; 0 for none")
	rootCmd.Flags().IntVar(&cfg.Width, "width", cfg.Width, "Plot width in pixels")
	rootCmd.Flags().IntVar(&cfg.Height, "height", cfg.Height, "Plot height in pixels")
	rootCmd.Flags().StringArrayVar(&cfg.AllowedDataURLs, "allowed_data_url", nil, "URL prefix that instrument data may be fetched from; repeatable.  If none is given, no data can be loaded")
	rootCmd.Flags().IntVar(&verbosity, "v", 0, "Log verbosity")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	stdr.SetVerbosity(verbosity)
	logger := stdr.New(log.New(os.Stderr, "", log.LstdFlags))

	svc, err := service.New(cfg, logger.WithName("instrumentviz"))
	if err != nil {
		return fmt.Errorf("failed to create InstrumentViz service: %w", err)
	}
	if len(cfg.AllowedDataURLs) == 0 {
		logger.Info("No --allowed_data_url given; all data loads will be refused")
	}

	mux := http.NewServeMux()
	svc.RegisterHandlers(mux)
	hostname, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("failed to get hostname: %w", err)
	}

	// Provide OSC 8 (https://en.wikipedia.org/wiki/ANSI_escape_code#OSC) link for
	// compatible terminals.
	fmt.Printf("Serving InstrumentViz at \x1B]8;;http://%[1]s:%[2]d\x07http://%[1]s:%[2]d\x1B]8;;\x07\n", hostname, port)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()
	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	// No handler can start a load once the server is shut down.
	svc.Wait()
	return nil
}
