// Package service wires the application together and runs it until
// interrupted.
package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/khacks/phototriage-go/internal/artifacts"
	"github.com/khacks/phototriage-go/internal/classifier"
	"github.com/khacks/phototriage-go/internal/conf"
	"github.com/khacks/phototriage-go/internal/datastore"
	"github.com/khacks/phototriage-go/internal/httpcontroller"
	"github.com/khacks/phototriage-go/internal/logging"
	"github.com/khacks/phototriage-go/internal/observability"
	"github.com/khacks/phototriage-go/internal/pipeline"
)

const shutdownTimeout = 10 * time.Second

// Run starts the phototriage service and blocks until SIGINT or SIGTERM.
func Run(settings *conf.Settings) error {
	logger := logging.ForService("service")

	// The classifier is expensive to construct; it is loaded once here and
	// shared read-only for the process lifetime.
	logger.Info("Loading classification model", "path", settings.Model.Path)
	cls, err := classifier.New(settings.Model.Path, settings.Model.MetadataPath)
	if err != nil {
		return fmt.Errorf("failed to initialize classifier: %w", err)
	}
	defer cls.Close()

	dataStore := datastore.New(settings)
	if dataStore == nil {
		return fmt.Errorf("no database backend enabled")
	}
	if err := dataStore.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer func() {
		if err := dataStore.Close(); err != nil {
			logger.Error("Failed to close datastore", "error", err)
		}
	}()

	sink, err := artifacts.New(settings.Uploads.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize artifact sink: %w", err)
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	p := pipeline.New(settings, cls, dataStore, sink, metrics)
	server := httpcontroller.New(settings, dataStore, p, metrics)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		logger.Info("Shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	return nil
}
