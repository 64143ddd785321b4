package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/plss-plat-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/plss-plat-etl/internal/adapter/kafka"
	"github.com/couchcryptid/plss-plat-etl/internal/adapter/parser"
	"github.com/couchcryptid/plss-plat-etl/internal/config"
	"github.com/couchcryptid/plss-plat-etl/internal/domain"
	"github.com/couchcryptid/plss-plat-etl/internal/lotdef"
	"github.com/couchcryptid/plss-plat-etl/internal/observability"
	"github.com/couchcryptid/plss-plat-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	defs := lotdef.NewDB()
	if cfg.LotDefCSVPath != "" {
		res, err := lotdef.ImportCSVFile(defs, cfg.LotDefCSVPath)
		if err != nil {
			logger.Error("failed to load lot definitions", "path", cfg.LotDefCSVPath, "error", err)
			os.Exit(1)
		}
		metrics.ImportRowsLoaded.Add(float64(res.RowsApplied))
		metrics.ImportRowsSkipped.Add(float64(len(res.RowErrors)))
		for _, re := range res.RowErrors {
			logger.Warn("skipped lot definition row", "line", re.Line, "reason", re.Reason)
		}
		logger.Info("lot definitions loaded",
			"path", cfg.LotDefCSVPath,
			"rows_applied", res.RowsApplied,
			"rows_skipped", len(res.RowErrors),
		)
	}

	// Initialize description parser (feature-flagged via PARSER_ENABLED / PARSER_URL).
	var descParser domain.DescriptionParser
	if cfg.ParserEnabled {
		client := parser.NewClient(cfg.ParserURL, cfg.ParserToken, cfg.ParserTimeout, metrics, logger)
		descParser = parser.NewCachedParser(client, cfg.ParserCacheSize, metrics)
		metrics.ParserEnabled.Set(1)
		logger.Info("description parser enabled", "cache_size", cfg.ParserCacheSize, "timeout", cfg.ParserTimeout)
	} else {
		logger.Info("description parser disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(descParser, logger)

	p := pipeline.New(reader, transformer, writer, defs, cfg.AllowDefaultLots, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
