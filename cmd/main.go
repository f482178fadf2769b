package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/earlysvahn/whisper-transcribe-api/internal/app"
	"github.com/earlysvahn/whisper-transcribe-api/internal/config"
	"github.com/earlysvahn/whisper-transcribe-api/internal/events"
	httpapi "github.com/earlysvahn/whisper-transcribe-api/internal/http"
	"github.com/earlysvahn/whisper-transcribe-api/internal/observability"
	"github.com/earlysvahn/whisper-transcribe-api/internal/observability/metrics"
	"github.com/earlysvahn/whisper-transcribe-api/internal/service/stt"
	"github.com/earlysvahn/whisper-transcribe-api/internal/service/stt/google"
	"github.com/earlysvahn/whisper-transcribe-api/internal/service/stt/mock"
	"github.com/earlysvahn/whisper-transcribe-api/internal/service/stt/whisper"
	"github.com/earlysvahn/whisper-transcribe-api/internal/service/transcription"
)

func main() {
	cfg := config.Load()

	application := app.New(cfg)
	logger := application.Logger
	if err := application.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Application startup failed")
	}
	defer application.Shutdown()

	m := metrics.DefaultMetrics

	publisher := events.New(&events.Config{
		Enabled:   cfg.Kafka.Enabled,
		Brokers:   cfg.Kafka.Brokers,
		Topic:     cfg.Kafka.Topic,
		Principal: cfg.Kafka.Principal,
	})
	defer publisher.Close()

	engine := buildEngine(cfg, logger)
	defer engine.Close()

	service := transcription.New(engine, cfg.Model.Provider, publisher, m, logger)

	obsServer := observability.NewServer(":"+cfg.Observability.MetricsPort, service.Ready)
	obsServer.Start()

	handler := httpapi.NewHandler(service, cfg.Upload.MaxBytes, logger)
	router := httpapi.NewRouter(handler, m)

	server := &http.Server{
		Addr:    ":" + cfg.Service.HTTPPort,
		Handler: router,
		// No write timeout: inference on long audio legitimately takes
		// minutes and the response is a single document at the end.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("Whisper transcribe API started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP serve failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP shutdown error")
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Observability shutdown error")
	}
}

// buildEngine constructs the configured engine. The whisper model loads in
// a background goroutine so /health can report the initializing state;
// requests are rejected with 503 until it is ready.
func buildEngine(cfg *config.Config, logger zerolog.Logger) stt.Engine {
	switch cfg.Model.Provider {
	case "whisper":
		eng := whisper.New(whisper.Config{
			ModelSize:       cfg.Model.Size,
			CacheDir:        cfg.Model.CacheDir,
			Device:          cfg.Model.Device,
			ComputeType:     cfg.Model.ComputeType,
			PythonBin:       cfg.Model.PythonBin,
			VadMinSilenceMs: cfg.Model.VadMinSilenceMs,
		}, logger)
		go func() {
			if err := eng.Start(context.Background()); err != nil {
				logger.Error().Err(err).Msg("Whisper engine failed to start; service stays unready")
			}
		}()
		return eng
	case "google":
		eng, err := google.New(context.Background(), logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Google engine init failed")
		}
		return eng
	case "mock":
		logger.Warn().Msg("Using mock STT engine")
		return mock.New()
	default:
		logger.Fatal().Str("provider", cfg.Model.Provider).Msg("Unknown STT provider")
		return nil
	}
}
