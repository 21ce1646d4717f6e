package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dropkick0/ai-call-agent/internal/audio"
	"github.com/Dropkick0/ai-call-agent/internal/calendar"
	"github.com/Dropkick0/ai-call-agent/internal/config"
	"github.com/Dropkick0/ai-call-agent/internal/engine"
	"github.com/Dropkick0/ai-call-agent/internal/guardrail"
	"github.com/Dropkick0/ai-call-agent/internal/metrics"
	"github.com/Dropkick0/ai-call-agent/internal/relay"
	"github.com/Dropkick0/ai-call-agent/internal/report"
	"github.com/Dropkick0/ai-call-agent/internal/server"
	"github.com/Dropkick0/ai-call-agent/internal/session"
	"github.com/Dropkick0/ai-call-agent/internal/store"
	"github.com/Dropkick0/ai-call-agent/internal/telephony"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "ai-call-agent"
	serviceVersion    = "1.0.0"
)

// defaultInstructions is used when no instructions file is configured.
const defaultInstructions = "You are a friendly scheduling assistant. Greet the caller, " +
	"then help them pick an appointment from the offered slots. Keep answers short; " +
	"this is a voice call."

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("address", cfg.Server.Address),
		slog.String("public_host", cfg.Server.PublicHost),
		slog.String("engine_model", cfg.Engine.Model),
		slog.String("audio_encoding", cfg.Audio.Encoding),
		slog.Int("allowed_intents", len(cfg.Guardrail.AllowedIntents)),
		slog.Bool("calendar_enabled", cfg.Calendar.Enabled),
		slog.Bool("database_enabled", cfg.Database.Enabled),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Initialize the session registry
	registry := session.NewRegistry(logger)

	// Initialize the guardrail validator
	validator, err := guardrail.New(guardrail.Config{
		AllowedIntents:    cfg.Guardrail.AllowedIntents,
		DisallowedPattern: cfg.Guardrail.DisallowedPattern,
	})
	if err != nil {
		logger.Error("Failed to create guardrail validator", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if !validator.Gated() {
		logger.Warn("No intent whitelist configured, all turns will be accepted")
	}

	// Initialize the audio transcoder
	codec, err := audio.NewTranscoder(audio.Encoding(cfg.Audio.Encoding))
	if err != nil {
		logger.Error("Failed to create audio transcoder", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize the calendar slot provider (if enabled)
	var slots calendar.SlotProvider
	if cfg.Calendar.Enabled {
		provider, err := calendar.NewGoogleProvider(ctx, calendar.Config{
			CalendarID:      cfg.Calendar.CalendarID,
			CredentialsFile: cfg.Calendar.CredentialsFile,
			SlotMinutes:     cfg.Calendar.SlotMinutes,
			DayStartHour:    cfg.Calendar.DayStartHour,
			DayEndHour:      cfg.Calendar.DayEndHour,
		}, logger)
		if err != nil {
			logger.Error("Failed to create calendar provider", slog.String("error", err.Error()))
			os.Exit(1)
		}
		slots = provider
		logger.Info("Calendar provider initialized",
			slog.String("calendar_id", cfg.Calendar.CalendarID),
			slog.Int("slot_minutes", cfg.Calendar.SlotMinutes),
		)
	}

	// Load the base instructions
	instructions := defaultInstructions
	if cfg.Engine.InstructionsFile != "" {
		data, err := os.ReadFile(cfg.Engine.InstructionsFile)
		if err != nil {
			logger.Error("Failed to read instructions file",
				slog.String("path", cfg.Engine.InstructionsFile),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
		instructions = string(data)
	}
	instructor := &relay.Instructor{
		Base:   instructions,
		Slots:  slots,
		Logger: logger,
	}

	// Initialize the summary store (if enabled)
	var summaryStore *store.Store
	if cfg.Database.Enabled {
		summaryStore, err = store.Open(ctx, cfg.Database.URL)
		if err != nil {
			logger.Error("Failed to open summary store", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer summaryStore.Close()
		logger.Info("Summary store initialized")
	}

	// Initialize the telephony REST client for outbound calls
	placer := telephony.NewRestClient(telephony.RestConfig{
		AccountSID: cfg.Telephony.AccountSID,
		AuthToken:  cfg.Telephony.AuthToken,
		FromNumber: cfg.Telephony.FromNumber,
		BaseURL:    cfg.Telephony.APIBaseURL,
		Timeout:    cfg.Telephony.GetRequestTimeout(),
	}, logger)

	// finalize computes and persists the per-call summary after each call.
	finalize := func(s *session.CallSession) {
		sum := report.Compute(s)

		if cfg.Reports.Enabled {
			path, err := report.Write(cfg.Reports.Dir, sum)
			if err != nil {
				logger.Error("Failed to write call report",
					slog.String("call_id", sum.CallID),
					slog.String("error", err.Error()),
				)
			} else {
				logger.Info("Call report written",
					slog.String("call_id", sum.CallID),
					slog.String("path", path),
				)
			}
		}

		if summaryStore != nil {
			saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer saveCancel()
			if err := summaryStore.SaveSummary(saveCtx, sum); err != nil {
				logger.Error("Failed to persist call summary",
					slog.String("call_id", sum.CallID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	// dialEngine opens a fresh engine connection for each call.
	engineCfg := engine.Config{
		URL:         cfg.Engine.URL,
		Model:       cfg.Engine.Model,
		APIKey:      cfg.Engine.APIKey,
		Voice:       cfg.Engine.Voice,
		Temperature: cfg.Engine.Temperature,
		Timeout:     cfg.Engine.GetHandshakeTimeout(),
	}
	dialEngine := func(ctx context.Context) (relay.EngineConn, error) {
		return engine.Dial(ctx, engineCfg, logger)
	}

	// Initialize the HTTP server
	httpServer := server.NewHTTPServer(server.Deps{
		Config:     cfg,
		Logger:     logger,
		Registry:   registry,
		Metrics:    appMetrics,
		Validator:  validator,
		Codec:      codec,
		Instructor: instructor,
		Placer:     placer,
		DialEngine: dialEngine,
		Finalize:   finalize,
	})

	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("listen_address", fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)),
	)

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	logger.Info("Final service statistics",
		slog.Int("active_calls", registry.ActiveCount()),
	)

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
