package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/trait-interview/backend/internal/config"
	"github.com/zhouzirui/trait-interview/backend/internal/handler"
	"github.com/zhouzirui/trait-interview/backend/internal/logging"
	"github.com/zhouzirui/trait-interview/backend/internal/model/trait"
	"github.com/zhouzirui/trait-interview/backend/internal/service/agent"
	"github.com/zhouzirui/trait-interview/backend/internal/service/ai"
	"github.com/zhouzirui/trait-interview/backend/internal/service/interview"
	"github.com/zhouzirui/trait-interview/backend/internal/service/speech"
	"github.com/zhouzirui/trait-interview/backend/internal/service/transcript"
	"github.com/zhouzirui/trait-interview/backend/internal/store/snapshot"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logging.New(cfg.Log)
	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file, continuing with system environment variables only")
	}

	catalog, err := loadCatalog(cfg.Interview)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load trait catalog")
	}
	log.Info().Int("traits", catalog.Len()).Msg("trait catalog loaded")

	chatModel, err := ai.NewChatModel(ctx, cfg.AI)
	if err != nil {
		log.Fatal().Err(err).Str("provider", string(cfg.AI.Provider)).Msg("failed to initialize AI model")
	}
	log.Info().Str("provider", string(cfg.AI.Provider)).Msg("AI model initialized")

	recorder, closeRecorder, err := openRecorder(cfg.Interview)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open transcript recorder")
	}
	defer closeRecorder()

	var snapshots interview.SnapshotStore
	if cfg.Interview.SnapshotPath != "" {
		store, err := snapshot.Open(cfg.Interview.SnapshotPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Interview.SnapshotPath).Msg("failed to open snapshot store")
		}
		defer store.Close()
		snapshots = store
	}

	var transcriber speech.Transcriber
	if cfg.Speech.Enabled {
		transcriber, err = speech.NewTranscriber(cfg.Speech.Model(), log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize speech recognition")
		}
		log.Info().Str("provider", string(cfg.Speech.Provider)).Msg("speech recognition enabled")
	} else {
		log.Warn().Msg("语音识别凭证未配置，音频提交将返回 503")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := interview.NewService(interview.Options{
		Catalog:           catalog,
		Agents:            agent.NewLLMFactory(chatModel, log),
		Recorder:          recorder,
		Snapshots:         snapshots,
		Transcriber:       transcriber,
		CapabilityTimeout: cfg.Interview.CapabilityTimeout,
		Registerer:        registry,
		Logger:            log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize interview service")
	}
	if _, err := svc.Restore(ctx); err != nil {
		log.Error().Err(err).Msg("failed to restore sessions from snapshots")
	}

	router := handler.NewRouter(handler.Deps{
		Interviews:       svc,
		Catalog:          catalog,
		Transcriber:      transcriber,
		SpeechProvider:   cfg.Speech.Provider,
		Gatherer:         registry,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		UploadLimitBytes: cfg.Interview.UploadLimitBytes,
		Logger:           log,
	})

	startServer(ctx, cfg.Server, router, log)
}

func loadCatalog(cfg config.InterviewConfig) (trait.Catalog, error) {
	if cfg.CatalogPath == "" {
		return trait.NewMemoryCatalog(trait.Seed()), nil
	}
	return trait.LoadFile(cfg.CatalogPath)
}

// openRecorder always writes transcript files and mirrors them to SQLite when configured.
func openRecorder(cfg config.InterviewConfig) (transcript.Recorder, func(), error) {
	files, err := transcript.NewFileRecorder(cfg.TranscriptDir)
	if err != nil {
		return nil, nil, err
	}
	if cfg.TranscriptSQLite == "" {
		return files, func() {}, nil
	}

	db, err := transcript.OpenSQLite(cfg.TranscriptSQLite)
	if err != nil {
		return nil, nil, err
	}
	return transcript.Multi{files, db}, func() { _ = db.Close() }, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, log zerolog.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("trait interview backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
