package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"rolodex/internal/platform/config"
	"rolodex/internal/platform/httpserver"
	"rolodex/internal/platform/logger"
	"rolodex/internal/professional/handler"
	profmetrics "rolodex/internal/professional/metrics"
	"rolodex/internal/professional/service"
	"rolodex/internal/professional/store"
	"rolodex/internal/resume"
	httptransport "rolodex/internal/transport/http"
)

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal service packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ctx := context.Background()

	var (
		professionals service.Store
		txRunner      service.StoreTx
		pool          *pgxpool.Pool
	)
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to create database pool", "error", err.Error())
			os.Exit(1)
		}
		defer pool.Close()

		if err := store.Migrate(ctx, pool); err != nil {
			log.Error("failed to run migrations", "error", err.Error())
			os.Exit(1)
		}
		professionals = store.NewPostgres(pool)
		txRunner = store.NewPostgresTx(pool)
		log.Info("using postgres store")
	} else {
		professionals = store.NewInMemory()
		log.Info("using in-memory store; set DATABASE_URL for persistence")
	}

	var extractor resume.Extractor
	switch cfg.ResumeParser {
	case config.ResumeParserOpenAI:
		extractor = resume.NewOpenAIExtractor(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		log.Info("resume parsing enabled", "mode", "openai", "model", cfg.OpenAIModel)
	case config.ResumeParserHeuristic:
		extractor = resume.NewHeuristicExtractor()
		log.Info("resume parsing enabled", "mode", "heuristic")
	default:
		log.Info("resume parsing disabled")
	}
	resumes := resume.NewService(extractor, cfg.ResumeParseTimeout, log, resume.NewMetrics(reg))

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(profmetrics.New(reg)),
	}
	if txRunner != nil {
		opts = append(opts, service.WithTx(txRunner))
	}
	svc := service.New(professionals, opts...)

	h := handler.New(svc, resumes, log)
	router := httptransport.NewRouter(h, reg)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting rolodex", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server stopped")
}
