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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/naramarket/naramarket-mcp/internal/cache"
	"github.com/naramarket/naramarket-mcp/internal/config"
	"github.com/naramarket/naramarket-mcp/internal/database"
	"github.com/naramarket/naramarket-mcp/internal/events"
	"github.com/naramarket/naramarket-mcp/internal/handler"
	"github.com/naramarket/naramarket-mcp/internal/logger"
	"github.com/naramarket/naramarket-mcp/internal/mcpserver"
	"github.com/naramarket/naramarket-mcp/internal/repository"
	"github.com/naramarket/naramarket-mcp/internal/retry"
	"github.com/naramarket/naramarket-mcp/internal/service"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	lg := logger.New(cfg.Log)
	log.Logger = lg
	if envErr != nil {
		lg.Debug().Msg("No .env file found, using environment variables from OS")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clientOpts := []service.ClientOption{
		service.WithRetryPolicy(retry.New(cfg.Upstream.MaxRetries, cfg.Upstream.BackoffBase, lg)),
		service.WithTimeout(cfg.Upstream.Timeout),
		service.WithMaxBodySize(cfg.Upstream.MaxBodyBytes),
	}
	svcOpts := []service.ProcurementOption{
		service.WithTransport(cfg.Server.Transport),
	}

	var calls repository.ICallRepository
	if cfg.Database.DSN != "" {
		pool, err := database.ConnectDB(ctx, cfg.Database, lg)
		if err != nil {
			lg.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			lg.Fatal().Err(err).Msg("Failed to prepare database schema")
		}
		lg.Info().Msg("Successfully connected to database")

		repo := repository.NewRepository(pool)
		calls = repo.Call()
		clientOpts = append(clientOpts, service.WithRecorder(calls))
		svcOpts = append(svcOpts, service.WithPinger("database", repo))
	}

	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			lg.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer rc.Close()
		lg.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("Response cache enabled")

		clientOpts = append(clientOpts, service.WithCache(rc))
		svcOpts = append(svcOpts, service.WithPinger("redis", rc))
	}

	if len(cfg.Kafka.Brokers) > 0 {
		pub := events.NewCallPublisher(cfg.Kafka)
		defer func() {
			if err := pub.Close(); err != nil {
				lg.Warn().Err(err).Msg("Failed to flush call events")
			}
		}()
		lg.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Call events enabled")

		clientOpts = append(clientOpts, service.WithRecorder(pub))
	}

	client := service.NewG2BClient(lg, clientOpts...)
	procurementService := service.NewProcurementService(client, cfg.Upstream, lg, svcOpts...)

	mcpServer := mcpserver.New(procurementService, lg)
	procurementService.SetToolNames(mcpServer.ToolNames())

	if cfg.Server.Transport == config.TransportStdio {
		if err := mcpServer.RunStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
			lg.Fatal().Err(err).Msg("MCP stdio session failed")
		}
		return
	}

	serveHTTP(ctx, cfg, lg, procurementService, calls, mcpServer.HTTPHandler())
}

func serveHTTP(ctx context.Context, cfg *config.Config, lg zerolog.Logger, svc service.IProcurementService, calls repository.ICallRepository, mcpHandler http.Handler) {
	deps := handler.RouterDeps{
		Procurement: svc,
		Calls:       calls,
		MCP:         mcpHandler,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		Logger:      lg,
	}
	if cfg.Auth.JWTSecret != "" {
		deps.Auth = service.NewAuthService(cfg.Auth.JWTSecret)
	}
	router := handler.SetupRouter(deps)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		lg.Info().Str("port", cfg.Server.Port).Bool("auth", deps.Auth != nil).Msg("Server starting")
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			lg.Fatal().Err(err).Str("port", cfg.Server.Port).Msg("Cannot run server")
		}
	}()

	<-ctx.Done()

	lg.Info().Msg("Shut down the server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("Server shutdown failed")
		return
	}
	lg.Info().Msg("Server successfully shut down")
}
