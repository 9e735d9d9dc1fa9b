package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/chatdesk/chatdesk/db"
	"github.com/chatdesk/chatdesk/internal/api"
	"github.com/chatdesk/chatdesk/internal/chat"
	"github.com/chatdesk/chatdesk/internal/config"
	"github.com/chatdesk/chatdesk/internal/conversation"
	"github.com/chatdesk/chatdesk/internal/knowledge"
	"github.com/chatdesk/chatdesk/internal/llm"
	"github.com/chatdesk/chatdesk/internal/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServe wires configuration, storage, generation, and the HTTP server,
// then blocks until SIGINT or SIGTERM.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), JSON: cfg.LogJSON})
	logger.Info("starting chatdesk", "version", AppVersion)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := buildPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	conversations := conversation.NewStore(pool, logger)
	kb := knowledge.NewStore(pool, logger)

	generator := llm.New(llm.Config{
		APIKey:         cfg.OpenAIAPIKey,
		Model:          cfg.ModelName,
		MaxReplyTokens: cfg.MaxReplyTokens,
		RequestTimeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
	}, logger)

	chatService, err := chat.New(chat.Config{
		Conversations: conversations,
		Knowledge:     kb,
		Generator:     generator,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("creating chat service: %w", err)
	}

	server, err := api.NewServer(api.ServerConfig{
		Chat:        chatService,
		Pool:        pool,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	return server.Run(ctx, cfg.ListenAddr())
}

// buildPool runs migrations and creates the PostgreSQL connection pool.
func buildPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}
