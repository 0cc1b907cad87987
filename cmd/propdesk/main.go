package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/propdesk/propdesk/internal/ai"
	"github.com/propdesk/propdesk/internal/cache"
	"github.com/propdesk/propdesk/internal/chat"
	"github.com/propdesk/propdesk/internal/config"
	"github.com/propdesk/propdesk/internal/db"
	"github.com/propdesk/propdesk/internal/embedcache"
	"github.com/propdesk/propdesk/internal/filestore"
	"github.com/propdesk/propdesk/internal/handler"
	"github.com/propdesk/propdesk/internal/ingest"
	"github.com/propdesk/propdesk/internal/job"
	"github.com/propdesk/propdesk/internal/middleware"
	"github.com/propdesk/propdesk/internal/repo"
	"github.com/propdesk/propdesk/internal/retrieve"
	"github.com/propdesk/propdesk/internal/schedule"
	"github.com/propdesk/propdesk/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "propdesk",
		Short: "propdesk document q&a server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run propdesk server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("file_store", cfg.FileStore.Type),
	)

	docRepo := repo.NewDocumentRepo(conn)
	chunkRepo := repo.NewChunkRepo(conn)
	convRepo := repo.NewConversationRepo(conn)
	msgRepo := repo.NewMessageRepo(conn)
	embedCacheRepo := repo.NewEmbeddingCacheRepo(conn)
	retentionRepo := repo.NewRetentionRepo(conn)

	aiProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	generator := ai.NewGenerator(aiProvider, cfg.AI.Model)
	embedder := ai.NewEmbedder(aiProvider, cfg.AI.EmbedModel)
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, embedCacheRepo)
	embedder = embedcache.WrapLRUCacheToEmbedder(embedder, cfg.AI.EmbedLRUSize, time.Duration(cfg.AI.EmbedLRUTTLMin)*time.Minute)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	cacheStore, err := cache.New(cfg.Cache.Type, cfg.Cache.Data)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	defer cacheStore.Close()
	listing := cache.NewListing(cacheStore,
		time.Duration(cfg.Cache.ListTTLSeconds)*time.Second,
		time.Duration(cfg.Cache.RecentTTLSeconds)*time.Second,
	)

	chunker := ingest.NewChunker(cfg.Ingest.WindowChars, cfg.Ingest.OverlapChars)
	pipeline, err := ingest.NewPipeline(docRepo, chunkRepo, embedder, chunker, cfg.AI.EmbedDim, cfg.Ingest.Workers)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}
	defer pipeline.Release()

	retriever := retrieve.NewRetriever(embedder, chunkRepo,
		cfg.Retrieve.TopK, cfg.Retrieve.MinScore, cfg.Retrieve.PerDocCap,
		time.Duration(cfg.Retrieve.TimeoutSeconds)*time.Second,
	)
	assembler := chat.NewAssembler(convRepo, msgRepo, retriever, generator, listing,
		cfg.Chat.HistoryWindow,
		time.Duration(cfg.AI.TimeoutSeconds)*time.Second,
	)

	ingestService := service.NewIngestService(docRepo, chunkRepo, store, pipeline, cfg.Ingest.MaxUploadSize)
	sessionService := service.NewSessionService(convRepo, msgRepo, listing)
	retentionJob := job.NewRetentionJob(convRepo, msgRepo, retentionRepo, cfg.Retention)

	deps := handler.RouterDeps{
		Ingest:     handler.NewIngestHandler(ingestService, cfg.Ingest.MaxUploadSize),
		Chat:       handler.NewChatHandler(assembler),
		Sessions:   handler.NewSessionHandler(sessionService),
		Admin:      handler.NewAdminHandler(retentionJob, retentionRepo),
		JWTSecret:  []byte(cfg.JWTSecret),
		ChatWindow: time.Duration(cfg.Chat.RateLimitSeconds) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(retentionJob, cfg.Retention.Spec); err != nil {
		return fmt.Errorf("schedule retention: %w", err)
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(embedCacheRepo, cfg.Retention.EmbedCacheMaxAgeDays), cfg.Retention.Spec); err != nil {
		return fmt.Errorf("schedule embedding cache cleanup: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
