package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/ai"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/chat"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/config"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/db"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/embedcache"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/filestore"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/index"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/ingest"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/job"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/notes"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/repo"
	"github.com/Karthik-Git763/Personal-AI-Knowledge-Assistant/internal/schedule"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "pka",
		Short: "personal knowledge assistant storage core",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the assistant core",
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
			return run(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func run(cfg *config.Config, conn *sql.DB) error {
	ctx := context.Background()
	logutil.GetLogger(ctx).Info("starting",
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	docRepo := repo.NewDocumentRepo(conn)
	chunkRepo := repo.NewChunkRepo(conn)
	noteRepo := repo.NewNoteRepo(conn)
	versionRepo := repo.NewVersionRepo(conn)
	folderRepo := repo.NewFolderRepo(conn)
	tagRepo := repo.NewTagRepo(conn)
	linkRepo := repo.NewLinkRepo(conn)
	collabRepo := repo.NewCollaboratorRepo(conn)
	chatRepo := repo.NewChatRepo(conn)
	embedCacheRepo := repo.NewEmbeddingCacheRepo(conn)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	providerArgs := cfg.AI.Data
	if providerArgs == nil {
		providerArgs = cfg.AI
	}
	aiProvider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	generator := ai.NewGenerator(aiProvider, cfg.AI.Model)
	embedder := ai.NewEmbedder(aiProvider, cfg.AI.EmbedModel)
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, embedCacheRepo)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.AI.EmbedCacheSize,
		time.Duration(cfg.AI.EmbedCacheTTL)*time.Minute)
	manager := ai.NewManager(generator, embedder, cfg.AI.Model)

	idx := index.NewPgvectorIndex(conn)
	core := &coreServices{
		ingest: ingest.NewService(cfg.Ingest, docRepo, chunkRepo, idx, store, embedder, manager),
		notes:  notes.NewService(cfg.Notes, noteRepo, versionRepo, folderRepo, tagRepo, linkRepo, collabRepo),
		chat:   chat.NewService(cfg.Retrieval, chatRepo, chunkRepo, idx, manager),
	}
	logutil.GetLogger(ctx).Info("services initialized")

	scheduler := schedule.NewCronScheduler()
	lockTTL := time.Duration(cfg.Notes.LockTTLMinutes) * time.Minute
	if err := scheduler.AddJob(job.NewStaleLockJob(noteRepo, lockTTL), cfg.Jobs.StaleLockSpec); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewVectorReconcileJob(idx, 1000), cfg.Jobs.VectorReconcileSpec); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(embedCacheRepo, cfg.Jobs.EmbedCacheMaxAgeDays), cfg.Jobs.EmbedCacheCleanupSpec); err != nil {
		return err
	}
	scheduler.Start(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logutil.GetLogger(ctx).Info("shutting down")
	scheduler.Stop()
	core.ingest.Wait()
	return conn.Close()
}

// coreServices bundles the storage core. Callers embedding this module use
// the packages directly; the daemon keeps them wired so background jobs and
// in-flight ingestion share one lifecycle.
type coreServices struct {
	ingest *ingest.Service
	notes  *notes.Service
	chat   *chat.Service
}
