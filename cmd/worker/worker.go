package main

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/generative-ai-go/genai"
	"github.com/hibiken/asynq"
	"google.golang.org/api/option"

	"shikkha-content-platform/internal/ai"
	"shikkha-content-platform/internal/config"
	"shikkha-content-platform/internal/logger"
	"shikkha-content-platform/internal/queue"
	"shikkha-content-platform/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	genaiClient, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		log.Fatal("Failed to create Gemini client:", err)
	}
	defer genaiClient.Close()

	visionModel := ai.NewGeminiClient(genaiClient, cfg.GeminiModel, cfg.GeminiTier)
	embedder := ai.NewEmbeddingService(genaiClient, cfg.EmbeddingsModel, cfg.VectorDimensions)

	taxonomy := services.NewTaxonomyService(db)
	questions := services.NewQuestionService(db, taxonomy, embedder)
	extraction := services.NewExtractionService(visionModel, time.Duration(cfg.ExtractionTimeout)*time.Second)
	chunker := services.NewTextChunker(cfg.MaxChunkSize, cfg.ChunkOverlap, cfg.MinChunkSize)
	syllabus := services.NewSyllabusService(db, chunker, embedder)
	reconciliation := services.NewReconciliationService(db, embedder, cfg.ReconcileBatchSize)

	// Fail fast if Redis is unreachable instead of letting asynq retry
	// silently in the background.
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	rdb.Close()

	redisOpt := queue.RedisClientOpt(cfg)

	// The reconciliation sweep runs on a cron, enqueued like any other task
	// so retries and visibility go through the same pipeline.
	queueClient := asynq.NewClient(redisOpt)
	defer queueClient.Close()

	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Cron(cfg.ReconcileCron).Do(func() {
		if _, err := queueClient.Enqueue(queue.NewReconcileTask()); err != nil {
			logger.Error("failed to enqueue reconciliation task", "error", err)
		}
	}); err != nil {
		log.Fatal("Failed to schedule reconciliation:", err)
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(extraction, questions, syllabus, reconciliation)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestQuestionImages, processor.ProcessQuestionImages)
	mux.HandleFunc(queue.TaskProcessSyllabus, processor.ProcessSyllabus)
	mux.HandleFunc(queue.TaskReconcileEmbeddings, processor.ReconcileEmbeddings)

	logger.Info("Starting worker",
		"concurrency", 10,
		"redis", redisOpt.Addr,
		"reconcile_cron", cfg.ReconcileCron)

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
