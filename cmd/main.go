package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/hibiken/asynq"
	"google.golang.org/api/option"

	"shikkha-content-platform/internal/ai"
	"shikkha-content-platform/internal/config"
	"shikkha-content-platform/internal/logger"
	"shikkha-content-platform/internal/queue"
	"shikkha-content-platform/internal/telemetry"
	"shikkha-content-platform/routes"
	"shikkha-content-platform/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("shikkha-content-platform", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to initialize tracing:", err)
		}
		defer shutdown()
	}

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

	// One shared genai client backs both the vision model and embeddings.
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
	search := services.NewSearchService(db, embedder, cfg)
	chunker := services.NewTextChunker(cfg.MaxChunkSize, cfg.ChunkOverlap, cfg.MinChunkSize)
	syllabus := services.NewSyllabusService(db, chunker, embedder)
	export := services.NewExportService(questions)

	queueClient := asynq.NewClient(queue.RedisClientOpt(cfg))
	defer queueClient.Close()

	router := routes.SetupRouter(cfg, routes.Services{
		Taxonomy:   taxonomy,
		Questions:  questions,
		Extraction: extraction,
		Search:     search,
		Syllabus:   syllabus,
		Export:     export,
	}, queueClient)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
