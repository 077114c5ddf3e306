package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"shikkha-content-platform/internal/config"
	"shikkha-content-platform/middleware"
	"shikkha-content-platform/services"
)

// Services groups everything the HTTP surface depends on. The composition
// root builds it once and hands it in.
type Services struct {
	Taxonomy   *services.TaxonomyService
	Questions  *services.QuestionService
	Extraction *services.ExtractionService
	Search     *services.SearchService
	Syllabus   *services.SyllabusService
	Export     *services.ExportService
}

// SetupRouter assembles the gin engine: middleware stack, health endpoint
// and the API routes.
func SetupRouter(cfg *config.Config, svcs Services, queueClient *asynq.Client) *gin.Engine {
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware("shikkha-content-platform"))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	api := router.Group("/api")
	{
		api.POST("/questions", HandleCreateQuestion(svcs.Questions))
		api.GET("/questions", HandleListQuestions(svcs.Questions))
		api.GET("/questions/:id", HandleGetQuestion(svcs.Questions))
		api.PUT("/questions/:id", HandleUpdateQuestion(svcs.Questions))
		api.DELETE("/questions/:id", HandleDeleteQuestion(svcs.Questions))

		api.POST("/questions/extract", HandleExtractQuestions(cfg, svcs.Extraction))
		api.POST("/questions/extract-answers", HandleExtractAnswers(cfg, svcs.Extraction))
		api.POST("/questions/ingest", HandleIngestQuestionImages(cfg, queueClient))

		api.GET("/search", HandleSearch(svcs.Search))

		api.GET("/subjects/:id", HandleGetSubject(svcs.Taxonomy))
		api.GET("/subjects/:id/chapters", HandleListChapters(svcs.Taxonomy))
		api.GET("/chapters/:id/topics", HandleListTopics(svcs.Taxonomy))

		api.POST("/syllabus", HandleUploadSyllabus(cfg, queueClient))
		api.GET("/syllabus/:subjectID", HandleListSyllabusChunks(svcs.Syllabus))

		api.GET("/export/questions", HandleExportQuestions(svcs.Export))
	}

	return router
}
