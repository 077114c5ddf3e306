package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI string
	DBName   string
	Port     string
	GinMode  string

	CORSOrigins []string

	// Gemini / embeddings
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTier        string
	EmbeddingsModel   string
	VectorDimensions  int
	ExtractionTimeout int // seconds, per vision-model call

	// Vector search
	VectorSearchEnabled bool
	VectorIndexName     string
	SearchDefaultTopK   int

	// Uploads
	FileStorageDir string
	MaxFileSize    int64
	AllowedTypes   []string

	// Syllabus chunking
	MaxChunkSize int
	MinChunkSize int
	ChunkOverlap int

	// Redis / queue
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Reconciliation sweep
	ReconcileCron      string
	ReconcileBatchSize int

	// Telemetry
	OTLPEndpoint   string
	TracingEnabled bool
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/shikkha_content"),
		DBName:   getEnv("DB_NAME", "shikkha_content"),
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),

		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTier:        getEnv("GEMINI_TIER", "free"),
		EmbeddingsModel:   getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		VectorDimensions:  getEnvInt("VECTOR_DIM", 768),
		ExtractionTimeout: getEnvInt("EXTRACTION_TIMEOUT", 120),

		VectorSearchEnabled: getEnvBool("MONGODB_VECTOR_ENABLED", false),
		VectorIndexName:     getEnv("MONGODB_VECTOR_INDEX", "embeddings_vector"),
		SearchDefaultTopK:   getEnvInt("SEARCH_DEFAULT_TOP_K", 5),

		FileStorageDir: getEnv("FILE_STORAGE_DIR", "./storage"),
		MaxFileSize:    getEnvInt64("MAX_FILE_SIZE", 20971520), // 20MB per uploaded image/PDF
		AllowedTypes:   strings.Split(getEnv("ALLOWED_FILE_TYPES", "image/jpeg,image/png,image/webp,application/pdf"), ","),

		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 1000),
		MinChunkSize: getEnvInt("MIN_CHUNK_SIZE", 200),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		ReconcileCron:      getEnv("RECONCILE_CRON", "*/15 * * * *"),
		ReconcileBatchSize: getEnvInt("RECONCILE_BATCH_SIZE", 100),

		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.VectorDimensions <= 0 {
		return nil, fmt.Errorf("VECTOR_DIM must be a positive integer")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
