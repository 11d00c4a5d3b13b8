package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port string

	// Research backend (cloud AI project).
	ProjectEndpoint        string
	ModelDeployment        string
	DeepResearchDeployment string
	BingResourceName       string

	PollInterval time.Duration
	RunTimeout   time.Duration // 0 means no ceiling on run duration

	PostgresDSN   string
	MongoURI      string
	MongoDB       string
	RedisAddr     string
	RedisPassword string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

func Load() *Config {
	// A local .env is optional; deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		Port:                   getenv("PORT", "8001"),
		ProjectEndpoint:        getenv("PROJECT_ENDPOINT", ""),
		ModelDeployment:        getenv("MODEL_DEPLOYMENT_NAME", ""),
		DeepResearchDeployment: getenv("DEEP_RESEARCH_MODEL_DEPLOYMENT_NAME", ""),
		BingResourceName:       getenv("BING_RESOURCE_NAME", ""),
		PollInterval:           time.Duration(getenvInt("POLL_INTERVAL_SECONDS", 10)) * time.Second,
		RunTimeout:             time.Duration(getenvInt("RUN_TIMEOUT_MINUTES", 0)) * time.Minute,
		PostgresDSN:            getenv("POSTGRES_DSN", ""),
		MongoURI:               getenv("MONGO_URI", ""),
		MongoDB:                getenv("MONGO_DB", "deep_research"),
		RedisAddr:              getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword:          getenv("REDIS_PASSWORD", ""),
		MinioEndpoint:          getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey:         getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:         getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:            getenv("MINIO_BUCKET", "research-reports"),
		MinioUseSSL:            getenv("MINIO_USE_SSL", "false") == "true",
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
