package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	FirebaseProject string
	Environment     string
	CatalogBaseURL  string
	AssistBaseURL   string
	AssistAPIKey    string
	CatalogTimeout  int64 // seconds
	AssistTimeout   int64 // seconds
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		FirebaseProject: getEnv("FIREBASE_PROJECT_ID", ""),
		Environment:     getEnv("ENVIRONMENT", "development"),
		CatalogBaseURL:  getEnv("CATALOG_BASE_URL", "http://localhost:9091"),
		AssistBaseURL:   getEnv("ASSIST_BASE_URL", "http://localhost:9092"),
		AssistAPIKey:    getEnv("ASSIST_API_KEY", ""),
		CatalogTimeout:  getEnvAsInt64("CATALOG_TIMEOUT_SECONDS", 10),
		AssistTimeout:   getEnvAsInt64("ASSIST_TIMEOUT_SECONDS", 30),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
