package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	History HistoryConfig
	Vision  VisionConfig
	Redis   RedisConfig
}

type ServerConfig struct {
	Port           string
	SecretKey      string
	Debug          bool
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	MaxConcurrent  int
}

type StorageConfig struct {
	MaxFileSize  int64
	AllowedTypes []string
	UploadPath   string
}

type HistoryConfig struct {
	Path     string
	MaxItems int
}

type VisionConfig struct {
	OllamaURL    string
	CaptionModel string
	DetectModel  string
	OcrModel     string
}

type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	CacheDuration time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			SecretKey:      getEnv("SECRET_KEY", ""),
			Debug:          getEnv("GIN_MODE", "debug") != "release",
			ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getDuration("WRITE_TIMEOUT", 90*time.Second),
			RequestTimeout: getDuration("REQUEST_TIMEOUT", 60*time.Second),
			MaxConcurrent:  getEnvAsInt("MAX_CONCURRENT", 4),
		},
		Storage: StorageConfig{
			MaxFileSize:  getEnvAsInt64("MAX_FILE_SIZE", 10*1024*1024), // 10MiB
			AllowedTypes: []string{"image/jpeg", "image/jpg", "image/png"},
			UploadPath:   getEnv("UPLOAD_PATH", "./uploads"),
		},
		History: HistoryConfig{
			Path:     getEnv("HISTORY_PATH", "./history"),
			MaxItems: getEnvAsInt("HISTORY_LIMIT", 0),
		},
		Vision: VisionConfig{
			OllamaURL:    getEnv("OLLAMA_URL", "http://localhost:11434"),
			CaptionModel: getEnv("CAPTION_MODEL", "llava:7b"),
			DetectModel:  getEnv("DETECT_MODEL", "llava:7b"),
			OcrModel:     getEnv("OCR_MODEL", "llava:7b"),
		},
		Redis: RedisConfig{
			Addr:          getEnv("REDIS_ADDR", ""),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvAsInt("REDIS_DB", 0),
			CacheDuration: getDuration("CACHE_DURATION", 24*time.Hour),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
