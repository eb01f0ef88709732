package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Session  SessionConfig
	SMTP     SMTPConfig
	Report   ReportConfig
	Ai       AIConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

// SessionConfig selects where interview sessions live. "memory" is
// the default, "redis" and "postgres" survive restarts.
type SessionConfig struct {
	Backend    string
	TTLMinutes int
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type ReportConfig struct {
	Recipient      string
	CompletedTopic string
}

type AIConfig struct {
	LLMProvider       string // "gigachat" or "ollama"
	LLMModel          string
	OllamaBaseURL     string
	GigaChatAuthKey   string
	GigaChatScope     string
	GigaChatAuthURL   string
	GigaChatAPIURL    string
	GigaChatVerifySSL bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Session: SessionConfig{
			Backend:    getEnv("SESSION_STORE", "memory"),
			TTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 60),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "BANT Agent"),
		},
		Report: ReportConfig{
			Recipient:      getEnv("REPORT_RECIPIENT_EMAIL", ""),
			CompletedTopic: getEnv("INTERVIEW_COMPLETED_TOPIC_NAME", "INTERVIEW_COMPLETED"),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "gigachat"),
			LLMModel:          getEnv("LLM_MODEL", "GigaChat-Pro"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			GigaChatAuthKey:   getEnv("GIGACHAT_AUTH_KEY", ""),
			GigaChatScope:     getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			GigaChatAuthURL:   getEnv("GIGACHAT_AUTH_URL", ""),
			GigaChatAPIURL:    getEnv("GIGACHAT_API_URL", ""),
			GigaChatVerifySSL: getEnvAsBool("GIGACHAT_VERIFY_SSL", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
