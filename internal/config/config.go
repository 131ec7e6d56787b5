package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Database DatabaseConfig
	WhatsApp WhatsAppConfig
	LLM      LLMConfig
	Speech   SpeechConfig
	SMTP     SMTPConfig
	Operator OperatorConfig
	JWT      JWTConfig
	LogLevel string
	GinMode  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// WhatsAppConfig carries the Cloud API credentials. PhoneNumberID is the
// business number that owns the webhook and is used as the system's own
// party id in chat history.
type WhatsAppConfig struct {
	VerifyToken   string
	AppSecret     string
	AccessToken   string
	GraphVersion  string
	PhoneNumberID string
}

type LLMConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

type SpeechConfig struct {
	Model    string
	Language string
}

type SMTPConfig struct {
	Host     string
	Port     string
	Email    string
	Password string
	AlertTo  string
}

// OperatorConfig holds dashboard operator credentials. When PasswordHash is
// empty the dashboard endpoints are served without authentication.
type OperatorConfig struct {
	Username     string
	PasswordHash string
}

type JWTConfig struct {
	Secret string
	Expiry string
}

func New() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "talktrace_db"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
		},
		WhatsApp: WhatsAppConfig{
			VerifyToken:   getEnv("VERIFY_TOKEN", ""),
			AppSecret:     getEnv("APP_SECRET", ""),
			AccessToken:   getEnv("ACCESS_TOKEN", ""),
			GraphVersion:  getEnv("GRAPH_VERSION", "v21.0"),
			PhoneNumberID: getEnv("PHONE_NUMBER_ID", ""),
		},
		LLM: LLMConfig{
			APIKey:    getEnv("LLM_API_KEY", ""),
			BaseURL:   getEnv("LLM_BASE_URL", "https://dashscope-intl.aliyuncs.com/compatible-mode/v1"),
			Model:     getEnv("LLM_MODEL", "qwen-plus"),
			MaxTokens: getEnvInt("LLM_MAX_TOKENS", 100),
		},
		Speech: SpeechConfig{
			Model:    getEnv("SPEECH_MODEL", "whisper-1"),
			Language: getEnv("SPEECH_LANGUAGE", "ar"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnv("SMTP_PORT", "587"),
			Email:    getEnv("SMTP_EMAIL", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			AlertTo:  getEnv("SMTP_ALERT_TO", ""),
		},
		Operator: OperatorConfig{
			Username:     getEnv("OPERATOR_USER", "operator"),
			PasswordHash: getEnv("OPERATOR_PASSWORD_HASH", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key"),
			Expiry: getEnv("JWT_EXPIRY", "24h"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
		GinMode:  getEnv("GIN_MODE", "debug"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func (c *Config) GetDatabaseURL() string {
	return c.buildDatabaseURL()
}

func (c *Config) buildDatabaseURL() string {
	var sb strings.Builder

	sb.WriteString("postgres://")
	sb.WriteString(c.Database.User)
	if c.Database.Password != "" {
		sb.WriteString(":")
		sb.WriteString(c.Database.Password)
	}
	sb.WriteString("@")
	sb.WriteString(c.Database.Host)
	sb.WriteString(":")
	sb.WriteString(c.Database.Port)
	sb.WriteString("/")
	sb.WriteString(c.Database.DBName)

	if c.Database.SSLMode != "" {
		sb.WriteString("?sslmode=")
		sb.WriteString(c.Database.SSLMode)
	}

	return sb.String()
}

func (c *Config) GetCORSOrigins() []string {
	origins := getEnv("CORS_ORIGINS", "http://localhost:3000")
	return strings.Split(origins, ",")
}
