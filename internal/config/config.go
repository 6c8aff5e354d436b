package config

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"golang.org/x/crypto/bcrypt"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
}

type GitHubOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type Config struct {
	DBURL       string
	Port        string
	Environment string

	JWTSecret        string
	JWTExpireMinutes int
	BcryptCost       int

	GitHubToken  string
	OpenAIKey    string
	OpenAIModel  string
	RedisAddr    string
	MediaRoot    string
	TemplatesDir string

	// "local" or "r2"
	StorageBackend string
	R2             R2Config

	OAuth      GitHubOAuthConfig
	CorsConfig cors.Options
}

// Load reads .env (if present) and the process environment into a Config.
// The result is built once in main and passed down; nothing in this package
// keeps global state.
func Load() *Config {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("No", envFile, "file found")
	}

	return &Config{
		DBURL:       getEnv("DB_URL", ""),
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		JWTSecret:        getEnv("JWT_SECRET", "not-so-secret-now-is-it?"),
		JWTExpireMinutes: getEnvInt("JWT_EXPIRE_MINUTES", 15),
		BcryptCost:       getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),

		GitHubToken:  getEnv("GITHUB_TOKEN", ""),
		OpenAIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o"),
		RedisAddr:    getEnv("REDIS_ADDR", ""),
		MediaRoot:    getEnv("MEDIA_ROOT", "media"),
		TemplatesDir: getEnv("TEMPLATES_DIR", "templates"),

		StorageBackend: getEnv("STORAGE_BACKEND", "local"),
		R2: R2Config{
			AccountID:       getEnv("R2_ACCOUNT_ID", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			BucketName:      getEnv("R2_BUCKET_NAME", ""),
			Region:          getEnv("R2_REGION", "auto"),
		},

		OAuth: GitHubOAuthConfig{
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GITHUB_REDIRECT_URL", "http://localhost:8080/auth/github/callback"),
		},

		CorsConfig: CorsConfig(),
	}
}

// Gets the env by key or fallbacks
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func CorsConfig() cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
}
