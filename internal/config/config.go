package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env            string
	Port           string
	DatabaseURL    string
	MigrateOnStart bool
	AppURL         string
	APIURL         string
	AllowedOrigins []string

	JWTSecret  string
	CronSecret string

	ClerkSecretKey     string
	ClerkWebhookSecret string

	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string

	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string

	ResendAPIKey string
	EmailFrom    string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string
	FCMCredentials  string
	FCMKeyFile      string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	MetricsUser string
	MetricsPass string

	Weights            ScoreWeights
	RefreshConcurrency int
	SchedulerEnabled   bool
	SchedulerInterval  time.Duration
}

// ScoreWeights scales each platform's points before they are summed.
type ScoreWeights struct {
	LeetCode   float64
	HackerRank float64
	GFG        float64
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "3333"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrateOnStart: getBool("MIGRATE_ON_START", false),
		AppURL:         strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
		AllowedOrigins: getList("ALLOWED_ORIGINS", []string{"*"}),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		CronSecret: os.Getenv("CRON_SECRET"),

		ClerkSecretKey:     os.Getenv("CLERK_SECRET_KEY"),
		ClerkWebhookSecret: os.Getenv("CLERK_WEBHOOK_SECRET"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),

		RedisURL:     os.Getenv("REDIS_URL"),
		KafkaBrokers: getList("KAFKA_BROKERS", nil),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "campus-rank.leaderboard"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    getEnv("EMAIL_FROM", "Campus Rank <noreply@campusrank.dev>"),

		VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
		VAPIDSubject:    getEnv("VAPID_SUBJECT", "mailto:admin@campusrank.dev"),
		FCMCredentials:  os.Getenv("FCM_SERVICE_ACCOUNT_JSON"),
		FCMKeyFile:      getEnv("FCM_KEY_FILE", "./serviceAccountKey.json"),

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),

		MetricsUser: os.Getenv("METRICS_USER"),
		MetricsPass: os.Getenv("METRICS_PASS"),

		Weights: ScoreWeights{
			LeetCode:   getFloat("WEIGHT_LEETCODE", 1),
			HackerRank: getFloat("WEIGHT_HACKERRANK", 1),
			GFG:        getFloat("WEIGHT_GFG", 1),
		},
		RefreshConcurrency: getInt("REFRESH_CONCURRENCY", 3),
		SchedulerEnabled:   getBool("SCHEDULER_ENABLED", false),
		SchedulerInterval:  getDuration("SCHEDULER_INTERVAL", 6*time.Hour),
	}

	cfg.APIURL = strings.TrimRight(getEnv("API_URL", "http://localhost:"+cfg.Port), "/")

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if len(cfg.JWTSecret) < 16 {
		return nil, fmt.Errorf("JWT_SECRET environment variable must be at least 16 characters")
	}
	if cfg.RefreshConcurrency < 1 {
		cfg.RefreshConcurrency = 1
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
