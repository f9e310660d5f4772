package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string

	CatalogSource  string // sqlite, http or file
	DBPath         string
	MigrationsPath string
	BooksURL       string
	BooksFile      string

	CartStorage   string // memory, redis or mongo
	ShopperID     string
	RedisAddr     string
	RedisPassword string
	MongoURI      string
	MongoDBName   string

	KafkaBrokers []string

	ToastPersist time.Duration
	ToastFade    time.Duration
}

func Load() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        getEnv("LOG_LEVEL", "info"),

		CatalogSource:  getEnv("CATALOG_SOURCE", "sqlite"),
		DBPath:         getEnv("DB_PATH", "./bookshop.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "internal/repository/migrations"),
		BooksURL:       getEnv("BOOKS_URL", "http://localhost:3000/books.json"),
		BooksFile:      getEnv("BOOKS_FILE", "./books.json"),

		CartStorage:   getEnv("CART_STORAGE", "memory"),
		ShopperID:     getEnv("SHOPPER_ID", "guest"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:   getEnv("MONGO_DB_NAME", "bookshop"),

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),

		ToastPersist: getDuration("TOAST_PERSIST", 2500*time.Millisecond),
		ToastFade:    getDuration("TOAST_FADE", 500*time.Millisecond),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration accepts Go duration syntax; invalid values fall back to the default.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
