package main

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration, read from the environment once
// in main and passed explicitly to the components that need it.
type Config struct {
	Port string

	// Source listing
	ListingURL       string
	FeedURL          string
	DiscoveryTimeout time.Duration

	// Document fetch
	DownloadDir  string
	FetchTimeout time.Duration

	// Generation engine
	CohereAPIKey string
	CohereModel  string

	// Record store
	MongoURI      string
	MongoDatabase string
	CircularsColl string
	PoliciesColl  string

	// Report cache (optional)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ReportTTL     time.Duration

	// PDF archive (optional)
	S3Bucket       string
	S3Prefix       string
	S3Region       string
	S3Profile      string
	S3UsePathStyle bool

	// Event publication (optional)
	KafkaBrokers []string
	KafkaTopic   string
}

// LoadConfig reads the environment with defaults for everything that
// has a sensible one.
func LoadConfig() Config {
	cfg := Config{
		Port:             GetEnvOrDefault("PORT", "8080"),
		ListingURL:       os.Getenv("RBI_LISTING_URL"),
		FeedURL:          os.Getenv("RBI_FEED_URL"),
		DiscoveryTimeout: getEnvDuration("DISCOVERY_TIMEOUT_SECONDS", 30*time.Second),
		DownloadDir:      GetEnvOrDefault("DOWNLOAD_DIR", os.TempDir()),
		FetchTimeout:     getEnvDuration("FETCH_TIMEOUT_SECONDS", 60*time.Second),
		CohereAPIKey:     os.Getenv("COHERE_API_KEY"),
		CohereModel:      os.Getenv("COHERE_MODEL"),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDatabase:    GetEnvOrDefault("MONGO_DATABASE", "rbitracker"),
		CircularsColl:    GetEnvOrDefault("MONGO_CIRCULARS_COLLECTION", "circulars"),
		PoliciesColl:     GetEnvOrDefault("MONGO_POLICIES_COLLECTION", "company_policies"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASS"),
		ReportTTL:        getEnvDuration("REPORT_TTL_SECONDS", 7*24*time.Hour),
		S3Bucket:         strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Prefix:         strings.TrimSpace(os.Getenv("S3_PREFIX")),
		S3Region:         strings.TrimSpace(os.Getenv("S3_REGION")),
		S3Profile:        strings.TrimSpace(os.Getenv("S3_PROFILE")),
		S3UsePathStyle:   strings.EqualFold(strings.TrimSpace(os.Getenv("S3_USE_PATH_STYLE")), "true"),
		KafkaTopic:       GetEnvOrDefault("KAFKA_TOPIC", "circulars.stored"),
	}

	if db := os.Getenv("REDIS_DB"); db != "" {
		if v, err := strconv.Atoi(db); err == nil {
			cfg.RedisDB = v
		}
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

// GetEnvOrDefault returns the env value or a default when unset.
func GetEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}
