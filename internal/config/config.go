package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	Terminology TerminologyConfig
	Graph       GraphConfig
	Index       IndexConfig
	Resolver    ResolverConfig
	Cache       CacheConfig
	Logging     LoggingConfig
}

// TerminologyConfig describes the terminology REST endpoint.
type TerminologyConfig struct {
	BaseURL     string
	APIKey      string
	PageSize    int
	MaxPages    int
	HTTPTimeout time.Duration
}

// GraphConfig describes connectivity to the knowledge graph (Neo4j/Bolt).
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// IndexConfig locates the on-disk vector index arrays.
type IndexConfig struct {
	VectorsPath string
	NodeIDsPath string
}

// ResolverConfig holds the decision-procedure knobs.
type ResolverConfig struct {
	HopCount           int
	TopN               int
	MaxConcepts        int
	AdmissionThreshold float64
}

// CacheConfig controls the optional persistent definitions cache.
type CacheConfig struct {
	Path string // libsql file path; empty disables persistence
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level  string
	Format string // text|json
}

const (
	defaultPageSize    = 25
	defaultMaxPages    = 5
	defaultHTTPTimeout = 30 * time.Second
	defaultHopCount    = 1
	defaultTopN        = 5
	defaultMaxConcepts = 1
	defaultThreshold   = 0.9
	defaultMaxSessions = 10
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Terminology: TerminologyConfig{
			BaseURL:     valueOrDefault("MEDKB_TERMINOLOGY_URL", "https://uts-ws.nlm.nih.gov/rest"),
			APIKey:      os.Getenv("MEDKB_TERMINOLOGY_API_KEY"),
			PageSize:    parseIntWithDefault("MEDKB_TERMINOLOGY_PAGE_SIZE", defaultPageSize),
			MaxPages:    parseIntWithDefault("MEDKB_TERMINOLOGY_MAX_PAGES", defaultMaxPages),
			HTTPTimeout: defaultHTTPTimeout,
		},
		Graph: GraphConfig{
			URI:            os.Getenv("MEDKB_GRAPH_URI"),
			Database:       valueOrDefault("MEDKB_GRAPH_DATABASE", ""),
			Username:       os.Getenv("MEDKB_GRAPH_USERNAME"),
			Password:       os.Getenv("MEDKB_GRAPH_PASSWORD"),
			MaxConnections: parseIntWithDefault("MEDKB_GRAPH_MAX_CONNECTIONS", defaultMaxSessions),
		},
		Index: IndexConfig{
			VectorsPath: os.Getenv("MEDKB_INDEX_VECTORS"),
			NodeIDsPath: os.Getenv("MEDKB_INDEX_NODE_IDS"),
		},
		Resolver: ResolverConfig{
			HopCount:           parseIntWithDefault("MEDKB_HOP_COUNT", defaultHopCount),
			TopN:               parseIntWithDefault("MEDKB_TOP_N", defaultTopN),
			MaxConcepts:        parseIntWithDefault("MEDKB_MAX_CONCEPTS", defaultMaxConcepts),
			AdmissionThreshold: parseFloatWithDefault("MEDKB_ADMISSION_THRESHOLD", defaultThreshold),
		},
		Cache: CacheConfig{
			Path: os.Getenv("MEDKB_CACHE_PATH"),
		},
		Logging: LoggingConfig{
			Level:  valueOrDefault("LOG_LEVEL", "info"),
			Format: valueOrDefault("LOG_FORMAT", "text"),
		},
	}

	if v := os.Getenv("MEDKB_TERMINOLOGY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MEDKB_TERMINOLOGY_TIMEOUT: %w", err)
		}
		cfg.Terminology.HTTPTimeout = d
	}

	if cfg.Resolver.HopCount < 1 {
		return Config{}, fmt.Errorf("hop count must be >= 1, got %d", cfg.Resolver.HopCount)
	}
	if cfg.Resolver.TopN < 1 {
		return Config{}, fmt.Errorf("top-n must be >= 1, got %d", cfg.Resolver.TopN)
	}

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseFloatWithDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			return val
		}
	}
	return fallback
}
