package config

import (
	"os"
	"strconv"
	"time"

	apperr "aspingest/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Postgres configuration
	DatabaseURL string
	DBMaxConns  int

	// Redis configuration (ingest summary stream)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Memcache configuration (per-site block cache)
	MemcacheAddr string

	// Trigger server
	ListenAddr      string
	CronBearerToken string
	DevCronSecret   string

	// Worker configuration
	CrawlInterval  time.Duration
	DefaultLimit   int
	RequestsPerSec float64
	RequestBurst   float64

	// Listing URLs / endpoints for the source adapters
	CaribbeancomURL   string
	CaribbeancomPRURL string
	OnePondoURL       string
	TokyoHotURL       string
	B10FURL           string
	SokmilURL         string
	JapanskaURL       string
	HeydougaURL       string
	MGSAPIURL         string
	DUGACSVURL        string
	FC2APIURL         string

	// Performer alias enrichment
	WikiLookupURL string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	streamMaxLen, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAXLEN", "500"))
	crawlInterval, _ := strconv.Atoi(getEnv("CRAWL_INTERVAL_SECONDS", "0"))
	defaultLimit, _ := strconv.Atoi(getEnv("CRAWL_DEFAULT_LIMIT", "50"))
	dbMaxConns, _ := strconv.Atoi(getEnv("DB_MAX_CONNS", "4"))
	rps, _ := strconv.ParseFloat(getEnv("REQUEST_RPS", "1"), 64)
	burst, _ := strconv.ParseFloat(getEnv("REQUEST_BURST", "3"), 64)

	return Config{
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		DBMaxConns:           dbMaxConns,
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "ingest-summaries"),
		RedisStreamMaxLength: streamMaxLen,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		ListenAddr:           getEnv("LISTEN_ADDR", ":8080"),
		CronBearerToken:      getEnv("CRON_BEARER_TOKEN", ""),
		DevCronSecret:        getEnv("DEV_CRON_SECRET", ""),
		CrawlInterval:        time.Duration(crawlInterval) * time.Second,
		DefaultLimit:         defaultLimit,
		RequestsPerSec:       rps,
		RequestBurst:         burst,
		CaribbeancomURL:      getEnv("CARIBBEANCOM_URL", "https://www.caribbeancom.com/listpages/all%d.htm"),
		CaribbeancomPRURL:    getEnv("CARIBBEANCOMPR_URL", "https://www.caribbeancompr.com/listpages/all%d.htm"),
		OnePondoURL:          getEnv("ONEPONDO_URL", "https://www.1pondo.tv/listpages/all%d.htm"),
		TokyoHotURL:          getEnv("TOKYOHOT_URL", "https://my.tokyo-hot.com/product/?order=-released"),
		B10FURL:              getEnv("B10F_URL", "https://b10f.jp/products/list.php"),
		SokmilURL:            getEnv("SOKMIL_URL", "https://www.sokmil.com/av/list/"),
		JapanskaURL:          getEnv("JAPANSKA_URL", "https://www.japanska.tv/newlist/"),
		HeydougaURL:          getEnv("HEYDOUGA_URL", "https://www.heydouga.com/listpages/all%d.html"),
		MGSAPIURL:            getEnv("MGS_API_URL", "https://www.mgstage.com/api/n/search/index.php"),
		DUGACSVURL:           getEnv("DUGA_CSV_URL", "https://affapi.duga.jp/search/csv"),
		FC2APIURL:            getEnv("FC2_API_URL", "https://adult.contents.fc2.com/api/v2/contents/recent"),
		WikiLookupURL:        getEnv("WIKI_LOOKUP_URL", "https://www.av-wiki.net"),
		Environment:          getEnv("ASPINGEST_ENVIRONMENT", "development"),
	}
}

// Validate checks that required settings are present
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return apperr.NewConfiguration("DATABASE_URL is required", nil)
	}
	if c.Environment == "production" && c.CronBearerToken == "" {
		return apperr.NewConfiguration("CRON_BEARER_TOKEN is required in production", nil)
	}
	if c.RequestsPerSec <= 0 {
		return apperr.NewConfiguration("REQUEST_RPS must be positive", nil)
	}
	return nil
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
