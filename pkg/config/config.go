package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wbnlp/docmap/pkg/colorscale"
	"github.com/wbnlp/docmap/pkg/mapstyle"
)

const (
	// Logging defaults
	ConstantLogDir      = "/var/log"
	ConstantLogFilename = "docmap.log"
	ConstantLogFile     = ConstantLogDir + "/" + ConstantLogFilename

	ConstantConfigFilename = "/etc/default/docmap"

	// Service defaults
	DefaultServicePort         = 8246
	DefaultServiceHost         = "127.0.0.1"
	DefaultInsecureAllowRemote = false

	// logger
	DefaultLogLevel = "info"

	// Map defaults
	DefaultColorScale    = "documents"
	DefaultDynamicColors = true
	DefaultSortYears     = false
	DefaultTrend         = false

	// Source defaults. The service reads local sources below the source root
	// only and fetches remote sources from listed hosts only.
	DefaultFetchTimeout = 30 * time.Second
	DefaultSQLTable     = "document_counts"
	DefaultSourceRoot   = "/var/lib/docmap"

	// Cache defaults. An empty redis address or a zero TTL disables the cache.
	DefaultRedisDB  = 0
	DefaultCacheTTL = 5 * time.Minute
)

type Config struct {
	ServiceHost         string
	ServicePort         int
	InsecureAllowRemote bool
	LogLevel            string
	LogFile             string

	// ThemeFile is a YAML theme. Empty uses the built-in theme.
	ThemeFile string
	// ColorScale names a built-in scale or mapstyle.ThemeScale.
	ColorScale    string
	DynamicColors bool
	SortYears     bool
	Trend         bool

	FetchTimeout time.Duration
	SQLTable     string
	XLSXSheet    string
	// SourceRoot confines local sources of the service. Empty disables them.
	SourceRoot string
	// SourceHosts lists the hosts the service may fetch from.
	SourceHosts []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	CORSOrigins []string
}

func (c *Config) Validate() error {
	if c.ServicePort < 1 || c.ServicePort > 65535 {
		return fmt.Errorf("invalid port %d", c.ServicePort)
	}
	if c.ColorScale != mapstyle.ThemeScale {
		if _, err := colorscale.Named(c.ColorScale); err != nil {
			return fmt.Errorf("invalid color scale: %w (known: %s, %s)",
				err, strings.Join(colorscale.Names(), ", "), mapstyle.ThemeScale)
		}
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("invalid fetch timeout %s", c.FetchTimeout)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid cache TTL %s", c.CacheTTL)
	}

	if !isLocalhostAddr(c.ServiceHost) {
		if !c.InsecureAllowRemote {
			return fmt.Errorf(`binding to non-localhost address %q exposes an unauthenticated API.

This service has no authentication. Binding to a network-accessible address
allows any host on the network to make the service fetch arbitrary sources
and open local files.

If you understand the risks and want to proceed anyway, use:
    --insecure-allow-remote
    or set DOCMAP_INSECURE_ALLOW_REMOTE=true`, c.ServiceHost)
		}
		fmt.Fprintf(os.Stderr, "WARNING: Binding to %q - unauthenticated API will be network-accessible!\n", c.ServiceHost)
	}
	return nil
}

func isLocalhostAddr(host string) bool {
	switch host {
	case "127.0.0.1", "localhost", "::1", "":
		return true
	}
	return false
}

func Load(filename string) *Config {
	if filename == "" {
		filename = ConstantConfigFilename
	}
	_ = godotenv.Load(filename)

	return &Config{
		ServiceHost:         getEnv("DOCMAP_HOST", DefaultServiceHost),
		ServicePort:         getEnvInt("DOCMAP_PORT", DefaultServicePort),
		InsecureAllowRemote: getEnvBool("DOCMAP_INSECURE_ALLOW_REMOTE", DefaultInsecureAllowRemote),
		LogLevel:            getEnv("DOCMAP_LOG_LEVEL", DefaultLogLevel),
		LogFile:             getEnv("DOCMAP_LOG_FILE", ConstantLogFile),
		ThemeFile:           getEnv("DOCMAP_THEME_FILE", ""),
		ColorScale:          getEnv("DOCMAP_COLOR_SCALE", DefaultColorScale),
		DynamicColors:       getEnvBool("DOCMAP_DYNAMIC_COLORS", DefaultDynamicColors),
		SortYears:           getEnvBool("DOCMAP_SORT_YEARS", DefaultSortYears),
		Trend:               getEnvBool("DOCMAP_TREND", DefaultTrend),
		FetchTimeout:        getEnvDuration("DOCMAP_FETCH_TIMEOUT", DefaultFetchTimeout),
		SQLTable:            getEnv("DOCMAP_SQL_TABLE", DefaultSQLTable),
		XLSXSheet:           getEnv("DOCMAP_XLSX_SHEET", ""),
		SourceRoot:          getEnv("DOCMAP_SOURCE_ROOT", DefaultSourceRoot),
		SourceHosts:         getEnvList("DOCMAP_SOURCE_HOSTS", nil),
		RedisAddr:           getEnv("DOCMAP_REDIS_ADDR", ""),
		RedisPassword:       getEnv("DOCMAP_REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("DOCMAP_REDIS_DB", DefaultRedisDB),
		CacheTTL:            getEnvDuration("DOCMAP_CACHE_TTL", DefaultCacheTTL),
		CORSOrigins:         getEnvList("DOCMAP_CORS_ORIGINS", nil),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s") and plain seconds ("90").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if s, err := strconv.Atoi(value); err == nil {
		return time.Duration(s) * time.Second
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
