package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server settings. Values are read from the environment
// once at startup and are read-only afterwards.
type Config struct {
	Host        string
	Port        int
	SSEPath     string
	MessagePath string
	CORSOrigins []string

	Headless       bool
	NoSandbox      bool
	BrowserTimeout time.Duration
	SlowMotion     time.Duration

	DownloadDir  string
	URLAllowlist []string
	AllowPrivate bool

	LogLevel string
	LogJSON  bool
}

// Load reads .env (if present) and builds the configuration from the
// environment. Missing or malformed values fall back to defaults.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Info: no .env file found (this is OK for CI/CD)")
	}

	return &Config{
		Host:        getString("MCP_HOST", "127.0.0.1"),
		Port:        getInt("MCP_PORT", 3333),
		SSEPath:     getString("MCP_SSE_PATH", "/sse"),
		MessagePath: getString("MCP_MESSAGE_PATH", "/message"),
		CORSOrigins: getList("MCP_CORS_ORIGINS", []string{"http://127.0.0.1", "http://localhost"}),

		Headless:       getBool("BROWSER_HEADLESS", true),
		NoSandbox:      getBool("BROWSER_NO_SANDBOX", false),
		BrowserTimeout: time.Duration(getInt("BROWSER_TIMEOUT_SECONDS", 10)) * time.Second,
		SlowMotion:     time.Duration(getInt("BROWSER_SLOW_MOTION_MS", 0)) * time.Millisecond,

		DownloadDir:  getString("DOWNLOAD_DIR", ".data/downloads"),
		URLAllowlist: getList("URL_ALLOWLIST", nil),
		AllowPrivate: getBool("URL_ALLOW_PRIVATE", false),

		LogLevel: getString("LOG_LEVEL", "info"),
		LogJSON:  getBool("LOG_JSON", false),
	}
}

func getString(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}

func getBool(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getList(key string, defaultValue []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
