// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxFileSize is the upload ceiling applied before an import source is parsed.
const DefaultMaxFileSize int64 = 5 << 20

// Config holds the application configuration.
type Config struct {
	App         AppConfig
	Logger      LoggerConfig
	Server      ServerConfig
	Store       StoreConfig
	Persistence PersistenceConfig
	Import      ImportConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds admin server configuration.
type ServerConfig struct {
	Port             string        // Server port (default: 8080)
	ReadTimeout      time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout     time.Duration // HTTP write timeout (default: 5m, imports run inside the request)
	IdleTimeout      time.Duration // HTTP idle timeout (default: 60s)
	AllowedOrigins   []string      // CORS origins of the admin panel
	ImportsPerMinute int           // Import uploads per client address (default: 0, unlimited)
	MaxConnections   int           // Concurrent connections accepted (default: 256, 0 for unlimited)
}

// StoreConfig holds the SQLite store configuration.
type StoreConfig struct {
	Path string
}

// PersistenceConfig selects the collection persistence API the import pipeline talks to.
type PersistenceConfig struct {
	// BaseURL of a remote persistence API. Empty means the bundled in-process backend.
	BaseURL string
	// Timeout for a single batch request (default: 30s).
	Timeout time.Duration
	// RequestsPerSecond paces batch requests. Zero disables pacing.
	RequestsPerSecond float64
}

// ImportConfig holds import pipeline tuning.
type ImportConfig struct {
	MaxFileSize      int64  // bytes (default: 5 MiB)
	NativeBatchSize  int    // bookmarks per native batch (default: 50)
	GenericBatchSize int    // bookmarks per generic batch (default: 100)
	NativeMarker     string // metadata.exportedFrom value of native exports (default: Pintree)
}

// Remote reports whether imports go to an external persistence API.
func (p PersistenceConfig) Remote() bool {
	return p.BaseURL != ""
}

// LoadConfig loads configuration from the process command line.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("pintree-admin", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	// Server flags
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 5m)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	allowedOrigins := fs.String("cors-origins", "", "Comma-separated CORS origins for the admin panel")
	importsPerMinute := fs.String("imports-per-minute", "", "Import uploads allowed per client per minute, 0 for unlimited (default: 0)")
	maxConnections := fs.String("max-connections", "", "Concurrent connections accepted, 0 for unlimited (default: 256)")

	databasePath := fs.String("database-path", "", "Path to the SQLite database (default: ~/Pintree/pintree.db)")

	// Persistence flags
	persistenceURL := fs.String("persistence-url", "", "Base URL of a remote persistence API (empty: in-process)")
	persistenceTimeout := fs.String("persistence-timeout", "", "Per-batch request timeout (default: 30s)")
	persistenceRPS := fs.String("persistence-rps", "", "Batch requests per second, 0 for unpaced (default: 0)")

	// Import flags
	maxFileSize := fs.String("import-max-file-size", "", "Largest accepted import file in bytes (default: 5242880)")
	nativeBatchSize := fs.String("import-native-batch-size", "", "Bookmarks per native batch (default: 50)")
	genericBatchSize := fs.String("import-generic-batch-size", "", "Bookmarks per generic batch (default: 100)")
	nativeMarker := fs.String("import-native-marker", "", "metadata.exportedFrom marker of native exports (default: Pintree)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:             getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AllowedOrigins:   splitList(getConfigValue(*allowedOrigins, "CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
			ImportsPerMinute: getIntConfigValue(*importsPerMinute, "SERVER_IMPORTS_PER_MINUTE", 0),
			MaxConnections:   getIntConfigValue(*maxConnections, "SERVER_MAX_CONNECTIONS", 256),
		},
		Store: StoreConfig{
			Path: getConfigValue(*databasePath, "DATABASE_PATH", ""),
		},
		Persistence: PersistenceConfig{
			BaseURL: strings.TrimRight(getConfigValue(*persistenceURL, "PERSISTENCE_URL", ""), "/"),
		},
		Import: ImportConfig{
			MaxFileSize:      getInt64ConfigValue(*maxFileSize, "IMPORT_MAX_FILE_SIZE", DefaultMaxFileSize),
			NativeBatchSize:  getIntConfigValue(*nativeBatchSize, "IMPORT_NATIVE_BATCH_SIZE", 50),
			GenericBatchSize: getIntConfigValue(*genericBatchSize, "IMPORT_GENERIC_BATCH_SIZE", 100),
			NativeMarker:     getConfigValue(*nativeMarker, "IMPORT_NATIVE_MARKER", "Pintree"),
		},
	}

	var err error
	if cfg.Server.ReadTimeout, err = getDurationConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	if cfg.Server.WriteTimeout, err = getDurationConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "5m"); err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	if cfg.Server.IdleTimeout, err = getDurationConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}
	if cfg.Persistence.Timeout, err = getDurationConfigValue(*persistenceTimeout, "PERSISTENCE_TIMEOUT", "30s"); err != nil {
		return nil, fmt.Errorf("invalid persistence timeout: %w", err)
	}

	rpsStr := getConfigValue(*persistenceRPS, "PERSISTENCE_RPS", "0")
	if cfg.Persistence.RequestsPerSecond, err = strconv.ParseFloat(rpsStr, 64); err != nil {
		return nil, fmt.Errorf("invalid persistence rps %q: %w", rpsStr, err)
	}

	if err := cfg.expandStorePath(); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Server.ImportsPerMinute < 0 {
		return errors.New("imports per minute cannot be negative")
	}
	if c.Server.MaxConnections < 0 {
		return errors.New("max connections cannot be negative")
	}

	if c.Store.Path == "" && !c.Persistence.Remote() {
		return errors.New("database path cannot be empty when using the in-process backend")
	}

	if c.Persistence.Remote() {
		u, err := url.Parse(c.Persistence.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid persistence url: %q", c.Persistence.BaseURL)
		}
	}
	if c.Persistence.RequestsPerSecond < 0 {
		return errors.New("persistence rps cannot be negative")
	}

	if c.Import.MaxFileSize <= 0 {
		return errors.New("import max file size must be positive")
	}
	if c.Import.NativeBatchSize <= 0 || c.Import.GenericBatchSize <= 0 {
		return errors.New("import batch sizes must be positive")
	}
	if c.Import.NativeMarker == "" {
		return errors.New("import native marker cannot be empty")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandStorePath defaults the database to ~/Pintree/pintree.db.
func (c *Config) expandStorePath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	expanded, err := expandPath(c.Store.Path, filepath.Join(homeDir, "Pintree", "pintree.db"))
	if err != nil {
		return err
	}
	c.Store.Path = expanded
	return nil
}

// EnvOr returns the environment variable key, or def when it is unset.
// Used by the CLI to seed flag defaults.
func EnvOr(key, def string) string {
	return getConfigValue("", key, def)
}

// EnvIntOr is EnvOr for integer settings.
func EnvIntOr(key string, def int) int {
	return getIntConfigValue("", key, def)
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getInt64ConfigValue returns an int64 from flag, env var, or default.
func getInt64ConfigValue(flagValue, envKey string, defaultValue int64) int64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseInt(strValue, 10, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", envKey, strValue, err)
	}
	return d, nil
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Existing env vars take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
