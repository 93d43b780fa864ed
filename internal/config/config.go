package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the finalize server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// PDF configuration
	PDFDirectory string
	MaxFileSize  int64 // Maximum PDF file size in bytes

	// Pipeline configuration
	Strict     bool   // strict mode nulls ambiguous or colliding values
	CatalogDir string // directory holding the YAML/XLSX reference catalogs

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:         ModeStdio, // Default to stdio mode for MCP compatibility
		Host:         DefaultHost,
		Port:         DefaultPort,
		PDFDirectory: currentDir,
		MaxFileSize:  DefaultMaxFileSize,
		Strict:       false,
		CatalogDir:   "",
		Version:      "1.0.0",
		ServerName:   "operpdf-server",
		LogLevel:     DefaultLogLevel,
	}
}

// SignaturePatternsPath returns the signature catalog file inside CatalogDir,
// or empty when no catalog directory is configured.
func (c *Config) SignaturePatternsPath() string {
	return c.catalogFile("signature.yml")
}

// ExpertCatalogPath returns the expert registry file inside CatalogDir.
func (c *Config) ExpertCatalogPath() string {
	return c.catalogFile("peritos.yml")
}

// TemplatesPath returns the field template catalog file inside CatalogDir.
func (c *Config) TemplatesPath() string {
	return c.catalogFile("templates.yml")
}

// StrategiesPath returns the strategy rule catalog file inside CatalogDir.
func (c *Config) StrategiesPath() string {
	return c.catalogFile("strategies.yml")
}

// FeeTablePath returns the fee workbook inside CatalogDir.
func (c *Config) FeeTablePath() string {
	return c.catalogFile("honorarios.xlsx")
}

func (c *Config) catalogFile(name string) string {
	if c.CatalogDir == "" {
		return ""
	}
	return filepath.Join(c.CatalogDir, name)
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}
	if cfg.CatalogDir != "" {
		if expandedPath, err := filepath.Abs(cfg.CatalogDir); err == nil {
			cfg.CatalogDir = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("OPERPDF")
	viper.AutomaticEnv()

	// Define flags with Viper
	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("strict", cfg.Strict)
	viper.SetDefault("catalogdir", cfg.CatalogDir)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing PDF bundles")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.Bool("strict", cfg.Strict, "Null ambiguous or colliding values instead of keeping the best ranked one")
	pflag.String("catalogdir", cfg.CatalogDir, "Directory holding the reference catalogs (signature.yml, peritos.yml, templates.yml, strategies.yml, honorarios.xlsx)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("dir", pflag.Lookup("dir"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
	_ = viper.BindPFlag("strict", pflag.Lookup("strict"))
	_ = viper.BindPFlag("catalogdir", pflag.Lookup("catalogdir"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOperPDF Finalize - court bundle segmentation and field resolution server\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs --strict             "+
			"# stdio mode, strict resolution\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --catalogdir=/etc/operpdf  "+
			"# server mode with catalogs\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  OPERPDF_MODE         Server mode\n")
		fmt.Fprintf(os.Stderr, "  OPERPDF_HOST         Server host\n")
		fmt.Fprintf(os.Stderr, "  OPERPDF_PORT         Server port\n")
		fmt.Fprintf(os.Stderr, "  OPERPDF_DIR          PDF directory\n")
		fmt.Fprintf(os.Stderr, "  OPERPDF_LOGLEVEL     Log level\n")
		fmt.Fprintf(os.Stderr, "  OPERPDF_MAXFILESIZE  Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  OPERPDF_STRICT       Strict resolution mode\n")
		fmt.Fprintf(os.Stderr, "  OPERPDF_CATALOGDIR   Catalog directory\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Strict = viper.GetBool("strict")
	cfg.CatalogDir = viper.GetString("catalogdir")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate PDF directory
	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	// The catalog directory is optional but must exist when set
	if c.CatalogDir != "" {
		if _, err := os.Stat(c.CatalogDir); err != nil {
			return fmt.Errorf("cannot access catalog directory %s: %w", c.CatalogDir, err)
		}
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, MaxFileSize: %d, Strict: %t, CatalogDir: %s}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel, c.MaxFileSize, c.Strict, c.CatalogDir)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
