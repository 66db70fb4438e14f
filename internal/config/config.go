// Package config provides configuration management for the navcam agent.
// Configuration is loaded from environment variables with sensible
// defaults; external tool locations can additionally come from a TOML
// tools file so nothing depends on ambient PATH mutation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	// Default values
	DefaultPort      = 8980
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultDataDir   = ".navcam"

	// Environment variable names
	EnvPort      = "NAVCAM_PORT"
	EnvLogLevel  = "NAVCAM_LOG_LEVEL"
	EnvLogFormat = "NAVCAM_LOG_FORMAT"
	EnvDataDir   = "NAVCAM_DATA_DIR"

	// Tool environment variable names
	EnvSbet2TxtBin = "NAVCAM_SBET2TXT_BIN"
	EnvNav2CamBin  = "NAVCAM_NAV2CAM_BIN"
	EnvOrbitvizBin = "NAVCAM_ORBITVIZ_BIN"
	EnvToolsConfig = "NAVCAM_TOOLS_CONFIG"
	EnvBatchMarker = "NAVCAM_BATCH_ENV"

	// Database filename
	DBFilename = "navcam.db"

	// DefaultBatchEnvVar marks distributed-batch execution; when set in the
	// process environment, per-node KML rendering is skipped so parallel
	// workers do not overwrite each other's output.
	DefaultBatchEnvVar = "PBS_NODEFILE"

	// Tool timeout defaults (seconds)
	DefaultConvertTimeout  = 600
	DefaultGenerateTimeout = 7200
	DefaultKMLTimeout      = 600
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	LogFormat() string
	DataDir() string
	DBPath() string
	Sbet2TxtPath() string
	Nav2CamPath() string
	OrbitvizPath() string
	ConvertTimeout() time.Duration
	GenerateTimeout() time.Duration
	KMLTimeout() time.Duration
	BatchEnvVar() string
	DefaultMounting() int
}

// toolsFile is the optional TOML tools configuration.
type toolsFile struct {
	Sbet2Txt        string `toml:"sbet2txt"`
	Nav2Cam         string `toml:"nav2cam"`
	Orbitviz        string `toml:"orbitviz_pinhole"`
	CameraMounting  int    `toml:"camera_mounting"`
	BatchEnvVar     string `toml:"batch_env_var"`
	ConvertTimeout  int    `toml:"convert_timeout_s"`
	GenerateTimeout int    `toml:"generate_timeout_s"`
	KMLTimeout      int    `toml:"kml_timeout_s"`
}

// EnvConfig reads configuration from environment variables, overlaid on
// an optional TOML tools file.
type EnvConfig struct {
	port      int
	logLevel  string
	logFormat string
	dataDir   string

	sbet2txtPath string
	nav2camPath  string
	orbitvizPath string

	batchEnvVar     string
	defaultMounting int

	convertTimeout  time.Duration
	generateTimeout time.Duration
	kmlTimeout      time.Duration
}

// New creates a new EnvConfig. Precedence: defaults, then the TOML tools
// file (if NAVCAM_TOOLS_CONFIG points at one), then environment variables.
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:            DefaultPort,
		logLevel:        DefaultLogLevel,
		logFormat:       DefaultLogFormat,
		dataDir:         defaultDataDir(),
		batchEnvVar:     DefaultBatchEnvVar,
		convertTimeout:  DefaultConvertTimeout * time.Second,
		generateTimeout: DefaultGenerateTimeout * time.Second,
		kmlTimeout:      DefaultKMLTimeout * time.Second,
	}

	if path := os.Getenv(EnvToolsConfig); path != "" {
		if err := cfg.loadToolsFile(path); err != nil {
			return nil, err
		}
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}
	if lf := os.Getenv(EnvLogFormat); lf != "" {
		cfg.logFormat = lf
	}
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if bin := os.Getenv(EnvSbet2TxtBin); bin != "" {
		cfg.sbet2txtPath = bin
	}
	if bin := os.Getenv(EnvNav2CamBin); bin != "" {
		cfg.nav2camPath = bin
	}
	if bin := os.Getenv(EnvOrbitvizBin); bin != "" {
		cfg.orbitvizPath = bin
	}
	if marker := os.Getenv(EnvBatchMarker); marker != "" {
		cfg.batchEnvVar = marker
	}

	return cfg, nil
}

func (c *EnvConfig) loadToolsFile(path string) error {
	var tf toolsFile
	meta, err := toml.DecodeFile(path, &tf)
	if err != nil {
		return fmt.Errorf("cannot load tools config %s: %w", path, err)
	}

	c.sbet2txtPath = tf.Sbet2Txt
	c.nav2camPath = tf.Nav2Cam
	c.orbitvizPath = tf.Orbitviz

	if meta.IsDefined("camera_mounting") {
		if tf.CameraMounting < 0 || tf.CameraMounting > 3 {
			return fmt.Errorf("tools config %s: camera_mounting must be 0-3, got %d", path, tf.CameraMounting)
		}
		c.defaultMounting = tf.CameraMounting
	}
	if tf.BatchEnvVar != "" {
		c.batchEnvVar = tf.BatchEnvVar
	}
	if tf.ConvertTimeout > 0 {
		c.convertTimeout = time.Duration(tf.ConvertTimeout) * time.Second
	}
	if tf.GenerateTimeout > 0 {
		c.generateTimeout = time.Duration(tf.GenerateTimeout) * time.Second
	}
	if tf.KMLTimeout > 0 {
		c.kmlTimeout = time.Duration(tf.KMLTimeout) * time.Second
	}
	return nil
}

// Port returns the HTTP status server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// LogFormat returns the log format (json, console)
func (c *EnvConfig) LogFormat() string {
	return c.logFormat
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

func (c *EnvConfig) Sbet2TxtPath() string {
	return c.sbet2txtPath
}

func (c *EnvConfig) Nav2CamPath() string {
	return c.nav2camPath
}

func (c *EnvConfig) OrbitvizPath() string {
	return c.orbitvizPath
}

func (c *EnvConfig) ConvertTimeout() time.Duration {
	return c.convertTimeout
}

func (c *EnvConfig) GenerateTimeout() time.Duration {
	return c.generateTimeout
}

func (c *EnvConfig) KMLTimeout() time.Duration {
	return c.kmlTimeout
}

func (c *EnvConfig) BatchEnvVar() string {
	return c.batchEnvVar
}

func (c *EnvConfig) DefaultMounting() int {
	return c.defaultMounting
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
