package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mantonx/mediacatalog/internal/logger"
	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	Server    ServerConfig       `yaml:"server" json:"server"`
	Database  DatabaseFullConfig `yaml:"database" json:"database"`
	Auth      AuthConfig         `yaml:"auth" json:"auth"`
	Gate      GateConfig         `yaml:"gate" json:"gate"`
	Uploads   UploadConfig       `yaml:"uploads" json:"uploads"`
	Import    ImportConfig       `yaml:"import" json:"import"`
	Logging   LoggingConfig      `yaml:"logging" json:"logging"`
	Security  SecurityConfig     `yaml:"security" json:"security"`
	Reporting ReportingConfig    `yaml:"reporting" json:"reporting"`
	Links     LinksConfig        `yaml:"links" json:"links"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host            string        `yaml:"host" json:"host" env:"MEDIACATALOG_HOST" default:"0.0.0.0"`
	Port            int           `yaml:"port" json:"port" env:"MEDIACATALOG_PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout" env:"MEDIACATALOG_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout" env:"MEDIACATALOG_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" env:"MEDIACATALOG_SHUTDOWN_TIMEOUT" default:"10s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" json:"max_header_bytes" env:"MEDIACATALOG_MAX_HEADER_BYTES" default:"1048576"`
	EnableCORS      bool          `yaml:"enable_cors" json:"enable_cors" env:"MEDIACATALOG_ENABLE_CORS" default:"true"`
	TrustedProxies  []string      `yaml:"trusted_proxies" json:"trusted_proxies" env:"MEDIACATALOG_TRUSTED_PROXIES"`
	ReleaseMode     bool          `yaml:"release_mode" json:"release_mode" env:"MEDIACATALOG_RELEASE_MODE" default:"false"`
}

// DatabaseFullConfig holds connection and pool settings
type DatabaseFullConfig struct {
	Type            string        `yaml:"type" json:"type" env:"DATABASE_TYPE" default:"sqlite"`
	URL             string        `yaml:"url" json:"-" env:"DATABASE_URL"`
	Host            string        `yaml:"host" json:"host" env:"POSTGRES_HOST" default:"localhost"`
	Port            int           `yaml:"port" json:"port" env:"POSTGRES_PORT" default:"5432"`
	Username        string        `yaml:"username" json:"username" env:"POSTGRES_USER" default:"mediacatalog"`
	Password        string        `yaml:"password" json:"-" env:"POSTGRES_PASSWORD"`
	Database        string        `yaml:"database" json:"database" env:"POSTGRES_DB" default:"mediacatalog"`
	SSLMode         string        `yaml:"ssl_mode" json:"ssl_mode" env:"POSTGRES_SSLMODE" default:"disable"`
	DataDir         string        `yaml:"data_dir" json:"data_dir" env:"MEDIACATALOG_DATA_DIR" default:"./data"`
	DatabasePath    string        `yaml:"database_path" json:"database_path" env:"MEDIACATALOG_DATABASE_PATH"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns" env:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME" default:"15m"`
	LogQueries      bool          `yaml:"log_queries" json:"log_queries" env:"DB_LOG_QUERIES" default:"false"`
}

// AuthConfig holds session and identity settings
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret" json:"-" env:"MEDIACATALOG_JWT_SECRET"`
	SessionTimeout time.Duration `yaml:"session_timeout" json:"session_timeout" env:"MEDIACATALOG_SESSION_TIMEOUT" default:"720h"`
	CookieName     string        `yaml:"cookie_name" json:"cookie_name" env:"MEDIACATALOG_SESSION_COOKIE" default:"mediacatalog_session"`
	SecureCookie   bool          `yaml:"secure_cookie" json:"secure_cookie" env:"MEDIACATALOG_SECURE_COOKIE" default:"false"`
	// CallbackSecret authenticates the identity provider when it posts a
	// verified identity to /api/auth/signin.
	CallbackSecret string `yaml:"callback_secret" json:"-" env:"MEDIACATALOG_AUTH_CALLBACK_SECRET"`
	// AdminEmails are promoted to ADMIN on sign-in.
	AdminEmails []string `yaml:"admin_emails" json:"admin_emails" env:"MEDIACATALOG_ADMIN_EMAILS"`
}

// GateConfig controls the access-logging and ban gate
type GateConfig struct {
	AdminPrefixes   []string `yaml:"admin_prefixes" json:"admin_prefixes" env:"MEDIACATALOG_GATE_ADMIN_PREFIXES"`
	EditorPrefixes  []string `yaml:"editor_prefixes" json:"editor_prefixes" env:"MEDIACATALOG_GATE_EDITOR_PREFIXES"`
	SkipPrefixes    []string `yaml:"skip_prefixes" json:"skip_prefixes" env:"MEDIACATALOG_GATE_SKIP_PREFIXES"`
	RecorderWorkers int      `yaml:"recorder_workers" json:"recorder_workers" env:"MEDIACATALOG_GATE_WORKERS" default:"2"`
	RecorderQueue   int      `yaml:"recorder_queue" json:"recorder_queue" env:"MEDIACATALOG_GATE_QUEUE" default:"512"`
}

// UploadConfig holds image upload settings
type UploadConfig struct {
	Backend         string   `yaml:"backend" json:"backend" env:"MEDIACATALOG_UPLOAD_BACKEND" default:"local"`
	Bucket          string   `yaml:"bucket" json:"bucket" env:"MEDIACATALOG_UPLOAD_BUCKET"`
	CredentialsFile string   `yaml:"credentials_file" json:"-" env:"GOOGLE_APPLICATION_CREDENTIALS"`
	PublicBaseURL   string   `yaml:"public_base_url" json:"public_base_url" env:"MEDIACATALOG_UPLOAD_PUBLIC_URL"`
	LocalDir        string   `yaml:"local_dir" json:"local_dir" env:"MEDIACATALOG_UPLOAD_DIR"`
	MaxFileSize     int64    `yaml:"max_file_size" json:"max_file_size" env:"MEDIACATALOG_UPLOAD_MAX_SIZE" default:"5242880"`
	AllowedTypes    []string `yaml:"allowed_types" json:"allowed_types" env:"MEDIACATALOG_UPLOAD_TYPES"`
}

// ImportConfig holds channel import settings
type ImportConfig struct {
	FeedURL          string        `yaml:"feed_url" json:"feed_url" env:"MEDIACATALOG_IMPORT_FEED_URL" default:"https://www.youtube.com/feeds/videos.xml"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout" env:"MEDIACATALOG_IMPORT_TIMEOUT" default:"10s"`
	FailureThreshold uint32        `yaml:"failure_threshold" json:"failure_threshold" env:"MEDIACATALOG_IMPORT_FAILURES" default:"3"`
	BreakerTimeout   time.Duration `yaml:"breaker_timeout" json:"breaker_timeout" env:"MEDIACATALOG_IMPORT_BREAKER_TIMEOUT" default:"1m"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" env:"MEDIACATALOG_LOG_LEVEL" default:"info"`
	Format string `yaml:"format" json:"format" env:"MEDIACATALOG_LOG_FORMAT" default:"text"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	RateLimitEnabled bool     `yaml:"rate_limit_enabled" json:"rate_limit_enabled" env:"MEDIACATALOG_RATE_LIMIT" default:"true"`
	RateLimitRPM     int      `yaml:"rate_limit_rpm" json:"rate_limit_rpm" env:"MEDIACATALOG_RATE_LIMIT_RPM" default:"600"`
	AllowedOrigins   []string `yaml:"allowed_origins" json:"allowed_origins" env:"MEDIACATALOG_ALLOWED_ORIGINS"`
}

// ReportingConfig holds error reporting settings
type ReportingConfig struct {
	SentryDSN   string `yaml:"sentry_dsn" json:"-" env:"SENTRY_DSN"`
	Environment string `yaml:"environment" json:"environment" env:"MEDIACATALOG_ENV" default:"development"`
}

// LinksConfig holds external project links shown by the UI
type LinksConfig struct {
	Project    string `yaml:"project" json:"project,omitempty" env:"MEDIACATALOG_LINK_PROJECT"`
	Repository string `yaml:"repository" json:"repository,omitempty" env:"MEDIACATALOG_LINK_REPOSITORY"`
	Issues     string `yaml:"issues" json:"issues,omitempty" env:"MEDIACATALOG_LINK_ISSUES"`
	Donate     string `yaml:"donate" json:"donate,omitempty" env:"MEDIACATALOG_LINK_DONATE"`
}

// ConfigManager manages application configuration with hot-reload support
type ConfigManager struct {
	config     *Config
	configPath string
	watchers   []ConfigWatcher
	mu         sync.RWMutex
}

// ConfigWatcher is called when configuration changes
type ConfigWatcher func(oldConfig, newConfig *Config)

var (
	globalConfigManager *ConfigManager
	configOnce          sync.Once
)

// GetConfigManager returns the global configuration manager instance
func GetConfigManager() *ConfigManager {
	configOnce.Do(func() {
		globalConfigManager = NewConfigManager()
	})
	return globalConfigManager
}

// NewConfigManager creates a manager holding the default configuration
func NewConfigManager() *ConfigManager {
	cfg := DefaultConfig()
	applyDerivedConfig(cfg)
	return &ConfigManager{
		config:   cfg,
		watchers: make([]ConfigWatcher, 0),
	}
}

// DefaultConfig returns the default application configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxHeaderBytes:  1 << 20,
			EnableCORS:      true,
			TrustedProxies:  []string{},
		},
		Database: DatabaseFullConfig{
			Type:            "sqlite",
			Host:            "localhost",
			Port:            5432,
			Username:        "mediacatalog",
			Database:        "mediacatalog",
			SSLMode:         "disable",
			DataDir:         "./data",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 15 * time.Minute,
		},
		Auth: AuthConfig{
			SessionTimeout: 30 * 24 * time.Hour,
			CookieName:     "mediacatalog_session",
			AdminEmails:    []string{},
		},
		Gate: GateConfig{
			AdminPrefixes:   []string{"/admin", "/api/admin"},
			EditorPrefixes:  []string{"/admin/edit", "/admin/series", "/admin/seasons", "/admin/episodes"},
			SkipPrefixes:    []string{"/api/health", "/metrics", "/favicon.ico", "/static"},
			RecorderWorkers: 2,
			RecorderQueue:   512,
		},
		Uploads: UploadConfig{
			Backend:      "local",
			MaxFileSize:  5 * 1024 * 1024,
			AllowedTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
		},
		Import: ImportConfig{
			FeedURL:          "https://www.youtube.com/feeds/videos.xml",
			Timeout:          10 * time.Second,
			FailureThreshold: 3,
			BreakerTimeout:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Security: SecurityConfig{
			RateLimitEnabled: true,
			RateLimitRPM:     600,
			AllowedOrigins:   []string{"*"},
		},
		Reporting: ReportingConfig{
			Environment: "development",
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func (cm *ConfigManager) LoadConfig(configPath string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	oldConfig := *cm.config
	cm.configPath = configPath

	newConfig := DefaultConfig()

	if configPath != "" && fileExists(configPath) {
		if err := loadFromFile(configPath, newConfig); err != nil {
			return fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := loadStructFromEnv(reflect.ValueOf(newConfig).Elem()); err != nil {
		return fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := validateConfig(newConfig); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	applyDerivedConfig(newConfig)
	cm.config = newConfig

	for _, watcher := range cm.watchers {
		go watcher(&oldConfig, newConfig)
	}

	logger.Info("configuration loaded", "path", configPath)
	return nil
}

// Reload re-reads the file the manager was last loaded from
func (cm *ConfigManager) Reload() error {
	cm.mu.RLock()
	path := cm.configPath
	cm.mu.RUnlock()
	return cm.LoadConfig(path)
}

// Path returns the file the configuration was loaded from
func (cm *ConfigManager) Path() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.configPath
}

// GetConfig returns a copy of the current configuration (thread-safe)
func (cm *ConfigManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	configCopy := *cm.config
	return &configCopy
}

// Update applies fn to a copy of the current configuration and swaps it in.
func (cm *ConfigManager) Update(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	oldConfig := *cm.config
	newConfig := *cm.config
	fn(&newConfig)
	cm.config = &newConfig

	for _, watcher := range cm.watchers {
		go watcher(&oldConfig, &newConfig)
	}
}

// AddWatcher adds a configuration change watcher
func (cm *ConfigManager) AddWatcher(watcher ConfigWatcher) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.watchers = append(cm.watchers, watcher)
}

// SaveConfig saves the current configuration to file
func (cm *ConfigManager) SaveConfig() error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.configPath == "" {
		return fmt.Errorf("no config path set")
	}

	return saveToFile(cm.configPath, cm.config)
}

func loadFromFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	case ".json":
		return json.Unmarshal(data, config)
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
}

func saveToFile(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	var data []byte
	var err error

	switch ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// loadStructFromEnv overrides fields carrying an env tag. Defaults only
// apply to fields that are still zero after the file was read.
func loadStructFromEnv(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		envValue := os.Getenv(envTag)
		if envValue == "" && field.IsZero() {
			envValue = fieldType.Tag.Get("default")
		}

		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set field %s: %w", fieldType.Name, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			duration, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(duration))
		} else {
			intVal, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(intVal)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		uintVal, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(uintVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolVal)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %v", field.Type())
		}
		values := make([]string, 0)
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		field.Set(reflect.ValueOf(values))
	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

func validateConfig(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Type != "sqlite" && config.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type: %s", config.Database.Type)
	}

	if config.Uploads.MaxFileSize <= 0 {
		return fmt.Errorf("invalid max upload size: %d", config.Uploads.MaxFileSize)
	}

	if config.Uploads.Backend != "local" && config.Uploads.Backend != "gcs" {
		return fmt.Errorf("unsupported upload backend: %s", config.Uploads.Backend)
	}

	if config.Gate.RecorderWorkers < 1 {
		return fmt.Errorf("invalid recorder worker count: %d", config.Gate.RecorderWorkers)
	}

	return nil
}

func applyDerivedConfig(config *Config) {
	if config.Database.DatabasePath == "" && config.Database.Type == "sqlite" {
		config.Database.DatabasePath = filepath.Join(config.Database.DataDir, "mediacatalog.db")
	}

	if config.Uploads.LocalDir == "" {
		config.Uploads.LocalDir = filepath.Join(config.Database.DataDir, "uploads")
	}

	if config.Gate.RecorderQueue < config.Gate.RecorderWorkers {
		config.Gate.RecorderQueue = config.Gate.RecorderWorkers * 2
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsAdminEmail reports whether email is on the admin allow-list. The list
// is read from the live configuration on every call.
func IsAdminEmail(email string) bool {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return false
	}
	for _, candidate := range Get().Auth.AdminEmails {
		if strings.TrimSpace(strings.ToLower(candidate)) == email {
			return true
		}
	}
	return false
}

// Global convenience functions

// Get returns the current global configuration
func Get() *Config {
	return GetConfigManager().GetConfig()
}

// Load loads configuration from the specified path
func Load(configPath string) error {
	return GetConfigManager().LoadConfig(configPath)
}

// AddWatcher adds a global configuration watcher
func AddWatcher(watcher ConfigWatcher) {
	GetConfigManager().AddWatcher(watcher)
}

// Save saves the current configuration
func Save() error {
	return GetConfigManager().SaveConfig()
}
