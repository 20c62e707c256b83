package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "convoy.cfg.json"

// APIConfig holds location service client settings
type APIConfig struct {
	Transport string        `json:"transport" mapstructure:"transport"` // "http" or "nats"
	ServerURL string        `json:"serverUrl" mapstructure:"serverUrl"`
	APIKey    string        `json:"apiKey" mapstructure:"apiKey"`
	Timeout   time.Duration `json:"timeout" mapstructure:"timeout"`
	NATS      NATSConfig    `json:"nats" mapstructure:"nats"`
}

// NATSConfig holds settings for the NATS request/reply transport
type NATSConfig struct {
	URL     string `json:"url" mapstructure:"url"`
	Subject string `json:"subject" mapstructure:"subject"`
}

// SyncConfig holds sync engine settings
type SyncConfig struct {
	Interval time.Duration `json:"interval" mapstructure:"interval"`
}

// DeviceConfig holds local device settings
type DeviceConfig struct {
	VendorID string `json:"vendorId" mapstructure:"vendorId"` // empty means generate per process
	Position string `json:"position" mapstructure:"position"` // optional "long,lat" starting fix
}

// MapConfig holds map view settings
type MapConfig struct {
	ListenAddr        string `json:"listenAddr" mapstructure:"listenAddr"`
	Theme             string `json:"theme" mapstructure:"theme"`
	InitialPermission string `json:"initialPermission" mapstructure:"initialPermission"`
	DayTiles          string `json:"dayTiles" mapstructure:"dayTiles"`
	NightTiles        string `json:"nightTiles" mapstructure:"nightTiles"`
}

// MemoryConfig holds in-memory ride log settings
type MemoryConfig struct {
	MaxSnapshots int `json:"maxSnapshots" mapstructure:"maxSnapshots"`
}

// SQLiteConfig holds SQLite ride log settings
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"` // empty means in-memory
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// PostgresConfig holds PostgreSQL ride log settings
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"sslMode" mapstructure:"sslMode"`
}

// DSN returns the connection string for the postgres driver.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.Database, c.SSLMode)
}

// InfluxConfig holds InfluxDB ride log settings
type InfluxConfig struct {
	URL        string `json:"url" mapstructure:"url"`
	Token      string `json:"token" mapstructure:"token"`
	Org        string `json:"org" mapstructure:"org"`
	Bucket     string `json:"bucket" mapstructure:"bucket"`
	BackupPath string `json:"backupPath" mapstructure:"backupPath"`
}

// StorageConfig selects and configures the ride log backend
type StorageConfig struct {
	Type          string         `json:"type" mapstructure:"type"` // none, memory, sqlite, postgres, influx
	FlushInterval time.Duration  `json:"flushInterval" mapstructure:"flushInterval"`
	Memory        MemoryConfig   `json:"memory" mapstructure:"memory"`
	SQLite        SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres      PostgresConfig `json:"postgres" mapstructure:"postgres"`
	Influx        InfluxConfig   `json:"influx" mapstructure:"influx"`
}

// GraylogConfig holds GELF log shipping settings
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level      string        `json:"logLevel" mapstructure:"logLevel"`
	Dir        string        `json:"logsDir" mapstructure:"logsDir"`
	MaxSizeMB  int           `json:"maxSizeMB" mapstructure:"maxSizeMB"`
	MaxBackups int           `json:"maxBackups" mapstructure:"maxBackups"`
	MaxAgeDays int           `json:"maxAgeDays" mapstructure:"maxAgeDays"`
	Console    bool          `json:"console" mapstructure:"console"`
	Graylog    GraylogConfig `json:"graylog" mapstructure:"graylog"`
}

// MetricsConfig holds OpenTelemetry metrics settings
type MetricsConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	ServiceName string `json:"serviceName" mapstructure:"serviceName"`
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./convoylogs")
	viper.SetDefault("log.maxSizeMB", 20)
	viper.SetDefault("log.maxBackups", 5)
	viper.SetDefault("log.maxAgeDays", 14)
	viper.SetDefault("log.console", true)

	viper.SetDefault("api.transport", "http")
	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.apiKey", "")
	viper.SetDefault("api.timeout", "10s")

	viper.SetDefault("nats.url", "nats://127.0.0.1:4222")
	viper.SetDefault("nats.subject", "convoy")

	viper.SetDefault("sync.interval", "5s")

	viper.SetDefault("device.vendorId", "")
	viper.SetDefault("device.position", "")

	viper.SetDefault("permission.initial", "undetermined")

	viper.SetDefault("map.theme", "light")
	viper.SetDefault("map.listenAddr", ":8090")
	viper.SetDefault("map.dayTiles", "https://tile.openstreetmap.org/{z}/{x}/{y}.png")
	viper.SetDefault("map.nightTiles", "https://basemaps.cartocdn.com/dark_all/{z}/{x}/{y}.png")

	viper.SetDefault("storage.type", "none")
	viper.SetDefault("storage.flushInterval", "2s")
	viper.SetDefault("storage.memory.maxSnapshots", 100)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.username", "postgres")
	viper.SetDefault("storage.postgres.password", "postgres")
	viper.SetDefault("storage.postgres.database", "convoy")
	viper.SetDefault("storage.postgres.sslMode", "disable")
	viper.SetDefault("storage.influx.url", "http://localhost:8086")
	viper.SetDefault("storage.influx.token", "")
	viper.SetDefault("storage.influx.org", "convoy")
	viper.SetDefault("storage.influx.bucket", "ride_log")
	viper.SetDefault("storage.influx.backupPath", "./convoylogs/influx_backup.lp.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.serviceName", "convoy")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetAPIConfig returns the location service client configuration.
func GetAPIConfig() APIConfig {
	return APIConfig{
		Transport: viper.GetString("api.transport"),
		ServerURL: viper.GetString("api.serverUrl"),
		APIKey:    viper.GetString("api.apiKey"),
		Timeout:   viper.GetDuration("api.timeout"),
		NATS: NATSConfig{
			URL:     viper.GetString("nats.url"),
			Subject: viper.GetString("nats.subject"),
		},
	}
}

// GetSyncConfig returns the sync engine configuration.
func GetSyncConfig() SyncConfig {
	return SyncConfig{
		Interval: viper.GetDuration("sync.interval"),
	}
}

// GetDeviceConfig returns the local device configuration.
func GetDeviceConfig() DeviceConfig {
	return DeviceConfig{
		VendorID: viper.GetString("device.vendorId"),
		Position: viper.GetString("device.position"),
	}
}

// GetMapConfig returns the map view configuration.
func GetMapConfig() MapConfig {
	return MapConfig{
		ListenAddr:        viper.GetString("map.listenAddr"),
		Theme:             viper.GetString("map.theme"),
		InitialPermission: viper.GetString("permission.initial"),
		DayTiles:          viper.GetString("map.dayTiles"),
		NightTiles:        viper.GetString("map.nightTiles"),
	}
}

// GetStorageConfig returns the ride log configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:          viper.GetString("storage.type"),
		FlushInterval: viper.GetDuration("storage.flushInterval"),
		Memory: MemoryConfig{
			MaxSnapshots: viper.GetInt("storage.memory.maxSnapshots"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("storage.postgres.host"),
			Port:     viper.GetString("storage.postgres.port"),
			Username: viper.GetString("storage.postgres.username"),
			Password: viper.GetString("storage.postgres.password"),
			Database: viper.GetString("storage.postgres.database"),
			SSLMode:  viper.GetString("storage.postgres.sslMode"),
		},
		Influx: InfluxConfig{
			URL:        viper.GetString("storage.influx.url"),
			Token:      viper.GetString("storage.influx.token"),
			Org:        viper.GetString("storage.influx.org"),
			Bucket:     viper.GetString("storage.influx.bucket"),
			BackupPath: viper.GetString("storage.influx.backupPath"),
		},
	}
}

// GetLogConfig returns the logging configuration.
func GetLogConfig() LogConfig {
	return LogConfig{
		Level:      viper.GetString("logLevel"),
		Dir:        viper.GetString("logsDir"),
		MaxSizeMB:  viper.GetInt("log.maxSizeMB"),
		MaxBackups: viper.GetInt("log.maxBackups"),
		MaxAgeDays: viper.GetInt("log.maxAgeDays"),
		Console:    viper.GetBool("log.console"),
		Graylog: GraylogConfig{
			Enabled: viper.GetBool("graylog.enabled"),
			Address: viper.GetString("graylog.address"),
		},
	}
}

// GetMetricsConfig returns the metrics configuration.
func GetMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:     viper.GetBool("metrics.enabled"),
		ServiceName: viper.GetString("metrics.serviceName"),
	}
}
