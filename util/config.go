package util

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is the active application configuration. It is loaded once at
// startup by LoadConfig and treated as read-only afterwards.
var Config *ConfigType

type DbDialect string

const (
	DbDialectBolt     DbDialect = "bolt"
	DbDialectPostgres DbDialect = "postgres"
	DbDialectMySQL    DbDialect = "mysql"
	DbDialectSQLite   DbDialect = "sqlite"
)

type DbConfig struct {
	Dialect DbDialect `json:"dialect" env:"DEVBOARD_DB_DIALECT"`

	// Hostname for SQL backends, file path for bolt/sqlite.
	Hostname string `json:"host" env:"DEVBOARD_DB_HOST"`
	Username string `json:"user" env:"DEVBOARD_DB_USER"`
	Password string `json:"pass" env:"DEVBOARD_DB_PASS"`
	DbName   string `json:"name" env:"DEVBOARD_DB_NAME"`
}

type RedisConfig struct {
	Addr string `json:"addr" env:"DEVBOARD_REDIS_ADDR"`
	User string `json:"user" env:"DEVBOARD_REDIS_USER"`
	Pass string `json:"pass" env:"DEVBOARD_REDIS_PASS"`
	DB   int    `json:"db" env:"DEVBOARD_REDIS_DB"`
}

type AiConfig struct {
	// Endpoint receives POST {"prompt": "..."} and returns {"text": "..."}.
	Endpoint string `json:"endpoint" env:"DEVBOARD_AI_ENDPOINT"`
}

type LogConfig struct {
	Level  string `json:"level" env:"DEVBOARD_LOG_LEVEL"`
	Format string `json:"format" env:"DEVBOARD_LOG_FORMAT"`

	// If set, logs additionally go to a size-rotated file.
	Path       string `json:"path" env:"DEVBOARD_LOG_PATH"`
	MaxSizeMb  int    `json:"max_size_mb" env:"DEVBOARD_LOG_MAX_SIZE_MB"`
	MaxBackups int    `json:"max_backups" env:"DEVBOARD_LOG_MAX_BACKUPS"`
}

type ConfigType struct {
	Db DbConfig `json:"db"`

	// Port the web server listens on, in ":3000" form.
	Port string `json:"port" env:"DEVBOARD_PORT"`

	// WebHost is the public URL of this instance, used in notifications.
	WebHost string `json:"web_host" env:"DEVBOARD_WEB_HOST"`

	// Redis enables the cross-node event bridge when set.
	Redis *RedisConfig `json:"redis"`

	Ai AiConfig `json:"ai"`

	// NotificationWebhook receives a POST for each created invite.
	NotificationWebhook string `json:"notification_webhook" env:"DEVBOARD_NOTIFICATION_WEBHOOK"`

	// ChatHistoryLimit is the number of recent messages replayed on join.
	ChatHistoryLimit int `json:"chat_history_limit" env:"DEVBOARD_CHAT_HISTORY_LIMIT"`

	Log LogConfig `json:"log"`
}

const defaultChatHistoryLimit = 50

// NewConfig returns a configuration with defaults applied.
func NewConfig() *ConfigType {
	return &ConfigType{
		Db: DbConfig{
			Dialect:  DbDialectBolt,
			Hostname: "devboard.db",
		},
		Port:             ":3000",
		ChatHistoryLimit: defaultChatHistoryLimit,
	}
}

// LoadConfig reads the configuration file (if any) and applies environment
// variable overrides on top of it.
func LoadConfig(configPath string) error {
	Config = NewConfig()

	if configPath != "" {
		file, err := os.Open(configPath)
		if err != nil {
			return fmt.Errorf("cannot open config file %s: %w", configPath, err)
		}
		defer file.Close()

		decoder := json.NewDecoder(file)
		if err := decoder.Decode(Config); err != nil {
			return fmt.Errorf("cannot parse config file %s: %w", configPath, err)
		}
	}

	loadConfigEnvironment(Config)

	if Config.ChatHistoryLimit <= 0 {
		Config.ChatHistoryLimit = defaultChatHistoryLimit
	}

	if !strings.HasPrefix(Config.Port, ":") {
		Config.Port = ":" + Config.Port
	}

	return nil
}

func loadConfigEnvironment(config *ConfigType) {
	setStr := func(target *string, name string) {
		if v, ok := os.LookupEnv(name); ok {
			*target = v
		}
	}
	setInt := func(target *int, name string) {
		if v, ok := os.LookupEnv(name); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*target = n
			}
		}
	}

	if v, ok := os.LookupEnv("DEVBOARD_DB_DIALECT"); ok {
		config.Db.Dialect = DbDialect(v)
	}
	setStr(&config.Db.Hostname, "DEVBOARD_DB_HOST")
	setStr(&config.Db.Username, "DEVBOARD_DB_USER")
	setStr(&config.Db.Password, "DEVBOARD_DB_PASS")
	setStr(&config.Db.DbName, "DEVBOARD_DB_NAME")

	setStr(&config.Port, "DEVBOARD_PORT")
	setStr(&config.WebHost, "DEVBOARD_WEB_HOST")
	setStr(&config.Ai.Endpoint, "DEVBOARD_AI_ENDPOINT")
	setStr(&config.NotificationWebhook, "DEVBOARD_NOTIFICATION_WEBHOOK")
	setInt(&config.ChatHistoryLimit, "DEVBOARD_CHAT_HISTORY_LIMIT")

	if addr, ok := os.LookupEnv("DEVBOARD_REDIS_ADDR"); ok {
		if config.Redis == nil {
			config.Redis = &RedisConfig{}
		}
		config.Redis.Addr = addr
		setStr(&config.Redis.User, "DEVBOARD_REDIS_USER")
		setStr(&config.Redis.Pass, "DEVBOARD_REDIS_PASS")
		setInt(&config.Redis.DB, "DEVBOARD_REDIS_DB")
	}

	setStr(&config.Log.Level, "DEVBOARD_LOG_LEVEL")
	setStr(&config.Log.Format, "DEVBOARD_LOG_FORMAT")
	setStr(&config.Log.Path, "DEVBOARD_LOG_PATH")
}

// ConfigureLogging applies the log section of the configuration to the
// global logrus logger.
func ConfigureLogging() {
	if Config == nil {
		return
	}

	if Config.Log.Level != "" {
		level, err := log.ParseLevel(Config.Log.Level)
		if err != nil {
			log.WithError(err).Warn("invalid log level, using info")
		} else {
			log.SetLevel(level)
		}
	}

	if Config.Log.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	if Config.Log.Path != "" {
		maxSize := Config.Log.MaxSizeMb
		if maxSize <= 0 {
			maxSize = 100
		}
		log.SetOutput(&lumberjack.Logger{
			Filename:   Config.Log.Path,
			MaxSize:    maxSize,
			MaxBackups: Config.Log.MaxBackups,
		})
	}
}
