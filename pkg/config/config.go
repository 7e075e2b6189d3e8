package config

import "time"

// Chat definition chat_service YAML structure
type Chat struct {
	Port        string         `mapstructure:"port"`
	PresenceTTL time.Duration  `mapstructure:"presence_ttl"`
	MongoSQL    DatabaseConfig `mapstructure:"mongo"`
	Redis       RedisConfig    `mapstructure:"redis"`
}

// AdminConsole definition admin_console YAML structure
type AdminConsole struct {
	APIBase   string `mapstructure:"api_base"`
	WSURL     string `mapstructure:"ws_url"`
	AdminID   string `mapstructure:"admin_id"`
	PageLimit int    `mapstructure:"page_limit"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	Addr    string `mapstructure:"addr"`
	RedisDB int    `mapstructure:"redis_db"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}
