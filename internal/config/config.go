package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue"    validate:"required"`
	Users    UsersConfig    `mapstructure:"users"    validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	ServiceName string `mapstructure:"service_name" validate:"required"`
	Port        int    `mapstructure:"port"         validate:"required,gt=0,lt=65536"`
	APIVersion  string `mapstructure:"api_version"  validate:"required,startswith=/"`
	LogLevel    string `mapstructure:"log_level"    validate:"required,oneof=debug info warn error"`
	Production  bool   `mapstructure:"production"`
}

// DatabaseConfig contains all database-related configuration settings.
// Username and Password are applied on top of the URL only when the
// production flag is set; local development connects with whatever the
// URL itself carries.
type DatabaseConfig struct {
	URL      string `mapstructure:"url" validate:"required,url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// AuthConfig contains the token signing settings.
type AuthConfig struct {
	Secret          string `mapstructure:"secret"            validate:"required,min=32"`
	TokenTTLSeconds int    `mapstructure:"token_ttl_seconds" validate:"required,gt=0"`
}

// QueueConfig contains the message broker settings.
type QueueConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// UsersConfig points at the external user service used to resolve
// authenticated identities.
type UsersConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// CacheConfig contains the optional Redis cache settings for user lookups.
// An empty address disables caching.
type CacheConfig struct {
	Addr       string `mapstructure:"addr"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}
