// Package config loads the mediator's TOML configuration file (spec.md §6).
package config

import "time"

// Config is the root of the mediator's TOML configuration file.
type Config struct {
	LogLevel      string `toml:"log_level"`
	ListenAddress string `toml:"listen_address"`
	MediatorDID   string `toml:"mediator_did"`
	MediatorKeyID string `toml:"mediator_key_id"`
	MediatorSecrets string `toml:"mediator_secrets"`

	Security  SecurityConfig  `toml:"security"`
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Streaming StreamingConfig `toml:"streaming"`
	DIDResolver DIDResolverConfig `toml:"did_resolver"`
	Other     OtherConfig     `toml:"other"`
}

// SecurityConfig is the [security] TOML table.
type SecurityConfig struct {
	UseSSL                bool   `toml:"use_ssl"`
	SSLCertificateFile    string `toml:"ssl_certificate_file"`
	SSLKeyFile            string `toml:"ssl_key_file"`
	CORSAllowOrigin       string `toml:"cors_allow_origin"`
	JWTAuthorizationSecret string `toml:"jwt_authorization_secret"`
}

// ServerConfig is the [server] TOML table.
type ServerConfig struct {
	APIPrefix    string `toml:"api_prefix"`
	HTTPSizeLimit int64 `toml:"http_size_limit"`
	WSSizeLimit  int64  `toml:"ws_size_limit"`
}

// DatabaseConfig is the [database] TOML table.
type DatabaseConfig struct {
	DatabaseURL          string `toml:"database_url"`
	DatabasePoolSize     int    `toml:"database_pool_size"`
	DatabaseTimeout      int    `toml:"database_timeout"` // seconds
	MaxMessageSize       int    `toml:"max_message_size"`
	MaxQueuedMessages    int    `toml:"max_queued_messages"`
	MessageExpiryMinutes int    `toml:"message_expiry_minutes"`
	MaxListedMessages    int    `toml:"max_listed_messages"`
	MaxDeletedMessages   int    `toml:"max_deleted_messages"`
}

// Timeout returns DatabaseTimeout as a time.Duration.
func (d DatabaseConfig) Timeout() time.Duration {
	return time.Duration(d.DatabaseTimeout) * time.Second
}

// Expiry returns MessageExpiryMinutes as a time.Duration.
func (d DatabaseConfig) Expiry() time.Duration {
	return time.Duration(d.MessageExpiryMinutes) * time.Minute
}

// StreamingConfig is the [streaming] TOML table.
type StreamingConfig struct {
	Enabled bool   `toml:"enabled"`
	UUID    string `toml:"uuid"`
}

// DIDResolverConfig is the [did_resolver] TOML table.
type DIDResolverConfig struct {
	Address        string `toml:"address"`
	CacheCapacity  int    `toml:"cache_capacity"`
	CacheTTL       int    `toml:"cache_ttl"` // seconds
	NetworkTimeout int    `toml:"network_timeout"` // seconds
	NetworkLimit   int    `toml:"network_limit"`
}

func (d DIDResolverConfig) CacheTTLDuration() time.Duration {
	return time.Duration(d.CacheTTL) * time.Second
}

func (d DIDResolverConfig) NetworkTimeoutDuration() time.Duration {
	return time.Duration(d.NetworkTimeout) * time.Second
}

// OtherConfig is the [other] TOML table (spec.md §6).
type OtherConfig struct {
	ToRecipientsLimit             int `toml:"to_recipients_limit"`
	CryptoOperationsPerMessageLimit int `toml:"crypto_operations_per_message_limit"`
	ToKeysPerRecipientLimit       int `toml:"to_keys_per_recipient_limit"`
}

// Defaults returns a Config with the conservative defaults spec.md §6 implies.
func Defaults() *Config {
	return &Config{
		LogLevel:      "info",
		ListenAddress: "0.0.0.0:8080",
		Server: ServerConfig{
			APIPrefix:     "/mediator/v1/",
			HTTPSizeLimit: 1 << 20,
			WSSizeLimit:   1 << 20,
		},
		Database: DatabaseConfig{
			DatabasePoolSize:     10,
			DatabaseTimeout:      5,
			MaxMessageSize:       1 << 16,
			MaxQueuedMessages:    100,
			MessageExpiryMinutes: 10080, // 7 days
			MaxListedMessages:    100,
			MaxDeletedMessages:   100,
		},
		Streaming: StreamingConfig{Enabled: true},
		DIDResolver: DIDResolverConfig{
			CacheCapacity:  1000,
			CacheTTL:       300,
			NetworkTimeout: 5,
			NetworkLimit:   10,
		},
		Other: OtherConfig{
			ToRecipientsLimit:               100,
			CryptoOperationsPerMessageLimit: 10,
			ToKeysPerRecipientLimit:         10,
		},
	}
}
