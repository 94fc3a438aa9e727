// Package config loads the hub's runtime configuration from
// environment variables via viper, the way the rest of the retrieved
// corpus configures its services: typed defaults registered up front,
// then AutomaticEnv overlays whatever the process environment sets.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is every knob the hub reads at startup.
type Config struct {
	Port       string   `mapstructure:"port"`
	Host       string   `mapstructure:"host"`
	PublicDir  string   `mapstructure:"public_dir"`
	Allowed    []string `mapstructure:"-"`

	TurnURLs            []string      `mapstructure:"-"`
	TurnSecret          string        `mapstructure:"turn_secret"`
	TurnUsernameTTL     time.Duration `mapstructure:"-"`
	TurnRelayMinPort    int           `mapstructure:"turn_relay_min_port"`
	TurnRelayMaxPort    int           `mapstructure:"turn_relay_max_port"`

	TLSKeyPath  string `mapstructure:"tls_key_path"`
	TLSCertPath string `mapstructure:"tls_cert_path"`

	VapidPublicKey  string `mapstructure:"vapid_public_key"`
	VapidPrivateKey string `mapstructure:"vapid_private_key"`
	VapidSubject    string `mapstructure:"vapid_subject"`

	RedisAddr      string `mapstructure:"redis_addr"`
	RedisPassword  string `mapstructure:"redis_password"`
	RedisDB        int    `mapstructure:"redis_db"`
	PushGatewayURL string `mapstructure:"push_gateway_url"`

	StartupLog bool `mapstructure:"startup_log"`
}

// Load reads configuration from the environment, applying the
// defaults the specification's env var table names.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("public_dir", "./public")
	v.SetDefault("allowed_origins", "")
	v.SetDefault("turn_urls", "")
	v.SetDefault("turn_secret", "")
	v.SetDefault("turn_username_ttl_seconds", 3600)
	v.SetDefault("turn_relay_min_port", 0)
	v.SetDefault("turn_relay_max_port", 0)
	v.SetDefault("tls_key_path", "")
	v.SetDefault("tls_cert_path", "")
	v.SetDefault("vapid_public_key", "")
	v.SetDefault("vapid_private_key", "")
	v.SetDefault("vapid_subject", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("push_gateway_url", "")
	v.SetDefault("startup_log", false)

	cfg := &Config{
		Port:             v.GetString("port"),
		Host:             v.GetString("host"),
		PublicDir:        v.GetString("public_dir"),
		Allowed:          splitCSV(v.GetString("allowed_origins")),
		TurnURLs:         splitCSV(v.GetString("turn_urls")),
		TurnSecret:       v.GetString("turn_secret"),
		TurnUsernameTTL:  time.Duration(v.GetInt("turn_username_ttl_seconds")) * time.Second,
		TurnRelayMinPort: v.GetInt("turn_relay_min_port"),
		TurnRelayMaxPort: v.GetInt("turn_relay_max_port"),
		TLSKeyPath:       v.GetString("tls_key_path"),
		TLSCertPath:      v.GetString("tls_cert_path"),
		VapidPublicKey:   v.GetString("vapid_public_key"),
		VapidPrivateKey:  v.GetString("vapid_private_key"),
		VapidSubject:     v.GetString("vapid_subject"),
		RedisAddr:        v.GetString("redis_addr"),
		RedisPassword:    v.GetString("redis_password"),
		RedisDB:          v.GetInt("redis_db"),
		PushGatewayURL:   v.GetString("push_gateway_url"),
		StartupLog:       v.GetBool("startup_log"),
	}
	return cfg, nil
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// VapidEnabled reports whether push notification delivery has been
// configured with a full VAPID key pair.
func (c *Config) VapidEnabled() bool {
	return c.VapidPublicKey != "" && c.VapidPrivateKey != ""
}

// PushEnabled reports whether the hub has anywhere to forward push
// notifications.
func (c *Config) PushEnabled() bool {
	return c.PushGatewayURL != ""
}

// TLSEnabled reports whether both TLS key and cert paths are set.
func (c *Config) TLSEnabled() bool {
	return c.TLSKeyPath != "" && c.TLSCertPath != ""
}
