// Package config provides configuration types and loading for centlink.
package config

import "time"

// Config is the root configuration struct.
//
// Environment overrides use the CENTLINK prefix and compose per nesting
// level, e.g. CENTLINK_DISCORD_TOKEN, CENTLINK_DATABASE_PATH,
// CENTLINK_RECONCILE_INTERVAL. Fields whose name is a single word carry no
// envconfig tag on purpose: a bare tag is also looked up unprefixed, which
// would let system variables like LANG or PATH leak into the config.
type Config struct {
	Discord   DiscordConfig   `json:"discord"`
	Lang      string          `json:"lang"`
	Database  DatabaseConfig  `json:"database"`
	Reconcile ReconcileConfig `json:"reconcile"`
	Roles     RolesConfig     `json:"roles"`
	AuthSite  AuthSiteConfig  `json:"authSite"`
}

// DiscordConfig configures the Discord gateway connection.
type DiscordConfig struct {
	Token    string   `json:"token"`
	GuildIDs []string `json:"guildIds" envconfig:"GUILD_IDS"`
}

// DatabaseConfig groups persistence settings.
type DatabaseConfig struct {
	Path string `json:"path"`
}

// ReconcileConfig configures the role reconciliation loop.
type ReconcileConfig struct {
	Interval time.Duration `json:"interval"`
}

// RolesConfig maps Discord role IDs to integer privilege levels.
// NotSet is the shipped-default sentinel: while it is true the
// reconciliation loop stays disabled.
type RolesConfig struct {
	NotSet bool           `json:"notSet" envconfig:"NOT_SET"`
	Levels map[string]int `json:"levels"`
}

// AuthSiteConfig points at the external account site used for credential
// verification.
type AuthSiteConfig struct {
	BaseURL  string        `json:"baseUrl" envconfig:"BASE_URL"`
	LoginURL string        `json:"loginUrl" envconfig:"LOGIN_URL"`
	Timeout  time.Duration `json:"timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Lang: "en",
		Reconcile: ReconcileConfig{
			Interval: 5 * time.Minute,
		},
		Roles: RolesConfig{
			NotSet: true,
			Levels: map[string]int{},
		},
		AuthSite: AuthSiteConfig{
			BaseURL:  "https://central.spacestation14.io/web/",
			LoginURL: "https://central.spacestation14.io/web/Identity/Account/Login",
			Timeout:  30 * time.Second,
		},
	}
}
