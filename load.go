package redlist

import (
	"strings"

	"github.com/spf13/viper"
)

var configKeys = []string{
	"scheme",
	"host",
	"port",
	"path",
	"password",
	"persistent",
	"persistent_id",
	"timeout",
	"read_write_timeout",
	"retry_interval",
	"database",
}

// LoadConfig reads a Config from v. With prefix "redlist" the environment
// variables REDLIST_DSN, REDLIST_HOST, REDLIST_PORT, ... are consulted in
// addition to whatever v already holds (config file, explicit Set calls).
//
// A DSN is applied first; individual keys override it.
func LoadConfig(v *viper.Viper, prefix string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	if prefix != "" {
		v.SetEnvPrefix(prefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, key := range append([]string{"dsn"}, configKeys...) {
		_ = v.BindEnv(key)
	}

	cfg := DefaultConfig()
	if dsn := strings.TrimSpace(v.GetString("dsn")); dsn != "" {
		parsed, err := ParseDSN(dsn)
		if err != nil {
			return Config{}, err
		}
		cfg = parsed
	}

	for _, key := range configKeys {
		if !v.IsSet(key) {
			continue
		}
		if err := cfg.set(key, v.GetString(key)); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}
