package redlist

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	SchemeRedis = "redis"
	SchemeTCP   = "tcp"
	SchemeUnix  = "unix"

	DefaultHost = "127.0.0.1"
	DefaultPort = 6379
)

var supportedSchemes = []string{SchemeRedis, SchemeTCP, SchemeUnix}

// Config describes how an Adapter reaches the store.
// Zero durations leave the go-redis defaults in place.
type Config struct {
	Scheme           string
	Host             string
	Port             int
	Path             string
	Timeout          time.Duration
	ReadWriteTimeout time.Duration
	Persistent       bool
	PersistentID     string
	RetryInterval    time.Duration
	Password         string
	Database         *int
}

func DefaultConfig() Config {
	return Config{
		Scheme:  SchemeRedis,
		Host:    DefaultHost,
		Port:    DefaultPort,
		Timeout: 5 * time.Second,
	}
}

// Validate checks the config without touching the network.
func (c Config) Validate() error {
	supported := false
	for _, s := range supportedSchemes {
		if c.Scheme == s {
			supported = true
			break
		}
	}
	if !supported {
		return &ConfigError{
			Field: "scheme",
			Msg: fmt.Sprintf(`the given scheme protocol %q is not supported. It must be one of "%s"`,
				c.Scheme, strings.Join(supportedSchemes, `", "`)),
		}
	}
	if c.Scheme == SchemeUnix {
		if strings.TrimSpace(c.Path) == "" {
			return &ConfigError{Field: "path", Msg: "path is required for the unix scheme"}
		}
	} else {
		if strings.TrimSpace(c.Host) == "" {
			return &ConfigError{Field: "host", Msg: "host is required"}
		}
		if c.Port < 0 || c.Port > 65535 {
			return &ConfigError{Field: "port", Msg: fmt.Sprintf("port %d is out of range", c.Port)}
		}
	}
	if c.Timeout < 0 {
		return &ConfigError{Field: "timeout", Msg: "timeout must not be negative"}
	}
	if c.RetryInterval < 0 {
		return &ConfigError{Field: "retry_interval", Msg: "retry_interval must not be negative"}
	}
	if c.Database != nil && *c.Database < 0 {
		return &ConfigError{Field: "database", Msg: fmt.Sprintf("database %d must not be negative", *c.Database)}
	}
	return nil
}

func (c Config) network() string {
	if c.Scheme == SchemeUnix {
		return "unix"
	}
	return "tcp"
}

func (c Config) addr() string {
	if c.Scheme == SchemeUnix {
		return c.Path
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// Options converts the config to go-redis client options.
// A negative ReadWriteTimeout disables socket read/write deadlines.
func (c Config) Options() *redis.Options {
	opt := &redis.Options{
		Network:     c.network(),
		Addr:        c.addr(),
		Password:    c.Password,
		DialTimeout: c.Timeout,
	}
	if c.ReadWriteTimeout != 0 {
		rw := c.ReadWriteTimeout
		if rw < 0 {
			rw = -1
		}
		opt.ReadTimeout = rw
		opt.WriteTimeout = rw
	}
	if c.Database != nil {
		opt.DB = *c.Database
	}
	if c.RetryInterval > 0 {
		opt.MinRetryBackoff = c.RetryInterval
		opt.MaxRetryBackoff = c.RetryInterval
	}
	return opt
}

// persistentKey identifies sessions that may be shared between adapters.
func (c Config) persistentKey() string {
	db := 0
	if c.Database != nil {
		db = *c.Database
	}
	return strings.Join([]string{c.network(), c.addr(), strconv.Itoa(db), c.Password, c.PersistentID}, "|")
}

// ParseDSN builds a Config from a DSN such as
//
//	redis://:secret@localhost:6379/2?timeout=2.5&persistent=true
//	unix:///var/run/redis.sock?database=1
//
// Unset fields keep DefaultConfig values. The scheme is not checked here;
// an unsupported scheme is reported when the adapter connects.
func ParseDSN(dsn string) (Config, error) {
	u, err := url.Parse(strings.TrimSpace(dsn))
	if err != nil {
		return Config{}, &ConfigError{Field: "dsn", Msg: fmt.Sprintf("parse dsn: %v", err)}
	}
	if u.Scheme == "" {
		return Config{}, &ConfigError{Field: "dsn", Msg: fmt.Sprintf("dsn %q has no scheme", dsn)}
	}

	cfg := DefaultConfig()
	cfg.Scheme = strings.ToLower(u.Scheme)

	if cfg.Scheme == SchemeUnix {
		cfg.Host = ""
		cfg.Port = 0
		cfg.Path = u.Path
	} else {
		if h := u.Hostname(); h != "" {
			cfg.Host = h
		}
		if p := u.Port(); p != "" {
			port, err := strconv.Atoi(p)
			if err != nil {
				return Config{}, &ConfigError{Field: "port", Msg: fmt.Sprintf("invalid port %q", p)}
			}
			cfg.Port = port
		}
		if db := strings.Trim(u.Path, "/"); db != "" {
			n, err := strconv.Atoi(db)
			if err != nil {
				return Config{}, &ConfigError{Field: "database", Msg: fmt.Sprintf("invalid database %q", db)}
			}
			cfg.Database = &n
		}
	}

	if u.User != nil {
		if pw, ok := u.User.Password(); ok {
			cfg.Password = pw
		} else {
			cfg.Password = u.User.Username()
		}
	}

	q := u.Query()
	for key := range q {
		if err := cfg.set(key, q.Get(key)); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// set assigns a single named option, as found in DSN queries and config files.
func (c *Config) set(key, value string) error {
	var err error
	switch key {
	case "scheme":
		c.Scheme = strings.ToLower(value)
	case "host":
		c.Host = value
	case "port":
		c.Port, err = strconv.Atoi(value)
	case "path":
		c.Path = value
	case "password":
		c.Password = value
	case "persistent":
		c.Persistent, err = strconv.ParseBool(value)
	case "persistent_id":
		c.PersistentID = value
	case "timeout":
		c.Timeout, err = parseSeconds(value)
	case "read_write_timeout":
		c.ReadWriteTimeout, err = parseSeconds(value)
	case "retry_interval":
		c.RetryInterval, err = parseSeconds(value)
	case "database":
		var n int
		if n, err = strconv.Atoi(value); err == nil {
			c.Database = &n
		}
	default:
		return nil
	}
	if err != nil {
		return &ConfigError{Field: key, Msg: fmt.Sprintf("invalid %s %q: %v", key, value, err)}
	}
	return nil
}

// parseSeconds accepts Go durations ("250ms") or bare seconds ("2.5").
func parseSeconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(f * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}
