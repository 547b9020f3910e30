// Package config loads server settings from compiled-in defaults, an optional
// YAML file and WEBSHOP_ environment variables, in that order.
package config

import (
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// EnvPrefix marks environment variables that override configuration keys,
// e.g. WEBSHOP_HTTP_ADDR or WEBSHOP_AUTH_TOKEN_EXPIRY.
const EnvPrefix = "WEBSHOP_"

// Config is the server configuration.
type Config struct {
	HTTP      HTTP      `koanf:"http"`
	DB        DB        `koanf:"db"`
	Auth      Auth      `koanf:"auth"`
	Log       Log       `koanf:"log"`
	Photos    Photos    `koanf:"photos"`
	Policy    Policy    `koanf:"policy"`
	Bootstrap Bootstrap `koanf:"bootstrap"`
}

// HTTP configures the listener and request limits.
type HTTP struct {
	Addr              string        `koanf:"addr"`
	ReadTimeout       time.Duration `koanf:"readTimeout"`
	ReadHeaderTimeout time.Duration `koanf:"readHeaderTimeout"`
	WriteTimeout      time.Duration `koanf:"writeTimeout"`
	IdleTimeout       time.Duration `koanf:"idleTimeout"`
	MaxBodyBytes      int64         `koanf:"maxBodyBytes"`
}

// DB locates the SQLite database.
type DB struct {
	Path string `koanf:"path"`
}

// Auth configures tokens and password hashing.
type Auth struct {
	// JWTSecret signs tokens. When empty, a secret is generated once and kept
	// in the database.
	JWTSecret   string        `koanf:"jwtSecret"`
	TokenExpiry time.Duration `koanf:"tokenExpiry"`
	BcryptCost  int           `koanf:"bcryptCost"`
}

// Log sets the log level and an optional log file.
type Log struct {
	Path  string `koanf:"path"`
	Level string `koanf:"level"`
}

// Photos bounds uploaded item photos.
type Photos struct {
	// MaxDimension bounds stored photo width and height; 0 keeps originals.
	MaxDimension int   `koanf:"maxDimension"`
	MaxBytes     int64 `koanf:"maxBytes"`
}

// Policy adjusts the authorization table.
type Policy struct {
	OpenWarehouseWrites bool `koanf:"openWarehouseWrites"`
}

// Bootstrap names the account created when the database has no users.
type Bootstrap struct {
	Username string `koanf:"username"`
	Email    string `koanf:"email"`
}

// defaults are flattened koanf keys. Every known key has a default, which also
// lets environment variables find their canonical key.
var defaults = map[string]any{
	"http.addr":                  ":8080",
	"http.readTimeout":           "30s",
	"http.readHeaderTimeout":     "10s",
	"http.writeTimeout":          "60s",
	"http.idleTimeout":           "120s",
	"http.maxBodyBytes":          int64(1 << 20),
	"db.path":                    "webshop.sqlite3",
	"auth.jwtSecret":             "",
	"auth.tokenExpiry":           "168h",
	"auth.bcryptCost":            10,
	"log.path":                   "",
	"log.level":                  "info",
	"photos.maxDimension":        1024,
	"photos.maxBytes":            int64(10 << 20),
	"policy.openWarehouseWrites": false,
	"bootstrap.username":         "admin",
	"bootstrap.email":            "admin@example.com",
}

// Default returns the compiled-in configuration.
func Default() *Config {
	k, err := withDefaults()
	if err == nil {
		var cfg *Config
		if cfg, err = decode(k); err == nil {
			return cfg
		}
	}
	// The defaults table always decodes.
	panic(err)
}

// Load reads the configuration. path may be empty, in which case only
// defaults and environment variables apply; a named file must exist.
func Load(path string) (*Config, error) {
	k, err := withDefaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	existing := k.Raw()
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return canonicalizeEnvKey(strings.TrimPrefix(key, EnvPrefix), existing), value
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables")
	}

	cfg, err := decode(k)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func withDefaults() (*koanf.Koanf, error) {
	k := koanf.New(".")
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, errors.Wrapf(err, "set default %s", key)
		}
	}
	return k, nil
}

func decode(k *koanf.Koanf) (*Config, error) {
	cfg := new(Config)
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		return errors.New("http.addr must not be empty")
	}
	if strings.TrimSpace(c.DB.Path) == "" {
		return errors.New("db.path must not be empty")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return errors.New("http.maxBodyBytes must be positive")
	}
	if c.Photos.MaxDimension < 0 {
		return errors.New("photos.maxDimension must not be negative")
	}
	if c.Auth.TokenExpiry <= 0 {
		return errors.New("auth.tokenExpiry must be positive")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses log.level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.Wrapf(err, "invalid log.level %q", c.Log.Level)
	}
	return level, nil
}

// canonicalizeEnvKey turns an environment key such as HTTP_READ_TIMEOUT into
// the existing koanf key http.readTimeout. Segments are joined greedily until
// they match an existing key at the current level; keys that match nothing
// are lowercased and dot-separated.
func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	var segments []string
	for _, s := range strings.Split(strings.ToLower(rawKey), "_") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	canonical := make([]string, 0, len(segments))
	current := existing

	for i := 0; i < len(segments); {
		matched, next, width := findExistingSegment(current, segments[i:])
		if width == 0 {
			canonical = append(canonical, segments[i])
			current = nil
			i++
			continue
		}
		canonical = append(canonical, matched)
		current = next
		i += width
	}

	return strings.Join(canonical, ".")
}

// findExistingSegment looks for the longest run of segments that names a key
// in current. It returns the key, its children and the number of segments
// consumed, or zero when nothing matches.
func findExistingSegment(current map[string]any, segments []string) (string, map[string]any, int) {
	if len(current) == 0 {
		return "", nil, 0
	}

	for width := len(segments); width > 0; width-- {
		needle := normalizeToken(strings.Join(segments[:width], ""))
		for key, value := range current {
			if normalizeToken(key) != needle {
				continue
			}
			child, _ := value.(map[string]any)
			return key, child, width
		}
	}
	return "", nil, 0
}

func normalizeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Exists reports whether a config file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
