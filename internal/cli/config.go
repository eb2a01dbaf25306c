package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/dancespec/pkg/cache"
	"github.com/matzehuels/dancespec/pkg/errors"
)

// configFile is the name of the user config under configDir.
const configFile = "config.toml"

// Config is the user configuration. Command-line flags override it.
type Config struct {
	Company  string `toml:"company"`
	Header   string `toml:"page2_header"`
	GradFrom string `toml:"grad_from"`
	GradTo   string `toml:"grad_to"`
	Template string `toml:"template"`
	Output   string `toml:"output_dir"`

	Cache  CacheConfig  `toml:"cache"`
	Mongo  MongoConfig  `toml:"mongo"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects the artifact cache.
type CacheConfig struct {
	Backend   string `toml:"backend"` // file, redis or none
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
}

// MongoConfig locates the schedule catalog.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures "dancespec serve".
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// defaultServerAddr is used when neither config nor flag sets an address.
const defaultServerAddr = ":8080"

// configDir returns ~/.config/dancespec, honoring XDG_CONFIG_HOME.
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// loadConfig reads path, or the default config file when path is empty. A
// missing default file yields the zero Config.
func loadConfig(path string) (Config, error) {
	var cfg Config
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, configFile)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidPath, err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	return cfg, nil
}

// cacheConfig maps the user config to cache.Open options. noCache wins over
// everything else.
func (c Config) cacheConfig(noCache bool) cache.Config {
	if noCache {
		return cache.Config{Backend: cache.BackendNone}
	}
	cfg := cache.Config{
		Backend:   c.Cache.Backend,
		RedisAddr: c.Cache.RedisAddr,
		RedisDB:   c.Cache.RedisDB,
	}
	if cfg.Backend == "" || cfg.Backend == cache.BackendFile {
		dir, err := cacheDir()
		if err != nil {
			return cache.Config{Backend: cache.BackendNone}
		}
		cfg.Dir = filepath.Join(dir, artifactsSubdir)
	}
	return cfg
}
