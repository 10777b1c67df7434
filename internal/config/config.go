package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Theme values persisted in the config file.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Config holds the application configuration
type Config struct {
	API    APIConfig    `mapstructure:"api"`
	Server ServerConfig `mapstructure:"server"`
	Client ClientConfig `mapstructure:"client"`

	v *viper.Viper
}

// APIConfig holds the backend endpoint the client talks to
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// ServerConfig holds the `atelier serve` configuration
type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      string `mapstructure:"port"`
	DBPath    string `mapstructure:"db_path"`
	StaticDir string `mapstructure:"static_dir"`
}

// ClientConfig holds TUI-side settings
type ClientConfig struct {
	Theme       string `mapstructure:"theme"`
	LogLevel    string `mapstructure:"log_level"`
	LogFile     string `mapstructure:"log_file"`
	DownloadDir string `mapstructure:"download_dir"`
}

// Load loads the configuration from the config.yaml file.
// CONFIG_PATH overrides the file location; all keys have defaults,
// so a missing file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(defaultConfigDir())
	}

	v.SetDefault("api.base_url", "http://localhost:5000")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.db_path", "atelier.db")
	v.SetDefault("server.static_dir", "static")
	v.SetDefault("client.theme", ThemeDark)
	v.SetDefault("client.log_level", "info")
	v.SetDefault("client.log_file", filepath.Join(os.TempDir(), "atelier.log"))
	v.SetDefault("client.download_dir", ".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.v = v

	return &config, nil
}

// SetTheme updates the theme and writes it back to the config file.
// This mirrors the browser client's localStorage theme flag: it is the
// only durable client-side state.
func (c *Config) SetTheme(theme string) error {
	c.Client.Theme = theme
	if c.v == nil {
		return nil
	}
	c.v.Set("client.theme", theme)
	if c.v.ConfigFileUsed() == "" {
		path := filepath.Join(defaultConfigDir(), "config.yaml")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		return c.v.WriteConfigAs(path)
	}
	return c.v.WriteConfig()
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".atelier")
}
