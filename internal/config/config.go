package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Database    DatabaseConfig    `mapstructure:"database"`
	Export      ExportConfig      `mapstructure:"export"`
	Application ApplicationConfig `mapstructure:"application"`
}

type ApplicationConfig struct {
	Name    string        `mapstructure:"name"`
	Version string        `mapstructure:"version"`
	Host    string        `mapstructure:"host"`
	Port    int           `mapstructure:"port"`
	Storage StorageConfig `mapstructure:"storage"`
	// MaxUploadMB limits the size of uploaded presentations.
	MaxUploadMB int64 `mapstructure:"max_upload_mb"`
}

type StorageConfig struct {
	Uploads string `mapstructure:"uploads"`
	Public  string `mapstructure:"public"`
	// Stage is watched for new presentations; empty disables watch mode.
	Stage   string `mapstructure:"stage"`
	Bundles string `mapstructure:"bundles"`
	Archive string `mapstructure:"archive"`
}

type ExportConfig struct {
	AssetPrefix   string `mapstructure:"asset_prefix"`
	ImagesDir     string `mapstructure:"images_dir"`
	MarkdownPath  string `mapstructure:"markdown_path"`
	JSONPath      string `mapstructure:"json_path"`
	HTMLPath      string `mapstructure:"html_path"`
	MaxGroupDepth int    `mapstructure:"max_group_depth"`
	PartCacheSize int    `mapstructure:"part_cache_size"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Options  string `mapstructure:"options"`
}

// Enabled reports whether an export registry database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != "" || c.Host != ""
}

func (c *DatabaseConfig) GetConnectStr() string {
	if c.URL != "" {
		return c.URL
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, sslmode)

	if c.Options != "" {
		// Basic URL encoding for the options value: space -> %20
		encodedOptions := strings.ReplaceAll(c.Options, " ", "%20")
		connStr += fmt.Sprintf("&options=%s", encodedOptions)
	}

	return connStr
}

// PublicSlidesDir is where the server publishes the current bundle.
func (c *Config) PublicSlidesDir() string {
	return filepath.Join(c.Application.Storage.Public, "slides")
}

// LoadConfig reads .env, an optional config file and the environment.
// Flags, when given, take precedence over everything else.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("WARN: failed to load .env: %v", err)
	}

	v := viper.New()
	v.SetConfigFile("config.yaml")
	explicit := false
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
			explicit = true
		}
	}
	v.AutomaticEnv()

	// Environment variable mappings
	mappings := []struct {
		key, env string
	}{
		{"database.url", "DB_URL"},
		{"database.host", "PG_HOST"},
		{"database.port", "PG_PORT"},
		{"database.user", "PG_USER"},
		{"database.password", "PG_PASSWORD"},
		{"database.dbname", "PG_DB"},
		{"database.sslmode", "PG_SSLMODE"},
		{"database.options", "PG_OPTIONS"},
		{"application.host", "HOST"},
		{"application.port", "PORT"},
		{"application.max_upload_mb", "MAX_UPLOAD_MB"},

		// Storage
		{"application.storage.uploads", "STORAGE_UPLOADS"},
		{"application.storage.public", "STORAGE_PUBLIC"},
		{"application.storage.stage", "STORAGE_STAGE"},
		{"application.storage.bundles", "STORAGE_BUNDLES"},
		{"application.storage.archive", "STORAGE_ARCHIVE"},

		// Export
		{"export.asset_prefix", "ASSET_PREFIX"},
		{"export.max_group_depth", "EXPORT_MAX_GROUP_DEPTH"},
		{"export.part_cache_size", "EXPORT_PART_CACHE_SIZE"},
	}

	for _, m := range mappings {
		v.BindEnv(m.key, m.env)
	}

	// Defaults
	v.SetDefault("application.name", "DeckPress")
	v.SetDefault("application.port", 8080)
	v.SetDefault("application.max_upload_mb", 150)
	v.SetDefault("application.storage.uploads", "uploads")
	v.SetDefault("application.storage.public", "public")
	v.SetDefault("application.storage.bundles", "bundles")
	v.SetDefault("export.asset_prefix", "/slides/images/")
	v.SetDefault("export.max_group_depth", 64)
	v.SetDefault("export.part_cache_size", 64)

	if flags != nil {
		bindings := map[string]string{
			"export.images_dir":    "out",
			"export.markdown_path": "md",
			"export.json_path":     "json",
			"export.html_path":     "html",
			"export.asset_prefix":  "asset-prefix",
		}
		for key, name := range bindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	// Only an absent default config.yaml is tolerated.
	if err := v.ReadInConfig(); err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Export.AssetPrefix != "" && !strings.HasSuffix(cfg.Export.AssetPrefix, "/") {
		cfg.Export.AssetPrefix += "/"
	}

	return &cfg, nil
}
