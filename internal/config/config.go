package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Library LibraryConfig `mapstructure:"library"`
	Storage StorageConfig `mapstructure:"storage"`
	History HistoryConfig `mapstructure:"history"`
	Albums  AlbumsConfig  `mapstructure:"albums"`
	Trash   TrashConfig   `mapstructure:"trash"`
	Viewer  ViewerConfig  `mapstructure:"viewer"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// LibraryConfig controls which media is browsed and how it is paged
type LibraryConfig struct {
	Roots             []string `mapstructure:"roots"`
	PageSize          int      `mapstructure:"page_size"`
	IncludePhotos     bool     `mapstructure:"include_photos"`
	IncludeVideos     bool     `mapstructure:"include_videos"`
	SortBy            string   `mapstructure:"sort_by"` // "creationTime" or "modificationTime"
	Descending        bool     `mapstructure:"descending"`
	PrefetchThreshold int      `mapstructure:"prefetch_threshold"`
}

// StorageConfig holds the local database location
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"` // Empty keeps everything in memory
}

// HistoryConfig bounds the action ledger
type HistoryConfig struct {
	MaxEntries int `mapstructure:"max_entries"`
}

// AlbumsConfig holds album listing options
type AlbumsConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// TrashConfig holds trash behavior
type TrashConfig struct {
	DeleteFiles bool `mapstructure:"delete_files"` // Emptying the trash removes the files
}

// ViewerConfig holds the external viewer used to open the current item
type ViewerConfig struct {
	Command string   `mapstructure:"command"` // Empty for auto-detection
	Args    []string `mapstructure:"args"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	Language string `mapstructure:"language"` // "it" or "en"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Library: LibraryConfig{
			Roots:             []string{filepath.Join(home, "Pictures")},
			PageSize:          20,
			IncludePhotos:     true,
			IncludeVideos:     true,
			SortBy:            "creationTime",
			Descending:        true,
			PrefetchThreshold: 5,
		},
		Storage: StorageConfig{
			DataDir: defaultDataPath(),
		},
		History: HistoryConfig{
			MaxEntries: 1000,
		},
		Albums: AlbumsConfig{
			CacheTTL: 5 * time.Minute,
		},
		Trash: TrashConfig{
			DeleteFiles: false,
		},
		Viewer: ViewerConfig{
			Args: []string{},
		},
		UI: UIConfig{
			Language: "it",
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "picky.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "picky")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "picky")
	}
}

// DefaultConfigPath returns the default config directory for the current OS
func DefaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "picky")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "picky")
	}
}

// setDefaults registers every key so environment overrides apply to it
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("library.roots", cfg.Library.Roots)
	v.SetDefault("library.page_size", cfg.Library.PageSize)
	v.SetDefault("library.include_photos", cfg.Library.IncludePhotos)
	v.SetDefault("library.include_videos", cfg.Library.IncludeVideos)
	v.SetDefault("library.sort_by", cfg.Library.SortBy)
	v.SetDefault("library.descending", cfg.Library.Descending)
	v.SetDefault("library.prefetch_threshold", cfg.Library.PrefetchThreshold)
	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("history.max_entries", cfg.History.MaxEntries)
	v.SetDefault("albums.cache_ttl", cfg.Albums.CacheTTL)
	v.SetDefault("trash.delete_files", cfg.Trash.DeleteFiles)
	v.SetDefault("viewer.command", cfg.Viewer.Command)
	v.SetDefault("viewer.args", cfg.Viewer.Args)
	v.SetDefault("ui.language", cfg.UI.Language)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// LoadConfig loads configuration from the default locations and environment
func LoadConfig() (*Config, error) {
	return load(viper.New(), "", DefaultConfigPath(), ".")
}

// LoadConfigFile loads configuration from an explicit file and environment
func LoadConfigFile(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, file string, searchPaths ...string) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}
	}

	// Environment variable overrides, e.g. PICKY_LIBRARY_PAGE_SIZE
	v.SetEnvPrefix("PICKY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	var errs []error
	if c.Library.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("library.page_size must be positive, got %d", c.Library.PageSize))
	}
	if c.Library.PrefetchThreshold < 0 {
		errs = append(errs, fmt.Errorf("library.prefetch_threshold must not be negative"))
	}
	if !c.Library.IncludePhotos && !c.Library.IncludeVideos {
		errs = append(errs, errors.New("library: at least one of include_photos and include_videos must be set"))
	}
	switch c.Library.SortBy {
	case "creationTime", "modificationTime":
	default:
		errs = append(errs, fmt.Errorf("library.sort_by must be creationTime or modificationTime, got %q", c.Library.SortBy))
	}
	if c.History.MaxEntries <= 0 {
		errs = append(errs, fmt.Errorf("history.max_entries must be positive, got %d", c.History.MaxEntries))
	}
	if c.Albums.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("albums.cache_ttl must be positive, got %s", c.Albums.CacheTTL))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// IsConfigured returns true once at least one library root is set
func (c *Config) IsConfigured() bool {
	for _, r := range c.Library.Roots {
		if strings.TrimSpace(r) != "" {
			return true
		}
	}
	return false
}

// SaveConfig writes cfg as config.yaml under dir (DefaultConfigPath when empty)
func SaveConfig(cfg *Config, dir string) error {
	if dir == "" {
		dir = DefaultConfigPath()
	}

	// Ensure config directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("library.roots", cfg.Library.Roots)
	v.Set("library.page_size", cfg.Library.PageSize)
	v.Set("library.include_photos", cfg.Library.IncludePhotos)
	v.Set("library.include_videos", cfg.Library.IncludeVideos)
	v.Set("library.sort_by", cfg.Library.SortBy)
	v.Set("library.descending", cfg.Library.Descending)
	v.Set("library.prefetch_threshold", cfg.Library.PrefetchThreshold)
	v.Set("storage.data_dir", cfg.Storage.DataDir)
	v.Set("history.max_entries", cfg.History.MaxEntries)
	v.Set("albums.cache_ttl", cfg.Albums.CacheTTL.String())
	v.Set("trash.delete_files", cfg.Trash.DeleteFiles)
	v.Set("viewer.command", cfg.Viewer.Command)
	v.Set("viewer.args", cfg.Viewer.Args)
	v.Set("ui.language", cfg.UI.Language)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
