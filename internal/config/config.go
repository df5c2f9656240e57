package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vibebeat/internal/queue"
	"vibebeat/pkg/models"

	"github.com/BurntSushi/toml"
)

const (
	// PathEnv names the environment variable selecting the config file.
	PathEnv = "VIBEBEAT_CONFIG"
	// LogLevelEnv overrides logging.level.
	LogLevelEnv = "VIBEBEAT_LOG_LEVEL"
	// DefaultPath is used when PathEnv is unset.
	DefaultPath = "./config.toml"
)

// Config represents the application configuration
type Config struct {
	Player  PlayerConfig  `toml:"player"`
	Library LibraryConfig `toml:"library"`
	Uploads UploadsConfig `toml:"uploads"`
	User    UserConfig    `toml:"user"`
	Logging LoggingConfig `toml:"logging"`
}

// PlayerConfig contains transport configuration
type PlayerConfig struct {
	DefaultVolume int    `toml:"default_volume"`
	QueueSource   string `toml:"queue_source"`
	AudioEnabled  bool   `toml:"audio_enabled"`
}

// LibraryConfig contains the catalog seed and home page layout
type LibraryConfig struct {
	SeedDemo    bool          `toml:"seed_demo"`
	Songs       []models.Song `toml:"songs"`
	RecentLimit int           `toml:"recent_limit"`
	MadeForYou  []int         `toml:"made_for_you"`
	Trending    []int         `toml:"trending"`
}

// UploadsConfig contains local file import configuration
type UploadsConfig struct {
	WatchDir         string   `toml:"watch_dir"`
	SupportedFormats []string `toml:"supported_formats"`
}

// UserConfig is the profile shown in the shell
type UserConfig struct {
	Name   string `toml:"name"`
	Avatar string `toml:"avatar"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Player: PlayerConfig{
			DefaultVolume: 70,
			QueueSource:   string(queue.Single),
			AudioEnabled:  true,
		},
		Library: LibraryConfig{
			SeedDemo:    true,
			RecentLimit: 6,
			MadeForYou:  []int{1, 2, 3, 4},
			Trending:    []int{2, 3, 1, 4},
		},
		Uploads: UploadsConfig{
			WatchDir:         "",
			SupportedFormats: []string{".mp3", ".wav", ".ogg", ".flac"},
		},
		User: UserConfig{
			Name:   "User",
			Avatar: "https://i.pravatar.cc/40",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
	}
}

// DemoSongs returns the built-in sample catalog
func DemoSongs() []models.Song {
	const sample = "https://www.soundjay.com/misc/sounds/bell-ringing-05.wav"
	return []models.Song{
		{ID: 1, Title: "Night Vibes", Artist: "Chill Beats", Album: "Ambient Collection",
			ImageRef: "https://i.scdn.co/image/ab67616d0000b2736dafe7cc3b0811b46c7f6617",
			AudioRef: sample, DurationLabel: "3:45", Genre: "Ambient", Year: 2024},
		{ID: 2, Title: "Pop Energy", Artist: "Pop Mix", Album: "Hits 2024",
			ImageRef: "https://i.scdn.co/image/ab67616d0000b27346eb72bcf13c7b82cf67d3f8",
			AudioRef: sample, DurationLabel: "2:30", Genre: "Pop", Year: 2024},
		{ID: 3, Title: "Rock Classics", Artist: "Rock Legends", Album: "Greatest Hits",
			ImageRef: "https://i.scdn.co/image/ab67616d0000b273d911c299fbb92c28e9a99217",
			AudioRef: sample, DurationLabel: "4:12", Genre: "Rock", Year: 2024},
		{ID: 4, Title: "Lofi Chill", Artist: "Study Vibes", Album: "Focus Music",
			ImageRef: "https://i.scdn.co/image/ab67616d0000b273f76b3f8afcd46e3f9ec99438",
			AudioRef: sample, DurationLabel: "3:20", Genre: "Lofi", Year: 2024},
	}
}

// SeedSongs returns the songs the catalog starts with: the demo set when
// enabled, followed by the configured songs.
func (c *Config) SeedSongs() []models.Song {
	var songs []models.Song
	if c.Library.SeedDemo {
		songs = append(songs, DemoSongs()...)
	}
	return append(songs, c.Library.Songs...)
}

// LoadConfig loads configuration from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create it with defaults
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Created default configuration file at: %s\n", configPath)
		return cfg, nil
	}

	// Load from file
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ApplyEnv applies environment overrides and re-validates
func (c *Config) ApplyEnv() error {
	if level := strings.TrimSpace(os.Getenv(LogLevelEnv)); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
	return c.Validate()
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create or open file
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// Write header comment
	header := `# VibeBeat Configuration
# Edit the values below to customize the player.
# Extra songs can be added as [[library.songs]] tables.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	// Encode configuration to TOML
	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate player config
	if c.Player.DefaultVolume < 0 || c.Player.DefaultVolume > 100 {
		return fmt.Errorf("player default volume must be between 0 and 100, got %d", c.Player.DefaultVolume)
	}
	if _, err := queue.ParseSource(c.Player.QueueSource); err != nil {
		return err
	}

	// Validate library config
	if c.Library.RecentLimit < 0 {
		return fmt.Errorf("library recent limit cannot be negative")
	}
	seen := make(map[int]bool)
	for _, song := range c.SeedSongs() {
		if song.ID <= 0 {
			return fmt.Errorf("library song %q must have a positive id", song.Title)
		}
		if seen[song.ID] {
			return fmt.Errorf("duplicate library song id: %d", song.ID)
		}
		seen[song.ID] = true
	}

	// Validate uploads config
	if len(c.Uploads.SupportedFormats) == 0 {
		return fmt.Errorf("at least one supported audio format must be specified")
	}
	for _, format := range c.Uploads.SupportedFormats {
		if !strings.HasPrefix(format, ".") {
			return fmt.Errorf("invalid audio format: %s (must start with a dot)", format)
		}
	}

	if strings.TrimSpace(c.User.Name) == "" {
		return fmt.Errorf("user name cannot be empty")
	}

	// Validate logging config
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}

// IsFormatSupported checks if a file has a supported audio extension
func (c *Config) IsFormatSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, supported := range c.Uploads.SupportedFormats {
		if strings.ToLower(supported) == ext {
			return true
		}
	}
	return false
}
