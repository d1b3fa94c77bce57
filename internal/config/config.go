package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values
const (
	DefaultFFmpegPath  = "ffmpeg"
	DefaultFFprobePath = "ffprobe"
	DefaultStrategy    = "first"
	DefaultMinSize     = 1
	DefaultHashTimeout = 5 * time.Minute
)

// DefaultExtensions covers the common audio and video containers.
var DefaultExtensions = []string{
	"mp3", "flac", "wav", "ogg", "m4a", "aac", "opus", "wma",
	"mp4", "mkv", "avi", "mov", "webm", "m4v", "mpg", "mpeg", "wmv", "flv",
}

// Holds the configuration options for one run
type Config struct {
	// Target directory to scan
	Dir string

	// Preview actions without touching the filesystem
	DryRun bool

	// Enable verbose output
	Verbose bool

	// Keeper selection strategy (first, last, largest, smallest, best_quality)
	Strategy string

	// Extension allowlist, lowercase without leading dots. Empty means all files.
	Extensions []string

	// Number of parallel hashing workers
	Parallel int

	// Path to the persistent hash cache; empty disables caching
	CacheFile string

	// Move removals here instead of deleting
	TrashDir string

	// Descend into subdirectories
	Recursive bool

	// Minimum file size in bytes to consider
	MinSize int64

	// Duplicate log output to this file
	LogFile string

	// Write the final run statistics as JSON to this file
	StatsFile string

	// Paths to the decoder binaries
	FFmpegPath  string
	FFprobePath string

	// Upper bound for a single decode invocation
	HashTimeout time.Duration
}

// Load materializes a Config for the given target directory from the
// current viper state.
func Load(dir string) (*Config, error) {
	cfg := &Config{
		Dir:         dir,
		DryRun:      !(viper.GetBool("force") || viper.GetBool("delete")),
		Verbose:     viper.GetBool("verbose"),
		Strategy:    viper.GetString("keep"),
		Extensions:  ParseExtensions(viper.GetString("extensions")),
		Parallel:    viper.GetInt("parallel"),
		CacheFile:   viper.GetString("cache"),
		TrashDir:    viper.GetString("trash"),
		Recursive:   !viper.GetBool("no_recursive"),
		MinSize:     viper.GetInt64("min_size"),
		LogFile:     viper.GetString("log"),
		StatsFile:   viper.GetString("stats"),
		FFmpegPath:  viper.GetString("ffmpeg"),
		FFprobePath: viper.GetString("ffprobe"),
		HashTimeout: viper.GetDuration("hash_timeout"),
	}

	// Apply defaults if not set
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = DefaultFFmpegPath
	}

	if cfg.FFprobePath == "" {
		cfg.FFprobePath = DefaultFFprobePath
	}

	if cfg.Strategy == "" {
		cfg.Strategy = DefaultStrategy
	}

	if cfg.HashTimeout <= 0 {
		cfg.HashTimeout = DefaultHashTimeout
	}

	if cfg.Parallel < 1 {
		cfg.Parallel = 1
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("target directory is required")
	}

	if abs, err := filepath.Abs(c.Dir); err == nil {
		c.Dir = abs
	}

	info, err := os.Stat(c.Dir)
	if err != nil {
		return fmt.Errorf("target directory does not exist: %s", c.Dir)
	}

	if !info.IsDir() {
		return fmt.Errorf("target is not a directory: %s", c.Dir)
	}

	// Resolve output paths
	if c.TrashDir != "" {
		abs, err := filepath.Abs(c.TrashDir)
		if err != nil {
			return fmt.Errorf("invalid trash directory path: %v", err)
		}

		c.TrashDir = abs
	}

	if c.CacheFile != "" {
		abs, err := filepath.Abs(c.CacheFile)
		if err != nil {
			return fmt.Errorf("invalid cache file path: %v", err)
		}

		c.CacheFile = abs
	}

	if c.MinSize < 0 {
		return fmt.Errorf("minimum size cannot be negative")
	}

	return nil
}

// ExtensionSet returns the allowlist as a lookup set. Nil means no
// filtering.
func (c *Config) ExtensionSet() map[string]struct{} {
	if len(c.Extensions) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(c.Extensions))
	for _, ext := range c.Extensions {
		set[ext] = struct{}{}
	}

	return set
}

// ParseExtensions splits a comma-separated allowlist, normalizing each
// entry to lowercase without a leading dot. The special value "all"
// disables filtering.
func ParseExtensions(list string) []string {
	if strings.EqualFold(strings.TrimSpace(list), "all") {
		return nil
	}

	var exts []string
	for _, part := range strings.Split(list, ",") {
		ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(part), "."))
		if ext != "" {
			exts = append(exts, ext)
		}
	}

	return exts
}
