package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Loader handles configuration loading from various sources
type Loader struct{}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadForRun loads configuration for a cleaning run, layering defaults,
// the global config file, a local config file found near the target
// directory, and finally the command flags.
func (l *Loader) LoadForRun(cmd *cobra.Command, args []string) (*Config, error) {
	l.setupViperDefaults()
	l.loadGlobalConfig()
	l.loadLocalConfig(args)
	l.bindCommandFlags(cmd)

	var dir string
	if len(args) > 0 {
		dir = args[0]
	}

	cfg, err := Load(dir)
	if err != nil {
		return nil, err
	}

	// An explicit --dry-run always wins over --force/--delete.
	if cmd.Flags().Changed("dry-run") {
		if v, err := cmd.Flags().GetBool("dry-run"); err == nil {
			cfg.DryRun = v
		}
	}

	return cfg, nil
}

// setupViperDefaults sets up default values for viper
func (l *Loader) setupViperDefaults() {
	viper.SetDefault("ffmpeg", DefaultFFmpegPath)
	viper.SetDefault("ffprobe", DefaultFFprobePath)
	viper.SetDefault("keep", DefaultStrategy)
	viper.SetDefault("extensions", strings.Join(DefaultExtensions, ","))
	viper.SetDefault("parallel", 1)
	viper.SetDefault("min_size", DefaultMinSize)
	viper.SetDefault("hash_timeout", DefaultHashTimeout)
}

// loadGlobalConfig loads the global configuration file, if any
func (l *Loader) loadGlobalConfig() {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return
	}

	globalDir := filepath.Join(configDir, "ddmf")

	for _, ext := range []string{"yml", "yaml", "json", "toml"} {
		globalPath := filepath.Join(globalDir, "config."+ext)

		if _, err := os.Stat(globalPath); err == nil {
			viper.SetConfigFile(globalPath)

			if err := viper.ReadInConfig(); err == nil {
				break
			}
		}
	}
}

// loadLocalConfig loads local configuration found near the target directory
func (l *Loader) loadLocalConfig(args []string) {
	if len(args) > 0 {
		absDir, err := filepath.Abs(args[0])
		if err != nil {
			return // silently ignore, Load() will handle validation
		}

		localPath := FindLocalConfig(absDir)
		if localPath != "" {
			viper.SetConfigFile(localPath)
			_ = viper.ReadInConfig()
		}
	}
}

// bindCommandFlags binds command flags to viper
func (l *Loader) bindCommandFlags(cmd *cobra.Command) {
	_ = viper.BindPFlag("force", cmd.Flags().Lookup("force"))
	_ = viper.BindPFlag("delete", cmd.Flags().Lookup("delete"))
	_ = viper.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))
	_ = viper.BindPFlag("keep", cmd.Flags().Lookup("keep"))
	_ = viper.BindPFlag("extensions", cmd.Flags().Lookup("extensions"))
	_ = viper.BindPFlag("parallel", cmd.Flags().Lookup("parallel"))
	_ = viper.BindPFlag("cache", cmd.Flags().Lookup("cache"))
	_ = viper.BindPFlag("trash", cmd.Flags().Lookup("trash"))
	_ = viper.BindPFlag("no_recursive", cmd.Flags().Lookup("no-recursive"))
	_ = viper.BindPFlag("min_size", cmd.Flags().Lookup("min-size"))
	_ = viper.BindPFlag("log", cmd.Flags().Lookup("log"))
	_ = viper.BindPFlag("stats", cmd.Flags().Lookup("stats"))
	_ = viper.BindPFlag("ffmpeg", cmd.Flags().Lookup("ffmpeg"))
	_ = viper.BindPFlag("ffprobe", cmd.Flags().Lookup("ffprobe"))
}
