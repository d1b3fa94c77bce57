package cmd

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elgorro/DeleteDuplicatedMediaFiles/internal/config"
	"github.com/elgorro/DeleteDuplicatedMediaFiles/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "ddmf [flags] DIRECTORY",
	Short: "Delete duplicated media files",
	Long: `Finds and removes duplicate media files by hashing the decoded
audio/video streams, so files that differ only in tags, container format
or file name are still detected as duplicates. Dry-run by default.`,
	RunE:         runClean,
	SilenceUsage: true,
	Args:         cobra.ExactArgs(1),
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (%s) %s", version.Version, version.Commit, version.BuildTime)

	rootCmd.Flags().Bool("dry-run", true, "Preview actions without touching the filesystem")
	rootCmd.Flags().BoolP("force", "f", false, "Actually remove duplicates (disables dry-run)")
	rootCmd.Flags().Bool("delete", false, "Alias for --force")
	rootCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.Flags().StringP("keep", "k", config.DefaultStrategy, "Keeper strategy: first, last, largest, smallest, best_quality")
	rootCmd.Flags().StringP("extensions", "e", strings.Join(config.DefaultExtensions, ","), "Comma-separated extension allowlist, or 'all'")
	rootCmd.Flags().IntP("parallel", "p", 1, "Number of parallel hashing workers")
	rootCmd.Flags().String("cache", "", "Persistent hash cache file")
	rootCmd.Flags().String("trash", "", "Move removals into this directory instead of deleting")
	rootCmd.Flags().Bool("no-recursive", false, "Only consider top-level files")
	rootCmd.Flags().Int64("min-size", config.DefaultMinSize, "Minimum file size in bytes to consider")
	rootCmd.Flags().String("log", "", "Duplicate log output to this file")
	rootCmd.Flags().String("stats", "", "Write final run statistics as JSON to this file")
	rootCmd.Flags().String("ffmpeg", config.DefaultFFmpegPath, "Path to the ffmpeg binary")
	rootCmd.Flags().String("ffprobe", config.DefaultFFprobePath, "Path to the ffprobe binary")

	// --parallel without a value means one worker per CPU.
	rootCmd.Flags().Lookup("parallel").NoOptDefVal = strconv.Itoa(runtime.NumCPU())
}
