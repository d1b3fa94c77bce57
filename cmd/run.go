package cmd

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/elgorro/DeleteDuplicatedMediaFiles/internal/cache"
	"github.com/elgorro/DeleteDuplicatedMediaFiles/internal/config"
	"github.com/elgorro/DeleteDuplicatedMediaFiles/internal/dedup"
	"github.com/elgorro/DeleteDuplicatedMediaFiles/internal/executor"
	"github.com/elgorro/DeleteDuplicatedMediaFiles/internal/media"
	"github.com/elgorro/DeleteDuplicatedMediaFiles/internal/scanner"
	"github.com/elgorro/DeleteDuplicatedMediaFiles/internal/stats"
)

// runClean drives the whole pipeline: scan, group, resolve, execute,
// report. Stages run strictly in that order; only the hashing inside
// the grouping stage fans out.
func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader().LoadForRun(cmd, args)
	if err != nil {
		return err
	}

	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()

		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	ctx := cmd.Context()
	run := stats.RunStatistics{}

	// Scanning
	records, err := scanner.Scan(cfg.Dir, scanner.Options{
		Recursive:  cfg.Recursive,
		Extensions: cfg.ExtensionSet(),
		MinSize:    cfg.MinSize,
	})
	if err != nil {
		return err
	}

	run.FilesScanned = len(records)
	log.WithFields(log.Fields{"dir": cfg.Dir, "files": len(records)}).Info("scan complete")

	if len(records) == 0 {
		log.Info("no media files found")
		return writeReport(cfg, run)
	}

	// The cache is advisory: if it cannot be opened the run degrades to
	// full recomputation.
	var hashCache dedup.HashCache
	if cfg.CacheFile != "" {
		c, err := cache.Open(cfg.CacheFile)
		if err != nil {
			log.WithError(err).Warn("hash cache unavailable, recomputing all hashes")
		} else {
			defer c.Close()
			hashCache = c
		}
	}

	// Grouping
	hasher := media.NewHasher(cfg.FFmpegPath, cfg.HashTimeout)

	result, err := dedup.Group(ctx, records, hasher, hashCache, cfg.Parallel)
	if err != nil {
		return err
	}

	run.FilesHashed = result.FilesHashed
	run.CacheHits = result.CacheHits
	run.HashFailures = result.HashFailures
	run.DuplicateGroups = len(result.Groups)

	if len(result.Groups) == 0 {
		log.Info("no duplicates found")
		return writeReport(cfg, run)
	}

	// Resolving and executing
	mode := executor.ModeDryRun
	if !cfg.DryRun {
		if cfg.TrashDir != "" {
			mode = executor.ModeTrash
		} else {
			mode = executor.ModeDelete
		}
	}

	exec, err := executor.New(mode, cfg.TrashDir)
	if err != nil {
		return err
	}

	strategy := dedup.ParseStrategy(cfg.Strategy)

	var prober dedup.Prober
	if strategy == dedup.StrategyBestQuality {
		prober = media.NewProber(cfg.FFprobePath)
	}

	for _, group := range result.Groups {
		resolution := dedup.Resolve(ctx, group, strategy, prober)

		r := exec.Apply(resolution)
		run.FilesRemoved += r.Removed
		run.BytesFreed += r.BytesFreed
		run.Errors += r.Errors
	}

	// Reporting
	log.WithFields(log.Fields{
		"files":      run.FilesScanned,
		"hashed":     run.FilesHashed,
		"cache_hits": run.CacheHits,
		"failures":   run.HashFailures,
		"groups":     run.DuplicateGroups,
		"duplicates": run.FilesRemoved,
		"space":      stats.ByteCount(run.BytesFreed),
		"mode":       mode.String(),
	}).Info("run complete")

	return writeReport(cfg, run)
}

func writeReport(cfg *config.Config, run stats.RunStatistics) error {
	if cfg.StatsFile == "" {
		return nil
	}

	return stats.Write(cfg.StatsFile, run.Report(cfg.Dir, cfg.DryRun, cfg.Strategy))
}
