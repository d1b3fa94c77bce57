// Package stats accumulates run counters and exports the final report.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// RunStatistics aggregates the counters of one run.
type RunStatistics struct {
	FilesScanned    int
	FilesHashed     int
	CacheHits       int
	HashFailures    int
	DuplicateGroups int
	FilesRemoved    int
	BytesFreed      int64
	Errors          int
}

// Report is the JSON document written by --stats.
type Report struct {
	Timestamp       time.Time `json:"timestamp"`
	Directory       string    `json:"directory"`
	TotalFiles      int       `json:"total_files"`
	DuplicatesFound int       `json:"duplicates_found"`
	SpaceSavedBytes int64     `json:"space_saved_bytes"`
	DryRun          bool      `json:"dry_run"`
	KeepStrategy    string    `json:"keep_strategy"`
	FilesHashed     int       `json:"files_hashed"`
	CacheHits       int       `json:"cache_hits"`
	HashFailures    int       `json:"hash_failures"`
	DuplicateGroups int       `json:"duplicate_groups"`
	Errors          int       `json:"errors"`
}

// Report builds the export snapshot for a finished run.
func (s RunStatistics) Report(directory string, dryRun bool, strategy string) Report {
	return Report{
		Timestamp:       time.Now(),
		Directory:       directory,
		TotalFiles:      s.FilesScanned,
		DuplicatesFound: s.FilesRemoved,
		SpaceSavedBytes: s.BytesFreed,
		DryRun:          dryRun,
		KeepStrategy:    strategy,
		FilesHashed:     s.FilesHashed,
		CacheHits:       s.CacheHits,
		HashFailures:    s.HashFailures,
		DuplicateGroups: s.DuplicateGroups,
		Errors:          s.Errors,
	}
}

// Write stores the report as indented JSON at path.
func Write(path string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode statistics: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write statistics file: %w", err)
	}

	return nil
}

// ByteCount renders a byte count in decimal units (kB, MB, ...).
func ByteCount(b int64) string {
	const unit = 1000
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}

	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "kMGTPE"[exp])
}
