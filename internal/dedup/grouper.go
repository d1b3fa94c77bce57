// Package dedup groups content-identical files and selects which member
// of each group to keep.
package dedup

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/elgorro/DeleteDuplicatedMediaFiles/internal/scanner"
)

// Hasher computes a content hash for a file.
type Hasher interface {
	Hash(ctx context.Context, path string) (string, error)
}

// HashCache is an optional store of previously computed hashes.
type HashCache interface {
	Lookup(path string, size int64, modTime time.Time) (string, bool)
	Store(path string, size int64, modTime time.Time, hash string) error
}

// DuplicateGroup is a set of two or more files sharing a content hash.
// Members keep their scan order.
type DuplicateGroup struct {
	Hash    string
	Members []scanner.FileRecord
}

// GroupResult carries the groups plus the hashing-phase counters.
type GroupResult struct {
	Groups       []DuplicateGroup
	FilesHashed  int
	CacheHits    int
	HashFailures int
}

// Group computes a content hash for every record (cache-first) and
// partitions the records by equal hash, emitting only partitions with
// two or more members.
//
// Hashing fans out over an errgroup bounded to workers goroutines; each
// worker writes only to its own slot of a pre-sized result slice, so
// parallelism affects throughput but never the emitted grouping or
// ordering, which always follow scan order. Records whose hashing fails
// are counted and excluded entirely; a failed hash never matches
// another failed hash.
func Group(ctx context.Context, records []scanner.FileRecord, hasher Hasher, hc HashCache, workers int) (GroupResult, error) {
	if workers < 1 {
		workers = 1
	}

	hashes := make([]string, len(records))
	cached := make([]bool, len(records))
	failed := make([]bool, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			if hc != nil {
				if hash, ok := hc.Lookup(rec.Path, rec.Size, rec.ModifiedAt); ok {
					log.WithFields(log.Fields{"path": rec.Path, "hash": hash}).Debug("cache hit")
					hashes[i] = hash
					cached[i] = true
					return nil
				}
			}

			hash, err := hasher.Hash(ctx, rec.Path)
			if err != nil {
				log.WithError(err).WithField("path", rec.Path).Warn("skipping unhashable file")
				failed[i] = true
				return nil
			}

			log.WithFields(log.Fields{"path": rec.Path, "hash": hash}).Debug("hashed file")
			hashes[i] = hash

			if hc != nil {
				if err := hc.Store(rec.Path, rec.Size, rec.ModifiedAt, hash); err != nil {
					log.WithError(err).WithField("path", rec.Path).Warn("failed to cache hash")
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return GroupResult{}, err
	}

	result := GroupResult{}
	byHash := make(map[string][]scanner.FileRecord)
	var order []string

	// Partition in scan order so group ordering is deterministic.
	for i, rec := range records {
		switch {
		case failed[i]:
			result.HashFailures++
			continue
		case cached[i]:
			result.CacheHits++
		default:
			result.FilesHashed++
		}

		if _, seen := byHash[hashes[i]]; !seen {
			order = append(order, hashes[i])
		}
		byHash[hashes[i]] = append(byHash[hashes[i]], rec)
	}

	for _, hash := range order {
		members := byHash[hash]
		if len(members) < 2 {
			continue
		}

		result.Groups = append(result.Groups, DuplicateGroup{
			Hash:    hash,
			Members: members,
		})
	}

	return result, nil
}
