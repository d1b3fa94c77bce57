package dedup

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/elgorro/DeleteDuplicatedMediaFiles/internal/scanner"
)

// Strategy selects which member of a duplicate group to keep.
type Strategy string

// Keep strategies. All ties break towards the scan-order-first member.
const (
	StrategyFirst       Strategy = "first"
	StrategyLast        Strategy = "last"
	StrategyLargest     Strategy = "largest"
	StrategySmallest    Strategy = "smallest"
	StrategyBestQuality Strategy = "best_quality"
)

// ParseStrategy normalizes a strategy name. Unknown names fall back to
// StrategyFirst.
func ParseStrategy(s string) Strategy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "last":
		return StrategyLast
	case "largest":
		return StrategyLargest
	case "smallest":
		return StrategySmallest
	case "best_quality", "bestquality", "best-quality":
		return StrategyBestQuality
	case "first", "":
		return StrategyFirst
	default:
		log.WithField("strategy", s).Warn("unknown keep strategy, falling back to first")
		return StrategyFirst
	}
}

// Prober reports the bitrate of a file, used by StrategyBestQuality.
type Prober interface {
	BitRate(ctx context.Context, path string) (int64, error)
}

// Resolution classifies a duplicate group into one keeper and the
// members to remove.
type Resolution struct {
	Group    DuplicateGroup
	Keeper   scanner.FileRecord
	Removals []scanner.FileRecord
}

// Resolve selects a keeper from the group per the strategy. It is
// query-only: the filesystem is never touched here. The bitrate probe
// for best_quality runs serially per member; probe failures demote the
// member to bitrate zero so the first-member tie-break decides.
func Resolve(ctx context.Context, group DuplicateGroup, strategy Strategy, prober Prober) Resolution {
	keep := 0

	switch strategy {
	case StrategyLast:
		keep = len(group.Members) - 1

	case StrategyLargest:
		for i, m := range group.Members {
			if m.Size > group.Members[keep].Size {
				keep = i
			}
		}

	case StrategySmallest:
		for i, m := range group.Members {
			if m.Size < group.Members[keep].Size {
				keep = i
			}
		}

	case StrategyBestQuality:
		best := int64(-1)
		for i, m := range group.Members {
			rate := int64(0)
			if prober != nil {
				r, err := prober.BitRate(ctx, m.Path)
				if err != nil {
					log.WithError(err).WithField("path", m.Path).Warn("bitrate probe failed")
				} else {
					rate = r
				}
			}

			if rate > best {
				best = rate
				keep = i
			}
		}
	}

	res := Resolution{
		Group:  group,
		Keeper: group.Members[keep],
	}

	for i, m := range group.Members {
		if i != keep {
			res.Removals = append(res.Removals, m)
		}
	}

	return res
}
