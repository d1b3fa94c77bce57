package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Prober reports stream metadata via ffprobe. Used by the best_quality
// keep strategy to compare bitrates within a duplicate group.
type Prober struct {
	ffprobePath string
}

// NewProber creates a Prober invoking the given ffprobe binary.
func NewProber(ffprobePath string) *Prober {
	return &Prober{ffprobePath: ffprobePath}
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	BitRate   string `json:"bit_rate"`
}

type probeFormat struct {
	BitRate string `json:"bit_rate"`
}

type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

// BitRate returns the file's overall bitrate in bits per second. When
// the container does not report one, the highest per-stream bitrate is
// used instead.
func (p *Prober) BitRate(ctx context.Context, path string) (int64, error) {
	out, err := runCommand(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("cannot probe file: %v", err)
	}

	res := &probeResult{}
	if err := json.Unmarshal(out, res); err != nil {
		return 0, fmt.Errorf("cannot parse ffprobe output: %v", err)
	}

	if rate, err := strconv.ParseInt(res.Format.BitRate, 10, 64); err == nil && rate > 0 {
		return rate, nil
	}

	var best int64
	for _, s := range res.Streams {
		if rate, err := strconv.ParseInt(s.BitRate, 10, 64); err == nil && rate > best {
			best = rate
		}
	}

	return best, nil
}
