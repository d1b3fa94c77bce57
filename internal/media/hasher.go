package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnreadable marks a file whose streams could not be decoded and
// hashed. Callers skip such files; they never match anything.
var ErrUnreadable = errors.New("file could not be decoded")

// DefaultHashTimeout bounds a single decode so one corrupt file cannot
// stall the whole run.
const DefaultHashTimeout = 5 * time.Minute

const digestPrefix = "MD5="

// Hasher computes content hashes by decoding a file's streams with
// ffmpeg and digesting the decoded output. Container metadata (tags,
// cover art placement, muxer differences) does not influence the digest.
//
// Each invocation is hermetic, so a Hasher is safe for concurrent use.
type Hasher struct {
	ffmpegPath string
	timeout    time.Duration
}

// NewHasher creates a Hasher invoking the given ffmpeg binary. A zero
// timeout means DefaultHashTimeout.
func NewHasher(ffmpegPath string, timeout time.Duration) *Hasher {
	if timeout <= 0 {
		timeout = DefaultHashTimeout
	}

	return &Hasher{
		ffmpegPath: ffmpegPath,
		timeout:    timeout,
	}
}

// Hash returns the hex digest of the file's decoded streams.
// Decode failures, malformed decoder output and timeouts all classify
// as ErrUnreadable.
func (h *Hasher) Hash(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	// -err_detect ignore_err keeps ffmpeg going over recoverable stream
	// damage instead of aborting the whole decode.
	out, err := runCommand(ctx, h.ffmpegPath,
		"-v", "error",
		"-err_detect", "ignore_err",
		"-i", path,
		"-map", "0",
		"-f", "md5", "-",
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s: decode timed out after %s", ErrUnreadable, path, h.timeout)
		}

		return "", fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	digest, ok := parseDigest(out)
	if !ok {
		return "", fmt.Errorf("%w: %s: unexpected decoder output %q", ErrUnreadable, path, strings.TrimSpace(string(out)))
	}

	return digest, nil
}

// parseDigest extracts the digest from ffmpeg's "MD5=<hex>" output line.
// Anything that does not match the expected shape is rejected so a
// partial or garbled decode is never mistaken for a valid hash.
func parseDigest(out []byte) (string, bool) {
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, digestPrefix) {
			continue
		}

		digest := strings.ToLower(strings.TrimPrefix(line, digestPrefix))
		if !isHexDigest(digest) {
			return "", false
		}

		return digest, true
	}

	return "", false
}

func isHexDigest(s string) bool {
	if len(s) != 32 {
		return false
	}

	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}

	return true
}
