package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFFmpeg writes a shell script that mimics ffmpeg's md5 muxer by
// hashing the raw bytes of the -i argument. Good enough for exercising
// the pipeline end to end without a real decoder.
func fakeFFmpeg(t *testing.T) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake decoder script requires a POSIX shell")
	}

	script := filepath.Join(t.TempDir(), "fake-ffmpeg")
	body := `#!/bin/sh
while [ $# -gt 0 ]; do
  if [ "$1" = "-i" ]; then shift; FILE="$1"; fi
  shift
done
printf 'MD5=%s\n' "$(md5sum "$FILE" | cut -d' ' -f1)"
`
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	return script
}

func execute(t *testing.T, args ...string) error {
	t.Helper()

	// Flag and viper state leak between Execute calls on the shared
	// root command; reset both so each case starts clean.
	viper.Reset()
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})

	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

func TestRunMissingDirectory(t *testing.T) {
	err := execute(t, filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestRunNoArguments(t *testing.T) {
	err := execute(t)
	assert.Error(t, err)
}

func TestRunNoMediaFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))

	statsFile := filepath.Join(t.TempDir(), "stats.json")

	// Default extension filter ignores the .txt file; the run succeeds
	// with zero candidates.
	err := execute(t, dir, "--stats", statsFile)
	require.NoError(t, err)

	data, err := os.ReadFile(statsFile)
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, float64(0), report["total_files"])
	assert.Equal(t, float64(0), report["duplicates_found"])
}

func TestRunDryRunDetectsByteIdenticalCopies(t *testing.T) {
	ffmpeg := fakeFFmpeg(t)

	dir := t.TempDir()
	content := []byte("RIFF....WAVEfmt duplicated content")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.wav"), content, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.wav"), content, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.wav"), []byte("different content"), 0o644))

	statsFile := filepath.Join(t.TempDir(), "stats.json")

	err := execute(t, dir, "--ffmpeg", ffmpeg, "--stats", statsFile, "--dry-run")
	require.NoError(t, err)

	// Dry run: everything still in place.
	assert.FileExists(t, filepath.Join(dir, "a.wav"))
	assert.FileExists(t, filepath.Join(dir, "b.wav"))
	assert.FileExists(t, filepath.Join(dir, "c.wav"))

	data, err := os.ReadFile(statsFile)
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, float64(3), report["total_files"])
	assert.Equal(t, float64(1), report["duplicate_groups"])
	assert.Equal(t, float64(1), report["duplicates_found"])
	assert.Equal(t, true, report["dry_run"])
}

func TestRunForceRemovesDuplicates(t *testing.T) {
	ffmpeg := fakeFFmpeg(t)

	dir := t.TempDir()
	content := []byte("same decoded bytes")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.wav"), content, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.wav"), content, 0o644))

	err := execute(t, dir, "--ffmpeg", ffmpeg, "--force")
	require.NoError(t, err)

	// The scan-order-first file is the keeper by default.
	assert.FileExists(t, filepath.Join(dir, "a.wav"))
	assert.NoFileExists(t, filepath.Join(dir, "b.wav"))
}

func TestRunTrashMode(t *testing.T) {
	ffmpeg := fakeFFmpeg(t)

	dir := t.TempDir()
	trash := filepath.Join(t.TempDir(), "trash")
	content := []byte("same decoded bytes")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.wav"), content, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.wav"), content, 0o644))

	err := execute(t, dir, "--ffmpeg", ffmpeg, "--force", "--trash", trash)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "a.wav"))
	assert.NoFileExists(t, filepath.Join(dir, "b.wav"))
	assert.FileExists(t, filepath.Join(trash, "b.wav"))
}

func TestRunCacheSkipsRehash(t *testing.T) {
	ffmpeg := fakeFFmpeg(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.wav"), []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.wav"), []byte("two"), 0o644))

	cacheFile := filepath.Join(t.TempDir(), "hashes.db")
	statsFile := filepath.Join(t.TempDir(), "stats.json")

	err := execute(t, dir, "--ffmpeg", ffmpeg, "--cache", cacheFile, "--stats", statsFile)
	require.NoError(t, err)

	// Second run over the unchanged tree is served from the cache.
	err = execute(t, dir, "--ffmpeg", ffmpeg, "--cache", cacheFile, "--stats", statsFile)
	require.NoError(t, err)

	data, err := os.ReadFile(statsFile)
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, float64(2), report["cache_hits"])
	assert.Equal(t, float64(0), report["files_hashed"])
}

func TestRunKeepLargest(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake decoder script requires a POSIX shell")
	}

	// A decoder stub that reports the same hash for every file, so
	// files of different sizes land in one group.
	script := filepath.Join(t.TempDir(), "fake-ffmpeg")
	body := "#!/bin/sh\nprintf 'MD5=0123456789abcdef0123456789abcdef\\n'\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.wav"), make([]byte, 100), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.wav"), make([]byte, 300), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.wav"), make([]byte, 200), 0o644))

	err := execute(t, dir, "--ffmpeg", script, "--force", "--keep", "largest")
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "a.wav"))
	assert.FileExists(t, filepath.Join(dir, "b.wav"), "largest member is the keeper")
	assert.NoFileExists(t, filepath.Join(dir, "c.wav"))
}

func TestVersionString(t *testing.T) {
	assert.NotEmpty(t, rootCmd.Version)
	assert.Equal(t, fmt.Sprintf("%s (%s) %s", "dev", "none", "unknown"), rootCmd.Version)
}
