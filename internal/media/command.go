// Package media wraps the external ffmpeg/ffprobe binaries behind typed
// hashing and probing primitives.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// runCommand executes an external tool, capturing stdout and stderr
// separately. It is a package variable so tests can substitute a fake.
var runCommand = func(ctx context.Context, name string, arg ...string) ([]byte, error) {
	var cmdOut bytes.Buffer
	var cmdErr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, arg...)
	cmd.Stdout = &cmdOut
	cmd.Stderr = &cmdErr

	log.WithField("cmd", cmd.String()).Debug("running command")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%v: %s", err, strings.TrimSpace(cmdErr.String()))
	}

	return cmdOut.Bytes(), nil
}
