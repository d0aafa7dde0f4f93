//go:build !unix && !windows

package ffmpeg

import (
	"errors"

	"github.com/kyleseven/ReLive-Compress/internal/config"
)

func setPriority(int, config.Priority) error {
	return errors.New("process priority not supported on this platform")
}
