//go:build unix

package ffmpeg

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/kyleseven/ReLive-Compress/internal/config"
)

// niceness maps a priority onto a nice value.
var niceness = map[config.Priority]int{
	config.PriorityNormal:      0,
	config.PriorityBelowNormal: 10,
	config.PriorityIdle:        19,
}

func setPriority(pid int, p config.Priority) error {
	n, ok := niceness[p]
	if !ok {
		return fmt.Errorf("unknown priority %q", p)
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, pid, n); err != nil {
		return fmt.Errorf("setpriority %d: %w", pid, err)
	}
	return nil
}
