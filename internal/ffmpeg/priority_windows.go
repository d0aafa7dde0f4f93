//go:build windows

package ffmpeg

import (
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/kyleseven/ReLive-Compress/internal/config"
)

func setPriority(pid int, p config.Priority) error {
	var class uint32
	switch p {
	case config.PriorityIdle:
		class = windows.IDLE_PRIORITY_CLASS
	case config.PriorityBelowNormal:
		class = windows.BELOW_NORMAL_PRIORITY_CLASS
	case config.PriorityNormal:
		class = windows.NORMAL_PRIORITY_CLASS
	default:
		return fmt.Errorf("unknown priority %q", p)
	}

	h, err := windows.OpenProcess(windows.PROCESS_SET_INFORMATION, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("open process %d: %w", pid, err)
	}
	defer windows.CloseHandle(h)

	if err := windows.SetPriorityClass(h, class); err != nil {
		return fmt.Errorf("set priority class of %d: %w", pid, err)
	}
	return nil
}
