//go:build !windows

package fileattr

import "time"

const (
	// CreationTimeSupported reports whether RestoreTimes also sets creation time.
	CreationTimeSupported = false
	// HiddenSupported reports whether the hidden attribute exists.
	HiddenSupported = false
)

func setCreationTime(string, time.Time) error { return nil }

func isHidden(string) (bool, error) { return false, nil }

func setHidden(string, bool) error { return nil }
