//go:build windows

package fileattr

import (
	"errors"
	"os"
	"time"

	"golang.org/x/sys/windows"
)

const (
	// CreationTimeSupported reports whether RestoreTimes also sets creation time.
	CreationTimeSupported = true
	// HiddenSupported reports whether the hidden attribute exists.
	HiddenSupported = true
)

func setCreationTime(path string, t time.Time) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	h, err := windows.CreateFile(p,
		windows.FILE_WRITE_ATTRIBUTES,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil, windows.OPEN_EXISTING, windows.FILE_ATTRIBUTE_NORMAL, 0)
	if err != nil {
		return &os.PathError{Op: "CreateFile", Path: path, Err: err}
	}
	defer windows.CloseHandle(h)

	ft := windows.NsecToFiletime(t.UnixNano())
	if err := windows.SetFileTime(h, &ft, nil, nil); err != nil {
		return &os.PathError{Op: "SetFileTime", Path: path, Err: err}
	}
	return nil
}

func isHidden(path string) (bool, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false, err
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		if errors.Is(err, windows.ERROR_FILE_NOT_FOUND) || errors.Is(err, windows.ERROR_PATH_NOT_FOUND) {
			return false, nil
		}
		return false, err
	}
	return attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0, nil
}

func setHidden(path string, hidden bool) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return err
	}
	if hidden {
		attrs |= windows.FILE_ATTRIBUTE_HIDDEN
	} else {
		attrs &^= windows.FILE_ATTRIBUTE_HIDDEN
	}
	return windows.SetFileAttributes(p, attrs)
}
