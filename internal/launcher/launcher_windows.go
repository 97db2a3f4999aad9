//go:build windows

package launcher

import (
	"fmt"
	"syscall"
	"unsafe"
)

var (
	shell32         = syscall.NewLazyDLL("shell32.dll")
	shellExecuteExW = shell32.NewProc("ShellExecuteExW")
)

const swShowNormal = 1

// shellExecuteInfo mirrors SHELLEXECUTEINFOW.
// https://docs.microsoft.com/en-us/windows/win32/api/shellapi/ns-shellapi-shellexecuteinfow
type shellExecuteInfo struct {
	cbSize         uint32
	fMask          uint32
	hwnd           uintptr
	lpVerb         *uint16
	lpFile         *uint16
	lpParameters   *uint16
	lpDirectory    *uint16
	nShow          int32
	hInstApp       uintptr
	lpIDList       uintptr
	lpClass        *uint16
	hkeyClass      uintptr
	dwHotKey       uint32
	hIconOrMonitor uintptr
	hProcess       uintptr
}

// launch uses ShellExecuteExW with the "open" verb so .msc snap-ins go
// through mmc.exe.
func launch(path string) error {
	verbPtr, err := syscall.UTF16PtrFromString("open")
	if err != nil {
		return fmt.Errorf("failed to convert verb: %w", err)
	}
	filePtr, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return fmt.Errorf("failed to convert path: %w", err)
	}

	sei := shellExecuteInfo{
		cbSize: uint32(unsafe.Sizeof(shellExecuteInfo{})),
		lpVerb: verbPtr,
		lpFile: filePtr,
		nShow:  swShowNormal,
	}

	ret, _, err := shellExecuteExW.Call(uintptr(unsafe.Pointer(&sei)))
	if ret == 0 {
		if err != nil && err != syscall.Errno(0) {
			return fmt.Errorf("ShellExecuteExW failed: %w", err)
		}
		return fmt.Errorf("ShellExecuteExW failed with unknown error")
	}
	return nil
}
