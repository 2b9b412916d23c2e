//go:build windows

package thread

// closeFD/readFD/writeFD exist only so block.go compiles on every
// platform; the self-pipe is implemented with a Win32 event object on
// Windows instead (see block_windows.go), so these are never called with
// a valid descriptor there.
func closeFD(fd int) error { return nil }

func readFD(fd int, buf []byte) (int, error) { return 0, nil }

func writeFD(fd int, buf []byte) (int, error) { return 0, nil }
