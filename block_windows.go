//go:build windows

package thread

import "golang.org/x/sys/windows"

// On Windows there is no eventfd/self-pipe equivalent; the block primitive
// uses a manual-reset event object instead. createWakeFD returns the event
// handle twice (as both "read" and "write" ends) so the rest of block.go
// can stay platform-agnostic: it only ever calls notifyWakeFD/drainWakeFD,
// never readFD/writeFD directly, on this build.
func createWakeFD() (read, write int, err error) {
	h, err := windows.CreateEvent(nil, 1 /* manual reset */, 0, nil)
	if err != nil {
		return -1, -1, err
	}
	fd := int(h)
	return fd, fd, nil
}

func notifyWakeFD(write int) error {
	return windows.SetEvent(windows.Handle(write))
}

func drainWakeFD(read int) {
	_ = windows.ResetEvent(windows.Handle(read))
}

func closeWakeFD(read, write int) error {
	return windows.CloseHandle(windows.Handle(read))
}

// waitWakeFD blocks until the event is signaled or timeoutMS elapses;
// timeoutMS < 0 means wait indefinitely (windows.INFINITE).
func waitWakeFD(read int, timeoutMS int) (ready bool, err error) {
	ms := uint32(windows.INFINITE)
	if timeoutMS >= 0 {
		ms = uint32(timeoutMS)
	}
	ev, err := windows.WaitForSingleObject(windows.Handle(read), ms)
	if err != nil {
		return false, err
	}
	return ev == windows.WAIT_OBJECT_0, nil
}
