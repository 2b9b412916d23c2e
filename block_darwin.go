//go:build darwin

package thread

import "golang.org/x/sys/unix"

// createWakeFD opens a classic self-pipe on Darwin, where eventfd does not
// exist (spec.md §4.6, §9). Both ends are set non-blocking and
// close-on-exec.
func createWakeFD() (read, write int, err error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return -1, -1, err
	}
	for _, fd := range fds {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			_ = unix.Close(fds[0])
			_ = unix.Close(fds[1])
			return -1, -1, err
		}
	}
	return fds[0], fds[1], nil
}

func notifyWakeFD(write int) error {
	var buf [1]byte
	_, err := writeFD(write, buf[:])
	return err
}

func drainWakeFD(read int) {
	var buf [64]byte
	for {
		if _, err := readFD(read, buf[:]); err != nil {
			return
		}
	}
}

func closeWakeFD(read, write int) error {
	_ = closeFD(write)
	return closeFD(read)
}

// waitWakeFD blocks (via poll, since the fd itself is non-blocking) until
// the wake fd becomes readable or timeoutMS elapses; timeoutMS < 0 means
// wait indefinitely.
func waitWakeFD(read int, timeoutMS int) (ready bool, err error) {
	fds := []unix.PollFd{{Fd: int32(read), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, timeoutMS)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
}
