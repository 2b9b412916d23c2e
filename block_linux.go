//go:build linux

package thread

import "golang.org/x/sys/unix"

// createWakeFD creates an eventfd for self-block wakeups on Linux. The
// returned read and write descriptors are the same fd, matching eventfd's
// single-descriptor semantics (spec.md §4.6, §6: "two descriptors created
// lazily" — on Linux this collapses to one, same as the teacher's
// wakeup_linux.go).
func createWakeFD() (read, write int, err error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return -1, -1, err
	}
	return fd, fd, nil
}

func notifyWakeFD(write int) error {
	var buf [8]byte
	buf[0] = 1
	_, err := writeFD(write, buf[:])
	return err
}

func drainWakeFD(read int) {
	var buf [8]byte
	for {
		if _, err := readFD(read, buf[:]); err != nil {
			return
		}
	}
}

func closeWakeFD(read, write int) error {
	return closeFD(read)
}

// waitWakeFD blocks (via poll, since the fd itself is non-blocking) until
// the wake fd becomes readable or timeoutMS elapses; timeoutMS < 0 means
// wait indefinitely. This is the actual sleep in Block/TimedBlock — the
// fd is kept non-blocking so drainWakeFD's loop can safely coalesce
// multiple pending wakeups without itself ever blocking.
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
