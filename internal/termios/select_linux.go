package termios

import "syscall"

// fdSetZero and fdSetSet build the fd_set bitmap select(2) expects; Go's
// syscall package exposes the struct but not the usual FD_ZERO/FD_SET macros.
func fdSetZero(fds *syscall.FdSet) {
	for i := range fds.Bits {
		fds.Bits[i] = 0
	}
}

func fdSetSet(fds *syscall.FdSet, fd int) {
	fds.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

func syscallSelect(nfd int, r, w, e *syscall.FdSet, timeout *syscall.Timeval) (int, error) {
	return syscall.Select(nfd, r, w, e, timeout)
}
