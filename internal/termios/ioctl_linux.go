package termios

// Linux ioctl request numbers. Trimmed from the teacher goserial library's
// ioctl_linux.go down to the handful this package actually issues: getting
// and setting termios attributes, and reading/setting modem control lines
// (used for the DTR/DSR reset handshake).
var (
	tcgets = uintptr(0x5401)
	tcsets = uintptr(0x5402)

	tiocmget = uintptr(0x5415) // get status
	tiocmbis = uintptr(0x5416) // set indicated bits
	tiocmbic = uintptr(0x5417) // clear indicated bits
)
