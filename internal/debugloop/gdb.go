package debugloop

import (
	"context"
	"fmt"
	"net"
)

// startGDBListener opens a localhost TCP listener on port and returns a
// channel of accepted connections forwarded as gdbConn. Bytes read from an
// accepted connection are sent to the device as GDB-tagged U-packets by a
// dedicated per-connection reader goroutine; listener and readers stop when
// ctx is canceled.
func startGDBListener(ctx context.Context, port int) (<-chan gdbConn, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, err
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	accepted := make(chan gdbConn)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			select {
			case accepted <- conn:
			case <-ctx.Done():
				conn.Close()
				return
			}
		}
	}()
	return accepted, nil
}

// readGDBConn forwards bytes read from conn to the device as GDB U-packets
// until the connection closes or ctx is canceled.
func (l *Loop) readGDBConn(ctx context.Context, conn net.Conn) {
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, err := conn.Read(buf)
		if n > 0 {
			l.sendUSBPacket(usbTypeGDB, append([]byte(nil), buf[:n]...))
		}
		if err != nil {
			return
		}
	}
}
