// Package debugloop multiplexes the cart's asynchronous packet stream into
// 64DD disk service, IS-Viewer text, USB debug datatypes, a GDB TCP tunnel,
// and button-driven disk swapping, for the lifetime of a debug session.
package debugloop

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	sc64 "github.com/flashcart64/sc64ctl"
	"github.com/flashcart64/sc64ctl/internal/dd64"
	"github.com/flashcart64/sc64ctl/internal/engine"
	"github.com/flashcart64/sc64ctl/internal/link"
)

// Config holds the setup parameters for a debug session.
type Config struct {
	ISVAddress uint32
	DiskPaths  []string
	GDBPort    int
}

// Loop drives a single debug session against one open Engine.
type Loop struct {
	eng   *engine.Engine
	cfg   Config
	disks []*dd64.Image

	diskIndex   int
	loadedDisk  int // -1 when no disk is inserted
	lineBuf     []byte
	lastHeader  []byte

	gdbMu   sync.Mutex
	gdbConn gdbConn
}

// gdbConn is satisfied by *net.TCPConn; kept as an interface so tests can
// substitute a fake.
type gdbConn interface {
	Write([]byte) (int, error)
	Close() error
}

// New prepares a debug session: enabling ISV output and loading any disks
// named in cfg, validating they share a single drive type.
func New(eng *engine.Engine, cfg Config) (*Loop, error) {
	l := &Loop{eng: eng, cfg: cfg, loadedDisk: -1}

	if cfg.ISVAddress != 0 {
		if err := eng.SetConfig(engine.RomWriteEnable, 1); err != nil {
			return nil, err
		}
		if err := eng.SetConfig(engine.ISVAddress, cfg.ISVAddress); err != nil {
			return nil, err
		}
	}

	if len(cfg.DiskPaths) > 0 {
		var driveType dd64.DriveType
		for i, path := range cfg.DiskPaths {
			img, err := dd64.Load(path)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				driveType = img.DriveType()
			} else if img.DriveType() != driveType {
				return nil, sc64.NewValueError("all loaded disks must share the same drive type", nil)
			}
			l.disks = append(l.disks, img)
		}
		dt := uint32(0)
		if driveType == dd64.DriveTypeRetail {
			dt = 1
		}
		if err := eng.SetConfig(engine.DDMode, 1); err != nil { // FULL
			return nil, err
		}
		if err := eng.SetConfig(engine.DDSDEnable, 0); err != nil {
			return nil, err
		}
		if err := eng.SetConfig(engine.DDDriveType, dt); err != nil {
			return nil, err
		}
		if err := eng.SetConfig(engine.DDDiskState, 1); err != nil { // EJECTED
			return nil, err
		}
		if err := eng.SetConfig(engine.ButtonMode, 1); err != nil { // USB_PACKET
			return nil, err
		}
	}

	return l, nil
}

// Run drives the loop until ctx is canceled (typically on Ctrl-C) or stdin
// reaches EOF. On return, any loaded disk is ejected and ISV output is
// disabled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.shutdown()

	stdinLines := make(chan string)
	go l.readStdin(stdinLines)

	var gdbAccept <-chan gdbConn
	if l.cfg.GDBPort > 0 {
		accepted, err := startGDBListener(ctx, l.cfg.GDBPort)
		if err != nil {
			return err
		}
		gdbAccept = accepted
	}

	packets := l.eng.Packets()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-stdinLines:
			if !ok {
				return nil
			}
			if err := l.sendStdinCommand(line); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		case conn := <-gdbAccept:
			l.gdbMu.Lock()
			if l.gdbConn != nil {
				l.gdbConn.Close()
			}
			l.gdbConn = conn
			l.gdbMu.Unlock()
			if nc, ok := conn.(net.Conn); ok {
				go l.readGDBConn(ctx, nc)
			}
		case frame, ok := <-packets:
			if !ok {
				return sc64.NewConnectionError("transport closed during debug session", nil)
			}
			if frame.Kind != link.KindPacket {
				continue
			}
			if err := l.dispatch(frame); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
	}
}

func (l *Loop) shutdown() {
	if l.loadedDisk >= 0 {
		l.eng.SetConfig(engine.DDDiskState, 1) // EJECTED
		l.loadedDisk = -1
	}
	l.eng.SetConfig(engine.ISVAddress, 0)
	for _, d := range l.disks {
		d.Unload()
	}
	l.gdbMu.Lock()
	if l.gdbConn != nil {
		l.gdbConn.Close()
	}
	l.gdbMu.Unlock()
}

func (l *Loop) dispatch(frame link.Frame) error {
	switch frame.Command {
	case 'D':
		return l.handleDD(frame.Data)
	case 'I':
		return l.handleISV(frame.Data)
	case 'U':
		return l.handleUSB(frame.Data)
	case 'B':
		return l.handleButton()
	default:
		return nil
	}
}

func (l *Loop) readStdin(out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

func nowTimestamp() string {
	return time.Now().Format("060102150405.000000")
}
