package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// x11SocketDir holds the Unix sockets of running X servers.
var x11SocketDir = "/tmp/.X11-unix"

const (
	xvfbReadyTimeout = 5 * time.Second
	xvfbStopTimeout  = 2 * time.Second
)

// displaySocket maps a display name such as ":99" or ":99.0" to the
// socket its X server listens on.
func displaySocket(display string) (string, error) {
	num, ok := strings.CutPrefix(display, ":")
	if !ok {
		return "", fmt.Errorf("display %q is not local", display)
	}
	num, _, _ = strings.Cut(num, ".")
	if num == "" || strings.Trim(num, "0123456789") != "" {
		return "", fmt.Errorf("malformed display %q", display)
	}
	return filepath.Join(x11SocketDir, "X"+num), nil
}

// xvfbProc is an Xvfb process started by the manager.
type xvfbProc struct {
	cmd  *exec.Cmd
	done chan error
}

// startXvfb provides the virtual display used by headful mode. A display
// that is already served is reused and left running on Close.
func (m *Manager) startXvfb(ctx context.Context) error {
	if m.xvfb != nil {
		return nil
	}
	display := m.cfg.XvfbDisplay
	sock, err := displaySocket(display)
	if err != nil {
		return err
	}
	if _, err := os.Stat(sock); err == nil {
		m.cfg.Logger.Info("browser: reusing display", "display", display)
		return nil
	}

	cmd := exec.Command("Xvfb", display, "-screen", "0", m.cfg.XvfbScreen, "-ac", "-nolisten", "tcp")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start xvfb: %w", err)
	}
	p := &xvfbProc{cmd: cmd, done: make(chan error, 1)}
	go func() { p.done <- cmd.Wait() }()

	if err := waitForSocket(ctx, sock, xvfbReadyTimeout, p.done); err != nil {
		p.stop()
		return err
	}
	m.xvfb = p
	m.cfg.Logger.Info("browser: xvfb started", "display", display, "screen", m.cfg.XvfbScreen, "pid", cmd.Process.Pid)
	return nil
}

// waitForSocket polls until path exists. It fails when the server exits
// first, when timeout elapses or when ctx is done.
func waitForSocket(ctx context.Context, path string, timeout time.Duration, exited <-chan error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	tick := time.NewTicker(pollInterval)
	defer tick.Stop()
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		select {
		case err := <-exited:
			if err == nil {
				err = errors.New("exited")
			}
			return fmt.Errorf("xvfb exited before %s appeared: %w", path, err)
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", path, ctx.Err())
		case <-tick.C:
		}
	}
}

// stop asks Xvfb to terminate and kills it if it lingers.
func (p *xvfbProc) stop() {
	if p.cmd.Process == nil {
		return
	}
	_ = p.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-p.done:
	case <-time.After(xvfbStopTimeout):
		_ = p.cmd.Process.Kill()
		<-p.done
	}
}

func (m *Manager) stopXvfb() {
	if m.xvfb == nil {
		return
	}
	m.xvfb.stop()
	m.cfg.Logger.Info("browser: xvfb stopped", "display", m.cfg.XvfbDisplay)
	m.xvfb = nil
}
