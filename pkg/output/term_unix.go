//go:build darwin || linux

package output

import "golang.org/x/sys/unix"

// isTerminal reports whether fd is an interactive terminal, by asking the
// kernel for its termios state. Pipes and regular files fail the ioctl.
func isTerminal(fd uintptr) bool {
	_, err := unix.IoctlGetTermios(int(fd), ioctlReadTermios)
	return err == nil
}
