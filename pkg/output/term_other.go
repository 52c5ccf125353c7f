//go:build !darwin && !linux

package output

// isTerminal is conservative on platforms without termios: --color auto
// stays plain there, --color always still forces escapes.
func isTerminal(fd uintptr) bool {
	return false
}
