//go:build linux

package input

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ReadKeymapFD copies a keymap blob out of the file descriptor the
// compositor shares for keymap delivery. The mapping is read-only and torn
// down before returning; the fd is closed in every path.
func ReadKeymapFD(fd int, size uint32) ([]byte, error) {
	defer unix.Close(fd)

	if size == 0 {
		return nil, fmt.Errorf("keymap fd: zero-sized mapping")
	}

	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("keymap fd: mmap: %w", err)
	}
	defer unix.Munmap(data)

	// The xkb blob is NUL-terminated inside the mapping.
	end := len(data)
	for i, b := range data {
		if b == 0 {
			end = i
			break
		}
	}

	blob := make([]byte, end)
	copy(blob, data[:end])
	return blob, nil
}
