package deps

import (
	"bufio"
	"io"
)

// newLineScanner wraps bufio.Scanner with a larger max token size: build
// tool output occasionally emits very long single lines (minified
// errors, progress bars) that would otherwise trip bufio's default 64KB
// cap.
func newLineScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return s
}
