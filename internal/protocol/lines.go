package protocol

import "bytes"

// MaxPending caps the unterminated tail kept between reads. A device that
// never sends a newline gets its buffer flushed as one line at this size.
const MaxPending = 64 * 1024

// SplitLines appends chunk to pending and returns every complete line
// (without "\n" or a trailing "\r") plus the unterminated remainder.
// Empty lines are returned as well; callers skip them.
func SplitLines(pending, chunk []byte) (lines []string, rest []byte) {
	buf := append(pending, chunk...)
	for {
		idx := bytes.IndexByte(buf, '\n')
		if idx < 0 {
			break
		}
		lines = append(lines, string(bytes.TrimSuffix(buf[:idx], []byte{'\r'})))
		buf = buf[idx+1:]
	}
	if len(buf) >= MaxPending {
		lines = append(lines, string(buf))
		buf = buf[:0]
	}
	// Copy the remainder so the caller's read buffer can be reused.
	rest = append([]byte(nil), buf...)
	return lines, rest
}
