package logscan

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultMaxLineLength bounds how much of a line is read at once.
// A longer line is processed as consecutive chunks of at most this many
// bytes, each tested and echoed on its own.
const DefaultMaxLineLength = 1024

// minBufferSize is the smallest buffer bufio will allocate.
const minBufferSize = 16

// Scanner echoes matching log lines to a writer.
type Scanner struct {
	matcher       *Matcher
	maxLineLength int
}

// NewScanner creates a Scanner. A maxLineLength of zero or less selects
// DefaultMaxLineLength; a positive value below 16 bytes is raised to 16,
// the smallest buffer bufio supports.
func NewScanner(m *Matcher, maxLineLength int) *Scanner {
	if maxLineLength <= 0 {
		maxLineLength = DefaultMaxLineLength
	}
	if maxLineLength < minBufferSize {
		maxLineLength = minBufferSize
	}
	return &Scanner{matcher: m, maxLineLength: maxLineLength}
}

// Scan reads r sequentially and writes every matching line to w exactly as
// read, including its trailing newline. It returns the number of lines
// written. A final line without a newline is still tested.
func (s *Scanner) Scan(r io.Reader, w io.Writer) (int, error) {
	br := bufio.NewReaderSize(r, s.maxLineLength)
	matched := 0

	for {
		// ReadSlice returns at most the buffer size. ErrBufferFull means the
		// line is longer than maxLineLength and the rest follows in the next
		// chunk.
		chunk, err := br.ReadSlice('\n')
		if len(chunk) > 0 && s.matcher.Match(string(chunk)) {
			if _, werr := w.Write(chunk); werr != nil {
				return matched, fmt.Errorf("write matched line: %w", werr)
			}
			matched++
		}

		switch {
		case err == nil, errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			return matched, nil
		default:
			return matched, fmt.Errorf("read log: %w", err)
		}
	}
}

// ScanFile opens path read-only and scans it. The file is closed before
// ScanFile returns. An open failure is returned unchanged so callers can
// test it with os.IsNotExist.
func (s *Scanner) ScanFile(path string, w io.Writer) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	return s.Scan(f, w)
}
