package observation

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	maxLineSize   = 1 << 20
	ctxCheckEvery = 4096
)

// Read assembles observations from every line of r. Receiver logs may
// interleave binary frames with text, so lines are never rejected for
// content, only skipped. Lines longer than maxLineSize are dropped whole.
func Read(ctx context.Context, r io.Reader, opts ...Option) ([]Observation, Stats, error) {
	a := New(opts...)
	br := bufio.NewReaderSize(r, maxLineSize)

	var out []Observation
	for n := 0; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, a.Stats(), err
			}
		}

		line, truncated, err := readLine(br)
		if truncated {
			a.skipOversized()
		} else if line = strings.TrimSpace(line); line != "" {
			out = append(out, a.Feed(line)...)
		}

		if errors.Is(err, io.EOF) {
			return out, a.Stats(), nil
		}
		if err != nil {
			return nil, a.Stats(), fmt.Errorf("reading lines: %w", err)
		}
	}
}

// readLine returns the next line including its terminator. A line that does
// not fit the reader buffer is consumed up to its end and reported as
// truncated.
func readLine(br *bufio.Reader) (line string, truncated bool, err error) {
	frag, err := br.ReadSlice('\n')
	for errors.Is(err, bufio.ErrBufferFull) {
		truncated = true
		_, err = br.ReadSlice('\n')
	}
	if truncated {
		return "", true, err
	}
	return string(frag), false, err
}

// ReadFile assembles observations from the receiver log at path using a
// fresh Assembler.
func ReadFile(ctx context.Context, path string, opts ...Option) ([]Observation, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("opening receiver log: %w", err)
	}
	defer f.Close()

	return Read(ctx, f, opts...)
}

// DateFromPath returns the date of the first path element that starts with
// YYYY-MM-DD, e.g. "flights/2021-04-27_lake/ublox.txt".
func DateFromPath(path string) (time.Time, bool) {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) < len(time.DateOnly) {
			continue
		}
		if t, err := time.ParseInLocation(time.DateOnly, part[:len(time.DateOnly)], time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
