package logs

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

// PointerName is the stable name the daemon links to its active log file.
const PointerName = "remoteaccessd.log"

const maxLineBytes = 1024 * 1024

// TailOptions selects which lines Tail returns. A negative Offset means
// "the last Limit lines"; otherwise reading starts at Offset bytes.
// Match, when set, keeps only lines containing that substring.
type TailOptions struct {
	Offset int64
	Limit  int
	Match  string
}

// TailResult carries the selected lines and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// CurrentPath resolves the active daemon log inside logDir.
func CurrentPath(logDir string) (string, error) {
	pointer := filepath.Join(logDir, PointerName)
	target, err := filepath.EvalSymlinks(pointer)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("no daemon log at %s (has the daemon been started?)", pointer)
		}
		return "", fmt.Errorf("resolve log pointer: %w", err)
	}
	return target, nil
}

// Tail reads lines from path. A missing file yields an empty result.
func Tail(path string, opts TailOptions) (TailResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return TailResult{}, fmt.Errorf("log path %q is a directory", path)
	}

	if opts.Offset < 0 {
		return readLastLines(path, opts.Limit, opts.Match)
	}
	offset := opts.Offset
	if offset > info.Size() {
		// Truncated or rotated underneath us; start over.
		offset = 0
	}
	return readForward(path, offset, opts.Match)
}

// Follow polls path every interval and hands newly appended lines to emit,
// starting at offset. It returns nil when ctx ends.
func Follow(ctx context.Context, path string, offset int64, interval time.Duration, match string, emit func([]string) error) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		result, err := Tail(path, TailOptions{Offset: offset, Match: match})
		if err != nil {
			return err
		}
		offset = result.Offset
		if len(result.Lines) > 0 {
			if err := emit(result.Lines); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func readLastLines(path string, limit int, match string) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return TailResult{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		size, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return TailResult{}, fmt.Errorf("seek log file: %w", err)
		}
		return TailResult{Offset: size}, nil
	}

	scanner := newScanner(file)
	ring := make([]string, limit)
	count, idx := 0, 0
	for scanner.Scan() {
		line := scanner.Text()
		if !matches(line, match) {
			continue
		}
		ring[idx] = line
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return TailResult{}, fmt.Errorf("read log file: %w", err)
	}

	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return TailResult{}, fmt.Errorf("determine log offset: %w", err)
	}

	lines := make([]string, count)
	if count == limit {
		for i := range count {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return TailResult{Lines: lines, Offset: offset}, nil
}

// readForward only consumes complete lines so a line being written is
// picked up whole on the next call.
func readForward(path string, offset int64, match string) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return TailResult{}, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReaderSize(file, 64*1024)
	result := TailResult{Offset: offset}
	for {
		chunk, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return result, nil
			}
			return result, fmt.Errorf("read log file: %w", err)
		}
		result.Offset += int64(len(chunk))
		line := strings.TrimRight(chunk, "\r\n")
		if matches(line, match) {
			result.Lines = append(result.Lines, line)
		}
	}
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return scanner
}

func matches(line, match string) bool {
	return match == "" || strings.Contains(line, match)
}
