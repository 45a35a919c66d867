// Package input reads command arguments that may come from stdin (-) or a
// file (@path).
package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrStdinReused is returned when - appears more than once.
var ErrStdinReused = errors.New("stdin can only be read once")

// ExpandArgs replaces - with the non-empty lines of stdin and @path with the
// non-empty lines of that file. Other values pass through unchanged.
func ExpandArgs(values []string, stdin io.Reader) ([]string, error) {
	var out []string
	stdinUsed := false
	for _, v := range values {
		switch {
		case v == "-":
			if stdinUsed {
				return nil, ErrStdinReused
			}
			stdinUsed = true
			lines, err := Lines(stdin)
			if err != nil {
				return nil, fmt.Errorf("read stdin: %w", err)
			}
			out = append(out, lines...)
		case strings.HasPrefix(v, "@") && len(v) > 1:
			f, err := os.Open(v[1:])
			if err != nil {
				return nil, err
			}
			lines, err := Lines(f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", v[1:], err)
			}
			out = append(out, lines...)
		default:
			out = append(out, v)
		}
	}
	return out, nil
}

// Lines returns the trimmed non-empty lines of r.
func Lines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// Document reads a whole file, or stdin when path is -. A leading @ is
// accepted for symmetry with ExpandArgs.
func Document(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	path = strings.TrimPrefix(path, "@")
	if path == "" {
		return nil, errors.New("no input file given")
	}
	return os.ReadFile(path)
}

// FirstLine returns the first line of r without its line ending. A
// missing trailing newline is not an error.
func FirstLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
