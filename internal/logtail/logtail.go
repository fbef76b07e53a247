package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one parsed zap console line.
type Entry struct {
	Time    string
	Level   string
	Logger  string
	Message string
	Fields  string
}

// Parse splits a zap console line. ok is false for lines that are not log
// entries, such as wrapped continuation lines.
func Parse(line string) (Entry, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) < 3 || !knownLevel(parts[1]) {
		return Entry{}, false
	}
	e := Entry{Time: parts[0], Level: parts[1]}
	rest := parts[2:]
	if last := rest[len(rest)-1]; len(rest) > 1 && strings.HasPrefix(last, "{") {
		e.Fields = last
		rest = rest[:len(rest)-1]
	}
	switch len(rest) {
	case 1:
		e.Message = rest[0]
	default:
		e.Logger = rest[0]
		e.Message = strings.Join(rest[1:], " ")
	}
	return e, true
}

func knownLevel(s string) bool {
	switch s {
	case "DEBUG", "INFO", "WARN", "ERROR", "DPANIC", "PANIC", "FATAL":
		return true
	}
	return false
}

// Palette styles the parts of a log line.
type Palette struct {
	Time   lipgloss.Style
	Debug  lipgloss.Style
	Info   lipgloss.Style
	Warn   lipgloss.Style
	Error  lipgloss.Style
	Logger lipgloss.Style
	Fields lipgloss.Style
}

// Render styles one line. Lines Parse rejects are returned unchanged.
func (p Palette) Render(line string) string {
	e, ok := Parse(line)
	if !ok {
		return line
	}
	var level lipgloss.Style
	switch e.Level {
	case "DEBUG":
		level = p.Debug
	case "INFO":
		level = p.Info
	case "WARN":
		level = p.Warn
	default:
		level = p.Error
	}
	parts := []string{p.Time.Render(e.Time), level.Render(fmt.Sprintf("%-5s", e.Level))}
	if e.Logger != "" {
		parts = append(parts, p.Logger.Render("["+e.Logger+"]"))
	}
	parts = append(parts, e.Message)
	if e.Fields != "" {
		parts = append(parts, p.Fields.Render(e.Fields))
	}
	return strings.Join(parts, " ")
}

// RenderLines styles every line.
func (p Palette) RenderLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = p.Render(line)
	}
	return out
}
