// logger.go - Bounded, repeat-collapsing diagnostic log for playback sessions.

// Package logger keeps a short history of tagged diagnostic lines. Identical
// consecutive entries collapse into one entry with a repeat count, so a
// condition that fires every frame costs one line.
//
// There is no package-level log. Each session is handed a *Logger by its
// owner, which may share one Logger between sessions that run on the same
// goroutine.
package logger

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// DefaultMaxEntries is the history length used by front ends.
const DefaultMaxEntries = 256

// Entry is a single line in the log.
type Entry struct {
	Timestamp time.Time
	Tag       string
	Detail    string
	Repeated  int
}

func (e *Entry) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("%s: %s", e.Tag, e.Detail))
	if e.Repeated > 0 {
		s.WriteString(fmt.Sprintf(" (repeat x%d)", e.Repeated+1))
	}
	s.WriteString("\n")
	return s.String()
}

// Logger holds the most recent entries. It is not safe for concurrent use.
type Logger struct {
	maxEntries int
	entries    []Entry
	echo       io.Writer
}

// NewLogger returns a logger that keeps at most maxEntries entries.
func NewLogger(maxEntries int) *Logger {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Logger{
		maxEntries: maxEntries,
		entries:    make([]Entry, 0, maxEntries),
	}
}

// SetEcho writes every new or repeated entry to w as it is logged. A nil
// writer stops echoing.
func (l *Logger) SetEcho(w io.Writer) {
	l.echo = w
}

// Log adds an entry.
func (l *Logger) Log(tag, detail string) {
	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", "")

	var e *Entry
	if n := len(l.entries); n > 0 && l.entries[n-1].Tag == tag && l.entries[n-1].Detail == detail {
		e = &l.entries[n-1]
		e.Repeated++
		e.Timestamp = time.Now()
	} else {
		l.entries = append(l.entries, Entry{Timestamp: time.Now(), Tag: tag, Detail: detail})
		if len(l.entries) > l.maxEntries {
			l.entries = append(l.entries[:0], l.entries[len(l.entries)-l.maxEntries:]...)
		}
		e = &l.entries[len(l.entries)-1]
	}

	if l.echo != nil {
		io.WriteString(l.echo, e.String())
	}
}

// Logf adds a formatted entry.
func (l *Logger) Logf(tag, detail string, args ...any) {
	l.Log(tag, fmt.Sprintf(detail, args...))
}

// Clear removes all entries.
func (l *Logger) Clear() {
	l.entries = l.entries[:0]
}

// Len returns the number of entries held.
func (l *Logger) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the held entries, oldest first.
func (l *Logger) Entries() []Entry {
	c := make([]Entry, len(l.entries))
	copy(c, l.entries)
	return c
}

// Write writes every entry to output. It returns false if the log is empty.
func (l *Logger) Write(output io.Writer) bool {
	if len(l.entries) == 0 {
		return false
	}
	for _, e := range l.entries {
		io.WriteString(output, e.String())
	}
	return true
}

// Tail writes the last number entries to output.
func (l *Logger) Tail(output io.Writer, number int) {
	if number > len(l.entries) {
		number = len(l.entries)
	}
	if number <= 0 {
		return
	}
	for _, e := range l.entries[len(l.entries)-number:] {
		io.WriteString(output, e.String())
	}
}
