// logger_test.go - Tests for entry collapsing and history bounds.

package logger

import (
	"strings"
	"testing"
)

func TestLoggerCollapsesRepeats(t *testing.T) {
	l := NewLogger(8)
	l.Log("sched", "frame overrun")
	l.Log("sched", "frame overrun")
	l.Log("sched", "frame overrun")
	l.Log("cpu", "halted")

	if l.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", l.Len())
	}

	var b strings.Builder
	l.Write(&b)
	want := "sched: frame overrun (repeat x3)\ncpu: halted\n"
	if b.String() != want {
		t.Fatalf("unexpected log output:\n%q\nwant\n%q", b.String(), want)
	}
}

func TestLoggerBounded(t *testing.T) {
	l := NewLogger(3)
	for i := range 10 {
		l.Logf("n", "%d", i)
	}
	entries := l.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Detail != "7" || entries[2].Detail != "9" {
		t.Fatalf("expected entries 7..9, got %q..%q", entries[0].Detail, entries[2].Detail)
	}
}

func TestLoggerTailAndEcho(t *testing.T) {
	l := NewLogger(8)
	var echo strings.Builder
	l.SetEcho(&echo)
	l.Log("a", "one")
	l.Log("b", "two\nlines")

	if echo.String() != "a: one\nb: twolines\n" {
		t.Fatalf("unexpected echo %q", echo.String())
	}

	var tail strings.Builder
	l.Tail(&tail, 1)
	if tail.String() != "b: twolines\n" {
		t.Fatalf("unexpected tail %q", tail.String())
	}

	var empty strings.Builder
	l.Clear()
	if l.Write(&empty) {
		t.Fatalf("expected Write to report an empty log")
	}
}
