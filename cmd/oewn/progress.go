package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/japaniel/oewn/pkg/progress"
)

// Parse and load run concurrently and share one line.
const buildLine = "build"

type progressLine struct {
	mu    sync.Mutex
	w     io.Writer
	line  string
	width int
	parse *progress.Update
	load  *progress.Update
}

// newProgressPrinter renders updates as one rewritten line per stage.
func newProgressPrinter(w io.Writer) progress.Sink {
	l := &progressLine{w: w}
	return l.report
}

func lineOf(p progress.Phase) string {
	if p == progress.PhaseParse || p == progress.PhaseLoad {
		return buildLine
	}
	return string(p)
}

func (l *progressLine) report(u progress.Update) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := lineOf(u.Phase)
	if l.line != "" && l.line != line {
		l.newline()
	}
	l.line = line

	var body string
	switch u.Phase {
	case progress.PhaseParse:
		l.parse = &u
	case progress.PhaseLoad:
		l.load = &u
	default:
		body = describe(u)
	}
	if line == buildLine {
		var parts []string
		if l.parse != nil {
			parts = append(parts, "parse "+describe(*l.parse))
		}
		if l.load != nil {
			parts = append(parts, "load "+describe(*l.load))
		}
		body = strings.Join(parts, ", ")
	}

	text := fmt.Sprintf("%-9s %s", line, body)
	pad := ""
	if n := l.width - len(text); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprintf(l.w, "\r%s%s", text, pad)
	l.width = len(text)

	if u.Phase == progress.PhaseResolve {
		l.newline()
	}
}

func (l *progressLine) newline() {
	fmt.Fprintln(l.w)
	l.line, l.width = "", 0
	l.parse, l.load = nil, nil
}

func describe(u progress.Update) string {
	switch u.Phase {
	case progress.PhaseDownload, progress.PhaseExtract, progress.PhaseParse:
		if u.Total < 0 {
			return humanize.Bytes(uint64(u.Current))
		}
		return fmt.Sprintf("%s / %s", humanize.Bytes(uint64(u.Current)), humanize.Bytes(uint64(u.Total)))
	case progress.PhaseResolve:
		return "done"
	}
	if u.Total < 0 {
		return humanize.Comma(u.Current) + " rows"
	}
	return fmt.Sprintf("%s / %s rows", humanize.Comma(u.Current), humanize.Comma(u.Total))
}
