package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
)

// Progress prints one line per progress event.
type Progress struct {
	w     io.Writer
	color bool
}

// NewProgress creates a progress sink writing to w. Colors are used when color is true.
func NewProgress(w io.Writer, color bool) *Progress {
	return &Progress{w: w, color: color}
}

// Update matches the orchestrator's progress callback signature.
func (p *Progress) Update(current, total int, message string) {
	line := message
	if p.color {
		switch {
		case strings.HasPrefix(message, "Failed"):
			line = text.FgRed.Sprint(message)
		case strings.HasPrefix(message, "Skipped"):
			line = text.Faint.Sprint(message)
		case strings.HasPrefix(message, "Dry run"):
			line = text.FgYellow.Sprint(message)
		default:
			line = text.FgGreen.Sprint(message)
		}
	}
	fmt.Fprintf(p.w, "[%d/%d] %s\n", current, total, line)
}
