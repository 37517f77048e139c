package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

const barWidth = 30

// Progress draws a single-line progress bar, redrawn in place on every
// update.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	label   string
	total   int
	current int
}

// NewProgress creates a bar labelled label. A nil w writes to stdout.
func NewProgress(w io.Writer, label string) *Progress {
	if w == nil {
		w = os.Stdout
	}
	return &Progress{w: w, label: label}
}

// Start sets the total and draws the bar at current.
func (p *Progress) Start(current, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.current = current
	p.render()
}

// Update redraws the bar at current.
func (p *Progress) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = current
	p.render()
}

// Finish draws the full bar and ends the line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = p.total
	p.render()
	fmt.Fprintln(p.w)
}

func (p *Progress) render() {
	if p.total <= 0 {
		return
	}
	current := min(max(p.current, 0), p.total)
	percent := float64(current) / float64(p.total) * 100
	filled := barWidth * current / p.total

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	fmt.Fprintf(p.w, "\r%s [%s] %.1f%% (%d/%d)", p.label, bar, percent, current, p.total)
}
