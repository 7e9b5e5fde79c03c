package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const progressInterval = 300 * time.Millisecond

// progressPrinter redraws a one-line batch status on w until Stop.
type progressPrinter struct {
	w        io.Writer
	total    int
	label    string
	mu       sync.Mutex
	ok       int
	fail     int
	elapsed  time.Duration
	updates  chan struct{}
	done     chan struct{}
	stopped  chan struct{}
	started  bool
	stopOnce sync.Once
}

func newProgressPrinter(w io.Writer, total int, label string) *progressPrinter {
	if total <= 0 {
		total = 1
	}
	return &progressPrinter{
		w:       w,
		total:   total,
		label:   label,
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (p *progressPrinter) Start() {
	p.mu.Lock()
	p.started = true
	p.mu.Unlock()
	go p.loop()
}

// Increment records one finished scan.
func (p *progressPrinter) Increment(success bool, d time.Duration) {
	p.mu.Lock()
	if success {
		p.ok++
	} else {
		p.fail++
	}
	p.elapsed += d
	p.mu.Unlock()

	select {
	case p.updates <- struct{}{}:
	default:
	}
}

// Stop ends the redraw loop and prints the final line. It is safe to call
// more than once; only the first call prints.
func (p *progressPrinter) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.mu.Lock()
		started := p.started
		p.mu.Unlock()
		if started {
			<-p.stopped
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		fmt.Fprintf(p.w, "\r%s\r%s\n", strings.Repeat(" ", 80), p.line())
	})
}

func (p *progressPrinter) loop() {
	defer close(p.stopped)
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.updates:
			p.print()
		case <-ticker.C:
			p.print()
		case <-p.done:
			return
		}
	}
}

func (p *progressPrinter) print() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "\r%s", p.line())
}

// line formats the current counters. Callers hold p.mu.
func (p *progressPrinter) line() string {
	completed := p.ok + p.fail
	if completed > p.total {
		p.total = completed
	}
	percent := float64(completed) / float64(p.total) * 100
	var avg time.Duration
	if completed > 0 {
		avg = p.elapsed / time.Duration(completed)
	}
	return fmt.Sprintf("[%s] Progress: %d/%d (%.1f%%) OK:%d Fail:%d Avg:%.2fs",
		p.label, completed, p.total, percent, p.ok, p.fail, avg.Seconds())
}
