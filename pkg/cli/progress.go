package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const barWidth = 30

// Batch tracks a run over a fixed number of items and draws a progress bar
// on a terminal stream. Failed items are listed as they happen.
type Batch struct {
	mu      sync.Mutex
	w       io.Writer
	total   int
	done    int
	failed  int
	started time.Time
	now     func() time.Time
}

// NewBatch starts tracking total items, writing to w (stderr when nil).
func NewBatch(w io.Writer, total int) *Batch {
	if w == nil {
		w = os.Stderr
	}
	b := &Batch{w: w, total: total, now: time.Now}
	b.started = b.now()
	b.draw()
	return b
}

// Done records the outcome for item. A non-nil err counts the item as failed.
func (b *Batch) Done(item string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.done++
	if err != nil {
		b.failed++
		fmt.Fprintf(b.w, "\r\033[K✗ %s: %v\n", item, err)
	}
	b.draw()
}

// Finish ends the bar line and prints a summary. It returns an error naming
// the failure count when any item failed.
func (b *Batch) Finish() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.total == 0 {
		return nil
	}
	elapsed := b.now().Sub(b.started).Round(time.Millisecond)
	fmt.Fprintf(b.w, "\n%d processed, %d failed in %s\n", b.done, b.failed, elapsed)
	if b.failed > 0 {
		return fmt.Errorf("%d of %d projects failed", b.failed, b.total)
	}
	return nil
}

func (b *Batch) draw() {
	if b.total == 0 {
		return
	}
	filled := barWidth * b.done / b.total
	if filled > barWidth {
		filled = barWidth
	}
	fmt.Fprintf(b.w, "\r[%s%s] %d/%d",
		strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled), b.done, b.total)
	if b.failed > 0 {
		fmt.Fprintf(b.w, " (%d failed)", b.failed)
	}
}
