package dispatch

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// WriterAlerter prints alerts to a writer.
type WriterAlerter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterAlerter returns an alerter writing to w.
func NewWriterAlerter(w io.Writer) *WriterAlerter {
	return &WriterAlerter{w: w}
}

// Alert implements Alerter.
func (a *WriterAlerter) Alert(_ context.Context, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.w, "! %s\n", message)
}

// AlertFunc adapts a function to Alerter.
type AlertFunc func(ctx context.Context, message string)

// Alert implements Alerter.
func (f AlertFunc) Alert(ctx context.Context, message string) { f(ctx, message) }
