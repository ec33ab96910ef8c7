// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package office

import (
	"sync"
	"time"
)

// DefaultProbeInterval is how long a probe result is trusted.
const DefaultProbeInterval = 30 * time.Second

// Prober caches converter detection process-wide. Installing or removing
// LibreOffice while the service runs is picked up after the interval.
// It is safe for concurrent use.
type Prober struct {
	binaries []string
	timeout  time.Duration
	interval time.Duration
	exec     executor
	now      func() time.Time

	mu        sync.Mutex
	checked   time.Time
	converter Converter
	err       error
}

// NewProber creates a prober for binaries with the given per-conversion
// timeout and re-check interval. Zero values select the defaults.
func NewProber(binaries []string, timeout, interval time.Duration) *Prober {
	return newProber(defaultExec, binaries, timeout, interval, time.Now)
}

func newProber(exec executor, binaries []string, timeout, interval time.Duration, now func() time.Time) *Prober {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	return &Prober{
		binaries: binaries,
		timeout:  timeout,
		interval: interval,
		exec:     exec,
		now:      now,
	}
}

// Converter returns the cached probe result, probing again when the cached
// one is older than the interval.
func (p *Prober) Converter() (Converter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.checked.IsZero() || now.Sub(p.checked) >= p.interval {
		p.converter, p.err = detect(p.exec, p.binaries, p.timeout)
		p.checked = now
	}
	return p.converter, p.err
}

// Invalidate forces the next Converter call to probe again.
func (p *Prober) Invalidate() {
	p.mu.Lock()
	p.checked = time.Time{}
	p.mu.Unlock()
}
