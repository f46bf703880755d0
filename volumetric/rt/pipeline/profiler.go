package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Profiler records wall time per named pass and a few counters.
// It is safe for concurrent use.
type Profiler struct {
	mu     sync.Mutex
	scopes map[string]time.Duration
	starts map[string]time.Time
	counts map[string]int64
	order  []string
}

func NewProfiler() *Profiler {
	return &Profiler{
		scopes: make(map[string]time.Duration),
		starts: make(map[string]time.Time),
		counts: make(map[string]int64),
	}
}

func (p *Profiler) BeginScope(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.starts[name] = time.Now()
	if _, seen := p.scopes[name]; !seen {
		p.order = append(p.order, name)
		p.scopes[name] = 0
	}
}

func (p *Profiler) EndScope(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if start, ok := p.starts[name]; ok {
		p.scopes[name] = time.Since(start)
		delete(p.starts, name)
	}
}

// Scope begins name and returns the matching end call.
func (p *Profiler) Scope(name string) func() {
	p.BeginScope(name)
	return func() { p.EndScope(name) }
}

func (p *Profiler) SetCount(name string, n int64) {
	p.mu.Lock()
	p.counts[name] = n
	p.mu.Unlock()
}

func (p *Profiler) Duration(name string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scopes[name]
}

func (p *Profiler) Count(name string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[name]
}

// Reset zeroes timings and counters but keeps the display order.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k := range p.scopes {
		p.scopes[k] = 0
	}
	for k := range p.counts {
		delete(p.counts, k)
	}
}

// Lines renders timings in first-seen order followed by sorted counters.
func (p *Profiler) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	lines := make([]string, 0, len(p.order)+len(p.counts))
	for _, name := range p.order {
		ms := float64(p.scopes[name].Microseconds()) / 1000.0
		lines = append(lines, fmt.Sprintf("%-10s %7.2f ms", name, ms))
	}
	keys := make([]string, 0, len(p.counts))
	for k := range p.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%-10s %d", k, p.counts[k]))
	}
	return lines
}

func (p *Profiler) String() string {
	return strings.Join(p.Lines(), "\n")
}
