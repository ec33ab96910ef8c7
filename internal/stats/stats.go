// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stats counts conversions per user. The pipeline reports to a
// Recorder it is given; nothing here is global.
package stats

import (
	"context"
	"sort"
	"sync"
)

// Anonymous is the user recorded when the caller names none.
const Anonymous = "anonymous"

// Event describes one finished conversion attempt.
type Event struct {
	User        string
	InputBytes  int64
	OutputBytes int64
	Pages       int
	Failed      bool
	// Degraded is set when the output is docx bytes under a .doc name.
	Degraded bool
}

// Recorder receives conversion events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(Event)
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(Event) {}

// Counts aggregates events.
type Counts struct {
	Conversions    int   `json:"conversions" yaml:"conversions"`
	Failures       int   `json:"failures" yaml:"failures"`
	Degraded       int   `json:"degraded" yaml:"degraded"`
	Pages          int   `json:"pages" yaml:"pages"`
	BytesProcessed int64 `json:"bytes_processed" yaml:"bytes_processed"`
	BytesProduced  int64 `json:"bytes_produced" yaml:"bytes_produced"`
}

func (c *Counts) add(e Event) {
	c.BytesProcessed += e.InputBytes
	if e.Failed {
		c.Failures++
		return
	}
	c.Conversions++
	c.Pages += e.Pages
	c.BytesProduced += e.OutputBytes
	if e.Degraded {
		c.Degraded++
	}
}

// Memory keeps per-user and total counts in memory for the life of the
// process.
type Memory struct {
	mu    sync.RWMutex
	users map[string]*Counts
	total Counts
}

// NewMemory returns an empty in-memory recorder.
func NewMemory() *Memory {
	return &Memory{users: make(map[string]*Counts)}
}

// Record implements Recorder.
func (m *Memory) Record(e Event) {
	if e.User == "" {
		e.User = Anonymous
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.users[e.User]
	if !ok {
		c = &Counts{}
		m.users[e.User] = c
	}
	c.add(e)
	m.total.add(e)
}

// User returns the counts for one user; unknown users have zero counts.
func (m *Memory) User(user string) Counts {
	if user == "" {
		user = Anonymous
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.users[user]; ok {
		return *c
	}
	return Counts{}
}

// Total returns counts across all users.
func (m *Memory) Total() Counts {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.total
}

// Users returns the known user names, sorted.
func (m *Memory) Users() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.users))
	for u := range m.users {
		names = append(names, u)
	}
	sort.Strings(names)
	return names
}

type userKey struct{}

// WithUser returns a context carrying the user a conversion is charged to.
func WithUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFrom returns the user stored by WithUser, or Anonymous.
func UserFrom(ctx context.Context) string {
	if u, ok := ctx.Value(userKey{}).(string); ok && u != "" {
		return u
	}
	return Anonymous
}
