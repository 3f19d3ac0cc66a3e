package session

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	snap    Snapshot
	expires time.Time
}

// Memory is a process-local Store. Entries expire ttl after their last write; a
// background sweeper evicts them until Close is called.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memEntry

	stop chan struct{}
	once sync.Once
}

func NewMemory(ttl, sweepEvery time.Duration) *Memory {
	m := &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: map[string]memEntry{},
		stop:    make(chan struct{}),
	}
	if sweepEvery > 0 {
		go m.sweepLoop(sweepEvery)
	}
	return m
}

func (m *Memory) sweepLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			m.Sweep()
		case <-m.stop:
			return
		}
	}
}

// Sweep evicts expired entries and returns how many were removed.
func (m *Memory) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, id)
			n++
		}
	}
	return n
}

func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

func (m *Memory) Create(_ context.Context, s Snapshot) (Snapshot, error) {
	now := m.now()
	s = prepare(s, now)
	m.mu.Lock()
	m.entries[s.ID] = memEntry{snap: s, expires: expiry(s, now, m.ttl)}
	m.mu.Unlock()
	return s.clone(), nil
}

func (m *Memory) Get(_ context.Context, id string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(id)
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return e.snap.clone(), nil
}

func (m *Memory) Update(_ context.Context, id string, fn func(*Snapshot) error) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(id)
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	next := e.snap.clone()
	if err := fn(&next); err != nil {
		return Snapshot{}, err
	}
	next.ID = id
	m.entries[id] = memEntry{snap: next, expires: expiry(next, m.now(), m.ttl)}
	return next.clone(), nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// live returns the entry if present and unexpired. m.mu must be held.
func (m *Memory) live(id string) (memEntry, bool) {
	e, ok := m.entries[id]
	if !ok {
		return memEntry{}, false
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, id)
		return memEntry{}, false
	}
	return e, true
}

// expiry keeps timed sessions alive at least ttl past their deadline so the
// result stays readable after time runs out.
func expiry(s Snapshot, now time.Time, ttl time.Duration) time.Time {
	exp := now.Add(ttl)
	if !s.Deadline.IsZero() && s.Deadline.Add(ttl).After(exp) {
		exp = s.Deadline.Add(ttl)
	}
	return exp
}
