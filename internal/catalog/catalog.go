// Package catalog serves page and mock exam configuration to the widgets.
package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/mind-engage/mindengage-studycentre/internal/course"
)

var ErrNotFound = errors.New("not found")

type ListOpts struct {
	Course string
	Module string
	Q      string // case-insensitive match on title or id
	Limit  int
	Offset int
}

// Catalog is the read side used by the service plus PutBundle for imports.
// GetPage and GetExam return full configuration, answers included; callers
// expose only the Public forms to learners.
type Catalog interface {
	GetPage(ctx context.Context, id string) (course.Page, error)
	ListPages(ctx context.Context, opts ListOpts) ([]course.PageSummary, error)
	GetExam(ctx context.Context, id string) (course.MockExam, error)
	ListExams(ctx context.Context) ([]course.ExamSummary, error)
	PutBundle(ctx context.Context, b course.Bundle) error
}

const defaultLimit = 50

func (o ListOpts) normalized() ListOpts {
	if o.Limit <= 0 || o.Limit > 500 {
		o.Limit = defaultLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	o.Q = strings.ToLower(strings.TrimSpace(o.Q))
	return o
}

func (o ListOpts) match(p course.Page) bool {
	if o.Course != "" && p.Course != o.Course {
		return false
	}
	if o.Module != "" && p.Module != o.Module {
		return false
	}
	if o.Q != "" &&
		!strings.Contains(strings.ToLower(p.Title), o.Q) &&
		!strings.Contains(strings.ToLower(p.ID), o.Q) {
		return false
	}
	return true
}

// Memory is a Catalog over an in-memory bundle, optionally reloadable from a
// content directory.
type Memory struct {
	dir string

	mu    sync.RWMutex
	pages map[string]course.Page
	exams map[string]course.MockExam
}

func NewMemory(b course.Bundle) *Memory {
	m := &Memory{}
	m.replace(b)
	return m
}

// LoadMemory builds a Memory catalog from a content directory. Reload re-reads it.
func LoadMemory(dir string) (*Memory, error) {
	b, err := course.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	m := NewMemory(b)
	m.dir = dir
	return m, nil
}

func (m *Memory) replace(b course.Bundle) {
	pages := make(map[string]course.Page, len(b.Pages))
	for _, p := range b.Pages {
		pages[p.ID] = p
	}
	exams := make(map[string]course.MockExam, len(b.Exams))
	for _, e := range b.Exams {
		exams[e.ID] = e
	}
	m.mu.Lock()
	m.pages, m.exams = pages, exams
	m.mu.Unlock()
}

// Reload re-reads the content directory. On failure the current content is kept.
func (m *Memory) Reload(_ context.Context) (course.Bundle, error) {
	if m.dir == "" {
		return course.Bundle{}, errors.New("catalog has no content directory")
	}
	b, err := course.LoadDir(m.dir)
	if err != nil {
		return course.Bundle{}, err
	}
	m.replace(b)
	return b, nil
}

func (m *Memory) GetPage(_ context.Context, id string) (course.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pages[id]
	if !ok {
		return course.Page{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) ListPages(_ context.Context, opts ListOpts) ([]course.PageSummary, error) {
	opts = opts.normalized()
	m.mu.RLock()
	out := make([]course.PageSummary, 0, len(m.pages))
	for _, p := range m.pages {
		if opts.match(p) {
			out = append(out, p.Summary())
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, opts.Offset, opts.Limit), nil
}

func (m *Memory) GetExam(_ context.Context, id string) (course.MockExam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return course.MockExam{}, ErrNotFound
	}
	return e, nil
}

func (m *Memory) ListExams(_ context.Context) ([]course.ExamSummary, error) {
	m.mu.RLock()
	out := make([]course.ExamSummary, 0, len(m.exams))
	for _, e := range m.exams {
		out = append(out, e.Summary())
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PutBundle validates b and upserts its pages and exams.
func (m *Memory) PutBundle(_ context.Context, b course.Bundle) error {
	if err := course.Validate(b); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range b.Pages {
		m.pages[p.ID] = p
	}
	for _, e := range b.Exams {
		m.exams[e.ID] = e
	}
	return nil
}

func paginate[T any](xs []T, offset, limit int) []T {
	if offset >= len(xs) {
		return []T{}
	}
	end := offset + limit
	if end > len(xs) {
		end = len(xs)
	}
	return xs[offset:end]
}
