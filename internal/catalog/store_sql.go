package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-studycentre/internal/course"
)

// SQLStore keeps pages and mock exams as JSON documents in sqlite or postgres.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// PutBundle validates b and upserts every page and exam in one transaction.
func (s *SQLStore) PutBundle(ctx context.Context, b course.Bundle) error {
	if err := course.Validate(b); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, p := range b.Pages {
		pj, err := json.Marshal(p)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO pages (id,course,module,title,page_json,updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (id) DO UPDATE SET course=EXCLUDED.course, module=EXCLUDED.module,
				title=EXCLUDED.title, page_json=EXCLUDED.page_json, updated_at=EXCLUDED.updated_at`,
			p.ID, p.Course, p.Module, p.Title, string(pj), now)
		if err != nil {
			return fmt.Errorf("put page %q: %w", p.ID, err)
		}
	}
	for _, e := range b.Exams {
		ej, err := json.Marshal(e)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO mock_exams (id,title,exam_json,updated_at)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, exam_json=EXCLUDED.exam_json, updated_at=EXCLUDED.updated_at`,
			e.ID, e.Title, string(ej), now)
		if err != nil {
			return fmt.Errorf("put exam %q: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetPage(ctx context.Context, id string) (course.Page, error) {
	var pj string
	err := s.db.QueryRowContext(ctx, `SELECT page_json FROM pages WHERE id=$1`, id).Scan(&pj)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return course.Page{}, ErrNotFound
		}
		return course.Page{}, err
	}
	var p course.Page
	if err := json.Unmarshal([]byte(pj), &p); err != nil {
		return course.Page{}, fmt.Errorf("decode page %q: %w", id, err)
	}
	return p, nil
}

func (s *SQLStore) ListPages(ctx context.Context, opts ListOpts) ([]course.PageSummary, error) {
	opts = opts.normalized()

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if opts.Course != "" {
		where = append(where, "course = "+arg(opts.Course))
	}
	if opts.Module != "" {
		where = append(where, "module = "+arg(opts.Module))
	}
	if opts.Q != "" {
		like := "%" + opts.Q + "%"
		where = append(where, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(id) LIKE %s)", arg(like), arg(like)))
	}
	q := `SELECT page_json FROM pages`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id LIMIT " + arg(opts.Limit) + " OFFSET " + arg(opts.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []course.PageSummary{}
	for rows.Next() {
		var pj string
		if err := rows.Scan(&pj); err != nil {
			return nil, err
		}
		var p course.Page
		if err := json.Unmarshal([]byte(pj), &p); err != nil {
			return nil, err
		}
		out = append(out, p.Summary())
	}
	return out, rows.Err()
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (course.MockExam, error) {
	var ej string
	err := s.db.QueryRowContext(ctx, `SELECT exam_json FROM mock_exams WHERE id=$1`, id).Scan(&ej)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return course.MockExam{}, ErrNotFound
		}
		return course.MockExam{}, err
	}
	var e course.MockExam
	if err := json.Unmarshal([]byte(ej), &e); err != nil {
		return course.MockExam{}, fmt.Errorf("decode exam %q: %w", id, err)
	}
	return e, nil
}

func (s *SQLStore) ListExams(ctx context.Context) ([]course.ExamSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT exam_json FROM mock_exams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []course.ExamSummary{}
	for rows.Next() {
		var ej string
		if err := rows.Scan(&ej); err != nil {
			return nil, err
		}
		var e course.MockExam
		if err := json.Unmarshal([]byte(ej), &e); err != nil {
			return nil, err
		}
		out = append(out, e.Summary())
	}
	return out, rows.Err()
}
