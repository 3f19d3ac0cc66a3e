package course

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrNoContent is returned when a content directory holds no content files.
var ErrNoContent = errors.New("no content files found")

// File schema. Field names follow the page sources the content was lifted from:
// quiz questions carry correctAnswer, quick checks carry correctIndex.
type fileBundle struct {
	Version int        `json:"version" yaml:"version" toml:"version"`
	Pages   []filePage `json:"pages" yaml:"pages" toml:"pages"`
	Exams   []fileExam `json:"mockExams" yaml:"mockExams" toml:"mockExams"`
}

type filePage struct {
	ID          string         `json:"id" yaml:"id" toml:"id"`
	Course      string         `json:"course" yaml:"course" toml:"course"`
	Module      string         `json:"module" yaml:"module" toml:"module"`
	Section     string         `json:"section" yaml:"section" toml:"section"`
	Title       string         `json:"title" yaml:"title" toml:"title"`
	SEO         fileSEO        `json:"seo" yaml:"seo" toml:"seo"`
	Prev        *fileLink      `json:"prev" yaml:"prev" toml:"prev"`
	Next        *fileLink      `json:"next" yaml:"next" toml:"next"`
	QuickChecks []fileQuestion `json:"quickChecks" yaml:"quickChecks" toml:"quickChecks"`
	Quiz        *fileQuiz      `json:"quiz" yaml:"quiz" toml:"quiz"`
}

type fileSEO struct {
	Title       string `json:"title" yaml:"title" toml:"title"`
	Description string `json:"description" yaml:"description" toml:"description"`
}

type fileLink struct {
	Label string `json:"label" yaml:"label" toml:"label"`
	To    string `json:"to" yaml:"to" toml:"to"`
}

type fileQuiz struct {
	Title     string         `json:"title" yaml:"title" toml:"title"`
	Questions []fileQuestion `json:"questions" yaml:"questions" toml:"questions"`
}

type fileQuestion struct {
	ID            ID       `json:"id" yaml:"id" toml:"id"`
	Question      string   `json:"question" yaml:"question" toml:"question"`
	Options       []string `json:"options" yaml:"options" toml:"options"`
	CorrectAnswer *int     `json:"correctAnswer" yaml:"correctAnswer" toml:"correctAnswer"`
	CorrectIndex  *int     `json:"correctIndex" yaml:"correctIndex" toml:"correctIndex"`
	Explanation   string   `json:"explanation" yaml:"explanation" toml:"explanation"`

	// mock exam bank only
	Section    string `json:"section" yaml:"section" toml:"section"`
	Difficulty string `json:"difficulty" yaml:"difficulty" toml:"difficulty"`
	Topic      string `json:"topic" yaml:"topic" toml:"topic"`
	Category   string `json:"category" yaml:"category" toml:"category"`
}

type fileExam struct {
	ID             string         `json:"examId" yaml:"examId" toml:"examId"`
	Title          string         `json:"examTitle" yaml:"examTitle" toml:"examTitle"`
	TotalQuestions int            `json:"totalQuestions" yaml:"totalQuestions" toml:"totalQuestions"`
	TimeLimit      int            `json:"timeLimit" yaml:"timeLimit" toml:"timeLimit"`
	PassThreshold  int            `json:"passThreshold" yaml:"passThreshold" toml:"passThreshold"`
	ExitPath       string         `json:"exitPath" yaml:"exitPath" toml:"exitPath"`
	Categories     []string       `json:"categories" yaml:"categories" toml:"categories"`
	Questions      []fileQuestion `json:"questions" yaml:"questions" toml:"questions"`
}

// LoadDir reads every content file under dir, then validates the merged bundle so
// that ids duplicated across files are caught too.
func LoadDir(dir string) (Bundle, error) {
	var out Bundle
	c := &issueCollector{}
	found := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isContentFile(path) {
			return nil
		}
		found++
		fb, err := decodeFile(path)
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}
		out.merge(fb.convert(c, filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return Bundle{}, err
	}
	if found == 0 {
		return Bundle{}, fmt.Errorf("%s: %w", dir, ErrNoContent)
	}
	validateBundle(c, out)
	if err := c.result(); err != nil {
		return Bundle{}, err
	}
	return out, nil
}

func isContentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".toml":
		return true
	}
	return false
}

func decodeFile(path string) (fileBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileBundle{}, fmt.Errorf("read content: %w", err)
	}
	var fb fileBundle
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		fb, err = parseJSON(data)
	case ".toml":
		fb, err = parseTOML(data)
	default:
		fb, err = parseYAML(data)
	}
	if err != nil {
		return fileBundle{}, fmt.Errorf("%s: %w", path, err)
	}
	if fb.Version != 0 && fb.Version != 1 {
		return fileBundle{}, fmt.Errorf("%s: unsupported version %d", path, fb.Version)
	}
	return fb, nil
}

func parseJSON(data []byte) (fileBundle, error) {
	var fb fileBundle
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fb); err != nil {
		return fileBundle{}, fmt.Errorf("parse json: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return fileBundle{}, fmt.Errorf("parse json: multiple documents are not supported")
		}
		return fileBundle{}, fmt.Errorf("parse json: %w", err)
	}
	return fb, nil
}

func parseYAML(data []byte) (fileBundle, error) {
	var fb fileBundle
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fb); err != nil {
		return fileBundle{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return fileBundle{}, fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return fileBundle{}, fmt.Errorf("parse yaml: %w", err)
	}
	return fb, nil
}

func parseTOML(data []byte) (fileBundle, error) {
	var fb fileBundle
	md, err := toml.Decode(string(data), &fb)
	if err != nil {
		return fileBundle{}, fmt.Errorf("parse toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fileBundle{}, fmt.Errorf("parse toml: unknown fields %s", strings.Join(keys, ", "))
	}
	return fb, nil
}

func (fb fileBundle) convert(c *issueCollector, file string) Bundle {
	var b Bundle
	for i, fp := range fb.Pages {
		prefix := fmt.Sprintf("%s: pages[%d]", file, i)
		p := Page{
			ID:      strings.TrimSpace(fp.ID),
			Course:  strings.TrimSpace(fp.Course),
			Module:  strings.TrimSpace(fp.Module),
			Section: strings.TrimSpace(fp.Section),
			Title:   strings.TrimSpace(fp.Title),
			SEO: SEO{
				Title:       strings.TrimSpace(fp.SEO.Title),
				Description: strings.TrimSpace(fp.SEO.Description),
			},
			Nav: Nav{Prev: fp.Prev.link(), Next: fp.Next.link()},
		}
		for j, fq := range fp.QuickChecks {
			p.Checks = append(p.Checks, fq.question(c, fmt.Sprintf("%s.quickChecks[%d]", prefix, j)))
		}
		if fp.Quiz != nil {
			quiz := &QuizSpec{Title: strings.TrimSpace(fp.Quiz.Title)}
			for j, fq := range fp.Quiz.Questions {
				quiz.Questions = append(quiz.Questions, fq.question(c, fmt.Sprintf("%s.quiz.questions[%d]", prefix, j)))
			}
			p.Quiz = quiz
		}
		b.Pages = append(b.Pages, p)
	}
	for i, fe := range fb.Exams {
		prefix := fmt.Sprintf("%s: mockExams[%d]", file, i)
		e := MockExam{
			ID:             strings.TrimSpace(fe.ID),
			Title:          strings.TrimSpace(fe.Title),
			TotalQuestions: fe.TotalQuestions,
			TimeLimitSec:   fe.TimeLimit,
			PassThreshold:  fe.PassThreshold,
			ExitPath:       strings.TrimSpace(fe.ExitPath),
			Categories:     trimAll(fe.Categories),
		}
		for j, fq := range fe.Questions {
			q := fq.question(c, fmt.Sprintf("%s.questions[%d]", prefix, j))
			e.Bank = append(e.Bank, BankQuestion{
				Question:   q,
				Section:    strings.TrimSpace(fq.Section),
				Difficulty: Difficulty(strings.ToLower(strings.TrimSpace(fq.Difficulty))),
				Topic:      strings.TrimSpace(fq.Topic),
				Category:   strings.TrimSpace(fq.Category),
			})
		}
		b.Exams = append(b.Exams, e)
	}
	return b
}

func (fq fileQuestion) question(c *issueCollector, field string) Question {
	q := Question{
		ID:          fq.ID,
		Prompt:      strings.TrimSpace(fq.Question),
		Options:     trimAll(fq.Options),
		Explanation: strings.TrimSpace(fq.Explanation),
	}
	switch {
	case fq.CorrectAnswer != nil && fq.CorrectIndex != nil:
		c.add(field, "set only one of correctAnswer and correctIndex")
	case fq.CorrectAnswer != nil:
		q.Correct = *fq.CorrectAnswer
	case fq.CorrectIndex != nil:
		q.Correct = *fq.CorrectIndex
	default:
		c.add(field+".correctAnswer", "is required")
	}
	return q
}

func (l *fileLink) link() *Link {
	if l == nil {
		return nil
	}
	return &Link{Label: strings.TrimSpace(l.Label), Path: strings.TrimSpace(l.To)}
}

func trimAll(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
