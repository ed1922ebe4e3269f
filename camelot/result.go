package camelot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Result is camelot's per-table output merged into one structure keyed by
// the page and table numbers taken from the file names.
type Result struct {
	Pages map[int]*Page `json:"pages"`
}

// Page holds the decoded tables found on one page.
type Page struct {
	Tables map[int]json.RawMessage `json:"tables"`
}

func NewResult() *Result {
	return &Result{Pages: map[int]*Page{}}
}

// Add stores content at [page][table], replacing any previous value.
func (r *Result) Add(page, table int, content json.RawMessage) {
	if r.Pages == nil {
		r.Pages = map[int]*Page{}
	}
	p, ok := r.Pages[page]
	if !ok {
		p = &Page{Tables: map[int]json.RawMessage{}}
		r.Pages[page] = p
	}
	p.Tables[table] = content
}

func (r *Result) Page(n int) (*Page, bool) {
	p, ok := r.Pages[n]
	return p, ok
}

// Table returns the content stored at [page][table].
func (r *Result) Table(page, table int) (json.RawMessage, bool) {
	p, ok := r.Pages[page]
	if !ok {
		return nil, false
	}
	t, ok := p.Tables[table]
	return t, ok
}

// PageNumbers returns the page numbers in ascending order.
func (r *Result) PageNumbers() []int {
	return sortedKeys(r.Pages)
}

// TableNumbers returns the table numbers in ascending order.
func (p *Page) TableNumbers() []int {
	return sortedKeys(p.Tables)
}

// TableCount is the number of tables across all pages.
func (r *Result) TableCount() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Tables)
	}
	return n
}

// MarshalJSON writes pages in numeric order; encoding/json would sort the
// keys as strings ("10" before "2").
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"pages":{`)
	for i, n := range r.PageNumbers() {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := json.Marshal(r.Pages[n])
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, `"%d":`, n)
		buf.Write(b)
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}

func (p *Page) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"tables":{`)
	for i, n := range p.TableNumbers() {
		if i > 0 {
			buf.WriteByte(',')
		}
		content := p.Tables[n]
		if len(content) == 0 {
			content = json.RawMessage("null")
		}
		fmt.Fprintf(&buf, `"%d":`, n)
		buf.Write(content)
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// tableFileMatcher recognizes `<base>-page-<N>-table-<M>.<ext>`.
type tableFileMatcher struct {
	re *regexp.Regexp
}

func newTableFileMatcher(base, ext string) tableFileMatcher {
	suffix := `(?:\.[^.]+)?`
	if ext != "" {
		suffix = `\.` + regexp.QuoteMeta(ext)
	}
	return tableFileMatcher{
		re: regexp.MustCompile(`^` + regexp.QuoteMeta(base) + `-page-(\d+)-table-(\d+)` + suffix + `$`),
	}
}

func (m tableFileMatcher) match(name string) (page, table int, ok bool) {
	sm := m.re.FindStringSubmatch(name)
	if sm == nil {
		return 0, 0, false
	}
	page, err := strconv.Atoi(sm[1])
	if err != nil {
		return 0, 0, false
	}
	table, err = strconv.Atoi(sm[2])
	if err != nil {
		return 0, 0, false
	}
	return page, table, true
}

// splitOutput returns the base name and extension (without dot) of an output path.
func splitOutput(output string) (dir, base, ext string) {
	dir = filepath.Dir(output)
	name := filepath.Base(output)
	dotExt := filepath.Ext(name)
	return dir, strings.TrimSuffix(name, dotExt), strings.TrimPrefix(dotExt, ".")
}

// ParseTableFileName extracts page and table numbers from a camelot output
// file name. Names outside the grammar report ok=false.
func ParseTableFileName(base, ext, name string) (page, table int, ok bool) {
	return newTableFileMatcher(base, ext).match(name)
}

// tableCheck is run against every decoded table before it is merged.
type tableCheck func(name string, content json.RawMessage) error

// CollectResult merges every table file written next to output. The directory
// is scanned whether or not it was allocated by NewConfig. Files that are not
// JSON, including empty ones, are stored as JSON strings ("" for empty).
func CollectResult(output string) (*Result, error) {
	return collectResult(output, nil)
}

func collectResult(output string, check tableCheck) (*Result, error) {
	dir, base, ext := splitOutput(output)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read output dir: %w", ErrInvalidOutput, err)
	}

	m := newTableFileMatcher(base, ext)
	res := NewResult()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		page, table, ok := m.match(e.Name())
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidOutput, e.Name(), err)
		}
		content, err := decodeContent(data)
		if err != nil {
			return nil, fmt.Errorf("%w: decode %s: %w", ErrInvalidOutput, e.Name(), err)
		}
		if check != nil {
			if err := check(e.Name(), content); err != nil {
				return nil, err
			}
		}
		res.Add(page, table, content)
	}
	return res, nil
}

// decodeContent keeps JSON as-is and wraps anything else (csv, html, ...)
// as a JSON string.
func decodeContent(data []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && json.Valid(trimmed) {
		return json.RawMessage(trimmed), nil
	}
	b, err := json.Marshal(string(data))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

// DecodeTable decodes camelot's JSON table layout: a list of rows, each row
// keyed by column index.
func DecodeTable(raw json.RawMessage) ([]map[string]string, error) {
	var rows []map[string]string
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode table: %w", err)
	}
	return rows, nil
}

// columnKeys returns the union of row keys, numeric keys first in numeric order.
func columnKeys(rows []map[string]string) []string {
	seen := map[string]struct{}{}
	var keys []string
	for _, row := range rows {
		for k := range row {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}
