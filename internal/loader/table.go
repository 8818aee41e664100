package loader

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/pable/nfl-tackle-metrics/internal/model"
)

// extensions are tried in order when resolving a logical table name.
var extensions = []string{".csv", ".csv.zst", ".csv.gz"}

// Resolve returns the path of the first existing file for table name in dir.
func Resolve(dir, name string) (string, error) {
	for _, ext := range extensions {
		p := filepath.Join(dir, name+ext)
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", p, err)
		}
	}
	return "", &model.FileError{Path: filepath.Join(dir, name+".csv")}
}

// table is a header-indexed CSV reader over one input file.
type table struct {
	name    string
	r       *csv.Reader
	header  map[string]int
	line    int
	raw     io.Reader // hashed file bytes, drained on Close
	closers []io.Closer
}

func (l *Loader) open(name string) (*table, error) {
	path, err := Resolve(l.dir, name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	t := &table{name: filepath.Base(path), closers: []io.Closer{f}}
	t.raw = io.TeeReader(f, l.digest)

	var src io.Reader = t.raw
	switch {
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(t.raw)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("zstd %s: %w", path, err)
		}
		t.closers = append(t.closers, closerFunc(func() error { dec.Close(); return nil }))
		src = dec
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(t.raw)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: gzip %s: %v", model.ErrParse, path, err)
		}
		t.closers = append(t.closers, gz)
		src = gz
	}

	t.r = csv.NewReader(src)
	t.r.ReuseRecord = true

	hdr, err := t.r.Read()
	if err == io.EOF {
		t.Close()
		return nil, fmt.Errorf("%w: %s: empty file, header row required", model.ErrParse, t.name)
	}
	if err != nil {
		t.Close()
		return nil, fmt.Errorf("%w: %s: %v", model.ErrParse, t.name, err)
	}
	t.line = 1
	t.header = make(map[string]int, len(hdr))
	for i, h := range hdr {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if _, dup := t.header[h]; !dup {
			t.header[h] = i
		}
	}
	return t, nil
}

// Close drains the remaining raw bytes into the digest and releases the file.
func (t *table) Close() error {
	_, _ = io.Copy(io.Discard, t.raw)
	var first error
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// col returns the index of the first present column among names.
func (t *table) col(names ...string) (int, error) {
	for _, n := range names {
		if i, ok := t.header[n]; ok {
			return i, nil
		}
	}
	return -1, &model.ColumnError{Table: t.name, Column: names[0]}
}

func (t *table) cols(names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, n := range names {
		idx, err := t.col(n)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}

func (t *table) optCol(name string) int {
	if i, ok := t.header[name]; ok {
		return i
	}
	return -1
}

func (t *table) next() ([]string, error) {
	rec, err := t.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	t.line++
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrParse, t.name, err)
	}
	return rec, nil
}

func (t *table) valueErr(col int, value string, err error) error {
	name := ""
	for n, i := range t.header {
		if i == col {
			name = n
			break
		}
	}
	return &model.ValueError{Table: t.name, Line: t.line, Column: name, Value: value, Err: err}
}

func isMissing(s string) bool {
	switch s {
	case "", "NA", "NaN", "nan":
		return true
	}
	return false
}

// optID parses an integer identifier; ok is false for an empty/NA field.
// Identifiers written as floats ("43290.0") are accepted when integral.
func (t *table) optID(rec []string, col int) (id int64, ok bool, err error) {
	s := strings.TrimSpace(rec[col])
	if isMissing(s) {
		return 0, false, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, t.valueErr(col, s, err)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false, t.valueErr(col, s, errors.New("not an integer"))
	}
	return int64(f), true, nil
}

func (t *table) id(rec []string, col int) (int64, error) {
	v, ok, err := t.optID(rec, col)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, t.valueErr(col, rec[col], errors.New("missing identifier"))
	}
	return v, nil
}

func (t *table) integer(rec []string, col int) (int, error) {
	v, ok, err := t.optID(rec, col)
	if err != nil || !ok {
		return 0, err
	}
	return int(v), nil
}

// float parses a numeric field; empty/NA fields become NaN.
func (t *table) float(rec []string, col int) (float64, error) {
	s := strings.TrimSpace(rec[col])
	if isMissing(s) {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, t.valueErr(col, s, err)
	}
	return v, nil
}

// flag parses a 0/1 flag, small count or boolean literal as a number.
func (t *table) flag(rec []string, col int) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(rec[col])) {
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	return t.float(rec, col)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
