package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/mohammadpnp/asset-import/internal/domain/attribute"
	domain "github.com/mohammadpnp/asset-import/internal/domain/importing"
	"github.com/xuri/excelize/v2"
)

// Reader loads csv, xlsx, xls and json files from a LocalSource into a
// Table. Only the first sheet of a workbook is read.
type Reader struct {
	source *LocalSource
}

func NewReader(source *LocalSource) *Reader {
	return &Reader{source: source}
}

func (r *Reader) Read(ctx context.Context, path string) (domain.Table, error) {
	f, err := r.source.Open(ctx, path)
	if err != nil {
		return domain.Table{}, err
	}
	defer f.Close()

	var (
		headers []string
		records [][]attribute.Value
	)
	switch ext := strings.ToLower(filepath.Ext(strings.TrimSpace(path))); ext {
	case ".csv":
		headers, records, err = readCSV(f)
	case ".xlsx":
		headers, records, err = readXLSX(f)
	case ".xls":
		var rs io.ReadSeeker
		if rs, err = seekable(f); err == nil {
			headers, records, err = readXLS(rs)
		}
	case ".json":
		headers, records, err = readJSON(f)
	default:
		return domain.Table{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	table := domain.Table{Headers: headers, Rows: make([]domain.Row, 0, len(records))}
	for _, values := range records {
		table.Rows = append(table.Rows, domain.NewRow(headers, values))
	}
	return table, nil
}

// seekable returns f itself when it can seek, otherwise its contents buffered
// in memory.
func seekable(f io.Reader) (io.ReadSeeker, error) {
	if rs, ok := f.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

func readCSV(f io.Reader) ([]string, [][]attribute.Value, error) {
	br := stripUTF8BOM(bufio.NewReader(f))
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []string{}, nil, nil
		}
		return nil, nil, err
	}
	headers := headerNames(header)

	var records [][]attribute.Value
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if blank(rec) {
			continue
		}
		records = append(records, textCells(rec, len(headers)))
	}
	return headers, records, nil
}

func readXLSX(f io.Reader) ([]string, [][]attribute.Value, error) {
	book, err := excelize.OpenReader(f)
	if err != nil {
		return nil, nil, err
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return []string{}, nil, nil
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, nil, err
	}
	headers, records := gridToRecords(rows)
	return headers, records, nil
}

func readXLS(f io.ReadSeeker) (headers []string, records [][]attribute.Value, err error) {
	// The xls decoder panics on some malformed workbooks.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("decode xls: %v", rec)
		}
	}()

	book, err := xls.OpenReader(f, "utf-8")
	if err != nil {
		return nil, nil, err
	}
	sheet := book.GetSheet(0)
	if sheet == nil {
		return []string{}, nil, nil
	}

	grid := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol()+1)
		for c := 0; c <= row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		grid = append(grid, cells)
	}
	headers, records = gridToRecords(grid)
	return headers, records, nil
}

// readJSON accepts an array of flat objects. Headers are the union of keys in
// first seen order.
func readJSON(f io.Reader) ([]string, [][]attribute.Value, error) {
	dec := json.NewDecoder(f)

	token, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []string{}, nil, nil
		}
		return nil, nil, fmt.Errorf("read json start token: %w", err)
	}
	delim, ok := token.(json.Delim)
	if !ok || delim != '[' {
		return nil, nil, errors.New("import payload must be a JSON array")
	}

	var (
		headers []string
		seen    = map[string]struct{}{}
		objects []*attribute.Map
	)
	for index := 0; dec.More(); index++ {
		obj := attribute.NewMap()
		if err := dec.Decode(obj); err != nil {
			return nil, nil, fmt.Errorf("decode record at index %d: %w", index, err)
		}
		for _, key := range obj.Keys() {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				headers = append(headers, key)
			}
		}
		objects = append(objects, obj)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("read json end token: %w", err)
	}

	records := make([][]attribute.Value, 0, len(objects))
	for _, obj := range objects {
		values := make([]attribute.Value, len(headers))
		for i, h := range headers {
			v, _ := obj.Get(h)
			if s, ok := stringValue(v); ok && strings.TrimSpace(s) == "" {
				v = attribute.Null()
			}
			values[i] = v
		}
		records = append(records, values)
	}
	if headers == nil {
		headers = []string{}
	}
	return headers, records, nil
}

// gridToRecords treats the first non-empty row as the header row and drops
// trailing unnamed columns and fully blank rows.
func gridToRecords(grid [][]string) ([]string, [][]attribute.Value) {
	start := 0
	for start < len(grid) && blank(grid[start]) {
		start++
	}
	if start == len(grid) {
		return []string{}, nil
	}

	header := grid[start]
	for len(header) > 0 && strings.TrimSpace(header[len(header)-1]) == "" {
		header = header[:len(header)-1]
	}
	headers := headerNames(header)

	var records [][]attribute.Value
	for _, row := range grid[start+1:] {
		if blank(row) {
			continue
		}
		records = append(records, textCells(row, len(headers)))
	}
	return headers, records
}

// headerNames trims header cells and names empty ones by position, so every
// column stays addressable.
func headerNames(raw []string) []string {
	headers := make([]string, len(raw))
	used := map[string]int{}
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := used[name]; ok {
			used[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			used[name] = 0
		}
		headers[i] = name
	}
	return headers
}

func textCells(rec []string, width int) []attribute.Value {
	values := make([]attribute.Value, width)
	for i := 0; i < width && i < len(rec); i++ {
		if s := strings.TrimSpace(rec[i]); s != "" {
			values[i] = attribute.String(s)
		}
	}
	return values
}

func blank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func stringValue(v attribute.Value) (string, bool) {
	if v.Kind() != attribute.KindString {
		return "", false
	}
	return v.Text(), true
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}
