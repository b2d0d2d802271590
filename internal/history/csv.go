package history

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/wallwatch/internal/timeutil"
	"github.com/banshee-data/wallwatch/internal/walls"
)

// Columns is the header of the persisted table, in write order.
var Columns = []string{"scrape_date", "scrape_time", "name", "capacity", "count", "time"}

// ErrBadHeader is returned when a table file lacks a required column.
var ErrBadHeader = errors.New("table header is missing required columns")

// EncodeCSV writes the header and every row of t.
func EncodeCSV(w io.Writer, t walls.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range t.Rows {
		rec := []string{
			r.ScrapeDate.String(),
			string(r.ScrapeTime),
			r.Name,
			strconv.Itoa(r.Capacity),
			strconv.Itoa(r.Count),
			r.LastUpdated,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeCSV parses a table file. Columns are located by header name, leading
// spaces after delimiters are ignored (EncodeCSV quotes values that start with
// a space, so those survive), and every field is type-checked; the
// first bad field fails the whole load with its line number. An empty input
// is an empty table.
func DecodeCSV(r io.Reader) (walls.Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return walls.Table{}, nil
	}
	if err != nil {
		return walls.Table{}, fmt.Errorf("read header: %w", err)
	}

	idx, err := columnIndex(header)
	if err != nil {
		return walls.Table{}, err
	}

	var rows []walls.SnapshotRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return walls.Table{}, fmt.Errorf("read table: %w", err)
		}
		line, _ := cr.FieldPos(0)

		row, err := parseRecord(rec, idx)
		if err != nil {
			return walls.Table{}, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return walls.Table{Rows: rows}, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	var missing []string
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrBadHeader, strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseRecord(rec []string, idx map[string]int) (walls.SnapshotRow, error) {
	// Text columns are kept verbatim; typed columns tolerate padding.
	field := func(name string) string {
		i := idx[name]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}
	typed := func(name string) string { return strings.TrimSpace(field(name)) }

	var row walls.SnapshotRow
	var err error

	if row.ScrapeDate, err = timeutil.ParseDate(typed("scrape_date")); err != nil {
		return row, fmt.Errorf("scrape_date: %w", err)
	}
	if row.ScrapeTime, err = walls.ParseClockTime(typed("scrape_time")); err != nil {
		return row, fmt.Errorf("scrape_time: %w", err)
	}
	if row.Name = field("name"); strings.TrimSpace(row.Name) == "" {
		return row, errors.New("name: empty")
	}
	if raw := typed("capacity"); raw != "" {
		if row.Capacity, err = parseWholeNumber(raw); err != nil {
			return row, fmt.Errorf("capacity: %w", err)
		}
	}
	if row.Count, err = parseWholeNumber(typed("count")); err != nil {
		return row, fmt.Errorf("count: %w", err)
	}
	row.LastUpdated = field("time")
	return row, nil
}

// parseWholeNumber accepts integers and integral floats such as "12.0",
// which older tables written through a float column contain.
func parseWholeNumber(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("not a whole number: %q", s)
	}
	return int(f), nil
}

// csvBytes renders t into a buffer.
func csvBytes(t walls.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
