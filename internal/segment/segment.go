// Package segment merges linear-referenced road intervals into minimal continuous runs.
package segment

import (
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// RoadIDColumn is the default grouping column.
const RoadIDColumn = "road_id"

// ErrUnknownColumn is returned when a grouping column is missing from a record.
var ErrUnknownColumn = eris.New("segment: unknown column")

// Interval is a linear window on a road in metres.
type Interval struct {
	StartM float64 `json:"start_m"`
	EndM   float64 `json:"end_m"`
}

// Length returns the interval length in metres.
func (i Interval) Length() float64 {
	return i.EndM - i.StartM
}

// Contains reports whether m lies within the closed interval.
func (i Interval) Contains(m float64) bool {
	return m >= i.StartM && m <= i.EndM
}

// Record is one row of a segment table. Attrs carries every column other than
// road_id, start_m and end_m.
type Record struct {
	RoadID int64             `json:"road_id"`
	StartM float64           `json:"start_m"`
	EndM   float64           `json:"end_m"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

// Interval returns the record's linear window.
func (r Record) Interval() Interval {
	return Interval{StartM: r.StartM, EndM: r.EndM}
}

// Value returns the value of a named column as a string.
func (r Record) Value(column string) (string, bool) {
	if column == RoadIDColumn {
		return strconv.FormatInt(r.RoadID, 10), true
	}
	v, ok := r.Attrs[column]
	return v, ok
}

// fingerprint identifies a record by every column value.
func (r Record) fingerprint() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(r.RoadID, 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(r.StartM, 'g', -1, 64))
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(r.EndM, 'g', -1, 64))
	for _, k := range slices.Sorted(maps.Keys(r.Attrs)) {
		b.WriteByte('|')
		b.WriteString(strconv.Quote(k))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(r.Attrs[k]))
	}
	return b.String()
}

// Merge fuses touching or overlapping intervals into sorted, non-overlapping runs.
func Merge(intervals []Interval) []Interval {
	sorted := slices.Clone(intervals)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartM != sorted[j].StartM {
			return sorted[i].StartM < sorted[j].StartM
		}
		return sorted[i].EndM < sorted[j].EndM
	})

	return fold(sorted, func(iv Interval) Interval { return iv },
		func(_ Interval, run Interval) Interval { return run })
}

// Combine merges touching or overlapping records that share the values of the
// groupBy columns (road_id when none are given). Exact duplicates are dropped.
// Each output run keeps the non-grouping columns of its first row. The input
// slice is not modified.
func Combine(records []Record, groupBy ...string) ([]Record, error) {
	if len(groupBy) == 0 {
		groupBy = []string{RoadIDColumn}
	}

	rows := dedupe(records)

	keys := make([][]string, len(rows))
	for i, r := range rows {
		key := make([]string, len(groupBy))
		for j, col := range groupBy {
			v, ok := r.Value(col)
			if !ok {
				return nil, eris.Wrapf(ErrUnknownColumn, "segment: column %q missing on road %d at %g", col, r.RoadID, r.StartM)
			}
			key[j] = v
		}
		keys[i] = key
	}

	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if c := compareKeys(keys[ia], keys[ib]); c != 0 {
			return c < 0
		}
		if rows[ia].StartM != rows[ib].StartM {
			return rows[ia].StartM < rows[ib].StartM
		}
		return rows[ia].EndM < rows[ib].EndM
	})

	out := make([]Record, 0, len(rows))
	for start := 0; start < len(order); {
		end := start + 1
		for end < len(order) && compareKeys(keys[order[start]], keys[order[end]]) == 0 {
			end++
		}

		group := make([]Record, 0, end-start)
		for _, idx := range order[start:end] {
			group = append(group, rows[idx])
		}
		out = append(out, fold(group, Record.Interval, func(first Record, run Interval) Record {
			first.StartM, first.EndM = run.StartM, run.EndM
			first.Attrs = maps.Clone(first.Attrs)
			return first
		})...)

		start = end
	}

	return out, nil
}

// fold scans rows already sorted by start and emits one value per continuous run.
func fold[T, R any](rows []T, span func(T) Interval, emit func(first T, run Interval) R) []R {
	out := make([]R, 0, len(rows))
	if len(rows) == 0 {
		return out
	}

	first := rows[0]
	run := span(first)
	for _, row := range rows[1:] {
		iv := span(row)
		if iv.StartM <= run.EndM {
			run.EndM = max(run.EndM, iv.EndM)
			continue
		}
		out = append(out, emit(first, run))
		first, run = row, iv
	}
	return append(out, emit(first, run))
}

func dedupe(records []Record) []Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		fp := r.fingerprint()
		if _, ok := seen[fp]; ok {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, r)
	}
	return out
}

// compareKeys orders group keys column by column, numerically when both values
// parse as numbers.
func compareKeys(a, b []string) int {
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		fa, errA := strconv.ParseFloat(a[i], 64)
		fb, errB := strconv.ParseFloat(b[i], 64)
		if errA == nil && errB == nil && fa != fb {
			if fa < fb {
				return -1
			}
			return 1
		}
		if a[i] < b[i] {
			return -1
		}
		return 1
	}
	return 0
}
