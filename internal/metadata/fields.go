package metadata

import (
	"sort"
	"strings"
)

// Sort columns of the field reference table.
const (
	SortByName    = "field"
	SortByIndexed = "indexed"
	SortByType    = "type"
	SortByNotes   = "notes"
)

// PageSizes offered by the field table; -1 shows every row.
var PageSizes = []int{10, 25, 50, 100, -1}

// DefaultPageSize matches the docs table's initial length.
const DefaultPageSize = 50

// FieldQuery selects a page of the field table.
type FieldQuery struct {
	Filter string
	Sort   string
	Desc   bool
	Page   int // 1-based
	Per    int // -1 for all
}

// FieldPage is one rendered page of fields.
type FieldPage struct {
	Fields   []Field
	Page     int
	Pages    int
	Per      int
	Total    int // before filtering
	Filtered int // after filtering
	Start    int // 1-based index of the first row shown, 0 when empty
	End      int
}

// SortFields sorts in place by column; ties break on name.
func SortFields(fields []Field, column string, desc bool) {
	less := func(a, b Field) bool { return a.Name < b.Name }
	switch column {
	case SortByIndexed:
		less = func(a, b Field) bool {
			if a.Indexed != b.Indexed {
				return !a.Indexed
			}
			return a.Name < b.Name
		}
	case SortByType:
		less = func(a, b Field) bool {
			if a.Type != b.Type {
				return a.Type < b.Type
			}
			return a.Name < b.Name
		}
	case SortByNotes:
		less = func(a, b Field) bool {
			if a.Notes != b.Notes {
				return a.Notes < b.Notes
			}
			return a.Name < b.Name
		}
	}
	sort.SliceStable(fields, func(i, j int) bool {
		if desc {
			return less(fields[j], fields[i])
		}
		return less(fields[i], fields[j])
	})
}

// Query filters, sorts, and pages fields without modifying the input.
func Query(fields []Field, q FieldQuery) FieldPage {
	needle := strings.ToLower(strings.TrimSpace(q.Filter))
	matched := make([]Field, 0, len(fields))
	for _, f := range fields {
		if needle == "" ||
			strings.Contains(strings.ToLower(f.Name), needle) ||
			strings.Contains(strings.ToLower(f.Type), needle) ||
			strings.Contains(strings.ToLower(f.Notes), needle) {
			matched = append(matched, f)
		}
	}
	SortFields(matched, q.Sort, q.Desc)

	per := q.Per
	if !validPageSize(per) {
		per = DefaultPageSize
	}
	p := FieldPage{Per: per, Total: len(fields), Filtered: len(matched), Page: 1, Pages: 1}
	if per > 0 && len(matched) > 0 {
		p.Pages = (len(matched) + per - 1) / per
	}
	if q.Page > 1 {
		p.Page = q.Page
	}
	if p.Page > p.Pages {
		p.Page = p.Pages
	}

	start, end := 0, len(matched)
	if per > 0 {
		start = (p.Page - 1) * per
		end = start + per
		if end > len(matched) {
			end = len(matched)
		}
	}
	p.Fields = matched[start:end]
	if len(p.Fields) > 0 {
		p.Start, p.End = start+1, end
	}
	return p
}

func validPageSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}

// Names returns the field names, used for autocomplete.
func Names(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}
