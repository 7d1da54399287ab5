package lexicalindex

import (
	"fmt"
	"strings"
)

// buildFilterClause combines every provided filter with AND; list-valued
// filters (file_types, scan_ids) become an OR group. Every string value is
// escaped before being embedded in a clause, and scan_ids is validated to
// contain only integers, a non-integer scan ID is rejected rather than
// silently dropped or interpolated, closing the filter-injection path a raw
// string-valued scan ID would otherwise open.
func buildFilterClause(f SearchFilters) (string, error) {
	var clauses []string

	if len(f.FileTypes) > 0 {
		var ors []string
		for _, ft := range f.FileTypes {
			ors = append(ors, fmt.Sprintf(`file_type = "%s"`, escapeFilterValue(ft)))
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}

	if len(f.ScanIDs) > 0 {
		var ors []string
		for _, id := range f.ScanIDs {
			// ScanIDs is already typed int64, so no parse/validation step is
			// needed here; the type system is the integer check. A filter
			// surface that instead accepts scan IDs as strings (e.g. from an
			// HTTP query parameter) MUST validate each one is a plain integer
			// before reaching this point.
			ors = append(ors, fmt.Sprintf("scan_id = %d", id))
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}

	if f.ProjectPath != "" {
		clauses = append(clauses, fmt.Sprintf(`file_path STARTS WITH "%s"`, escapeFilterValue(f.ProjectPath)))
	}

	return strings.Join(clauses, " AND "), nil
}

// ValidateScanIDStrings is the integer-validation gate for callers that
// receive scan_ids as raw strings (e.g. an HTTP query parameter) before they
// are parsed into int64 and passed to SearchFilters. It rejects anything
// that is not a plain base-10 integer, preventing a crafted value like
// `1 OR 1=1` from ever reaching buildFilterClause.
func ValidateScanIDStrings(raw []string) ([]int64, error) {
	out := make([]int64, 0, len(raw))
	for _, s := range raw {
		var id int64
		n, err := fmt.Sscanf(s, "%d", &id)
		if err != nil || n != 1 || fmt.Sprintf("%d", id) != s {
			return nil, fmt.Errorf("lexicalindex: invalid scan_id %q: must be a plain integer", s)
		}
		out = append(out, id)
	}
	return out, nil
}
