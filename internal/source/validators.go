package source

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateExtension checks that a path ends in ext (no dot, case-insensitive).
func ValidateExtension(origin, ext string) PathValidator {
	want := strings.ToLower(strings.TrimSpace(ext))
	return func(path string) (bool, string) {
		got := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(filepath.Ext(path), ".")))
		if got != want {
			return false, fmt.Sprintf("The input file for %s has extension %s but expected %s!", origin, got, want)
		}
		return true, ""
	}
}

// ValidateUniqueID checks that column is present, never blank and never repeated.
func ValidateUniqueID(origin, column string) TableValidator {
	return func(t Table) (bool, string) {
		if !t.HasColumn(column) {
			return false, fmt.Sprintf("The file for %s has no identifier column %s.", origin, column)
		}
		seen := make(map[string]bool, len(t.Records))
		for _, rec := range t.Records {
			id, ok := rec.Value(column)
			if !ok {
				return false, fmt.Sprintf("The file for %s has missing values in the identifier column %s. "+
					"Identifiers are assumed never to be missing.", origin, column)
			}
			if seen[id] {
				return false, fmt.Sprintf("The file for %s has duplicated values for identifier column %s. "+
					"Identifiers are assumed to be unique.", origin, column)
			}
			seen[id] = true
		}
		return true, ""
	}
}

// Chain runs every validator and reports all failures. A single failure keeps
// its own message; several are numbered under one heading.
func Chain[T any](origin string, validators ...func(T) (bool, string)) func(T) (bool, string) {
	return func(v T) (bool, string) {
		var failures []string
		for _, validate := range validators {
			if ok, msg := validate(v); !ok {
				failures = append(failures, msg)
			}
		}
		switch len(failures) {
		case 0:
			return true, ""
		case 1:
			return false, failures[0]
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Validation for %s failed for multiple reasons:\n", origin)
		for i, msg := range failures {
			fmt.Fprintf(&b, "%d) %s\n", i+1, msg)
		}
		return false, b.String()
	}
}
