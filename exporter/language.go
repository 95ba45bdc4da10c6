/*
Package exporter builds a language-specific document from the store.

Translations that overflow their max width are left out and reported as violations. A violation
never stops the export: every other translation still ships.
*/
package exporter

import (
	"fmt"
	"github.com/petert82/go-translation-sync/language"
	"github.com/petert82/go-translation-sync/trans"
	"strings"
	"unicode/utf8"
)

// Result is the content of an export, before it is serialized.
type Result struct {
	Segments   []trans.Output
	Violations []trans.Violation
}

// Language projects records onto the language column name. storeColumns are the store's columns;
// name must be both configured in registry and one of them.
func Language(name string, records []trans.Record, registry *language.Registry, storeColumns []string) (Result, error) {
	if !registry.IsAvailable(name, storeColumns) {
		return Result{}, fmt.Errorf("%w: %q is not both configured and present in the store (available: %v)",
			trans.ErrUnknownLanguage, name, registry.Available(storeColumns))
	}

	res := Result{Segments: make([]trans.Output, 0, len(records))}
	for _, r := range records {
		if !r.Live() {
			continue
		}
		target := r.Translation(name)
		if strings.TrimSpace(target) == "" {
			continue
		}
		if width, ok := r.Width(); ok && float64(utf8.RuneCountInString(target)) > width {
			res.Violations = append(res.Violations, trans.Violation{ID: r.ID, Value: target, MaxWidth: width})
			continue
		}
		res.Segments = append(res.Segments, trans.Output{
			ID:       r.ID,
			MaxWidth: r.MaxWidth,
			SizeUnit: r.SizeUnit,
			Source:   r.Source,
			Target:   target,
		})
	}

	return res, nil
}
