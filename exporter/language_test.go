package exporter

import (
	"errors"
	"github.com/petert82/go-translation-sync/language"
	"github.com/petert82/go-translation-sync/trans"
	"reflect"
	"testing"
)

var storeColumns = []string{"id", "category", "source", "maxwidth", "size_unit", "active", "French", "Spanish"}

func registry(t *testing.T) *language.Registry {
	t.Helper()
	r, err := language.New([]trans.Language{
		{Name: "French", Code: "fr"},
		{Name: "Spanish", Code: "es"},
		{Name: "German", Code: "de"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestLanguageLengthViolation(t *testing.T) {
	records := []trans.Record{
		{ID: "a", Source: "Hello World", MaxWidth: "5", Active: "TRUE", Translations: map[string]string{"Spanish": "Hola Mundo"}},
		{ID: "b", Source: "Yes", MaxWidth: "5", SizeUnit: "char", Active: "TRUE", Translations: map[string]string{"Spanish": "Sí"}},
	}

	res, err := Language("Spanish", records, registry(t), storeColumns)
	if err != nil {
		t.Fatal(err)
	}

	wantViolations := []trans.Violation{{ID: "a", Value: "Hola Mundo", MaxWidth: 5}}
	if !reflect.DeepEqual(res.Violations, wantViolations) {
		t.Errorf("violations = %+v, want %+v", res.Violations, wantViolations)
	}
	wantSegments := []trans.Output{{ID: "b", MaxWidth: "5", SizeUnit: "char", Source: "Yes", Target: "Sí"}}
	if !reflect.DeepEqual(res.Segments, wantSegments) {
		t.Errorf("segments = %+v, want %+v", res.Segments, wantSegments)
	}
}

func TestLanguageFilters(t *testing.T) {
	records := []trans.Record{
		{ID: "live", Source: "s1", Active: "TRUE", Translations: map[string]string{"French": "un"}},
		{ID: "dated", Source: "s2", Active: "2024-01-01", Translations: map[string]string{"French": "deux"}},
		{ID: "dead", Source: "s3", Active: "FALSE", Translations: map[string]string{"French": "trois"}},
		{ID: "zero", Source: "s4", Active: "0", Translations: map[string]string{"French": "quatre"}},
		{ID: "blank", Source: "s5", Active: "TRUE", Translations: map[string]string{"French": "   "}},
		{ID: "missing", Source: "s6", Active: "TRUE"},
		{ID: "badwidth", Source: "s7", MaxWidth: "n/a", Active: "true", Translations: map[string]string{"French": "sept sept sept"}},
		{ID: "exact", Source: "s8", MaxWidth: "4", Active: "TRUE", Translations: map[string]string{"French": "été!"}},
		{ID: "huge", Source: "s9", MaxWidth: "99999999999999999999", Active: "TRUE", Translations: map[string]string{"French": "ok"}},
		{ID: "exponent", Source: "s10", MaxWidth: "1e30", Active: "TRUE", Translations: map[string]string{"French": "ok"}},
		{ID: "inf", Source: "s11", MaxWidth: "Inf", Active: "TRUE", Translations: map[string]string{"French": "ok"}},
		{ID: "nan", Source: "s12", MaxWidth: "NaN", Active: "TRUE", Translations: map[string]string{"French": "ok"}},
		{ID: "half", Source: "s13", MaxWidth: "0.5", Active: "TRUE", Translations: map[string]string{"French": "x"}},
		{ID: "fraction", Source: "s14", MaxWidth: "2.5", Active: "TRUE", Translations: map[string]string{"French": "ok"}},
	}

	res, err := Language("French", records, registry(t), storeColumns)
	if err != nil {
		t.Fatal(err)
	}

	var ids []string
	for _, s := range res.Segments {
		ids = append(ids, s.ID)
	}
	want := []string{"live", "dated", "badwidth", "exact", "huge", "exponent", "inf", "nan", "fraction"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
	wantViolations := []trans.Violation{{ID: "half", Value: "x", MaxWidth: 0.5}}
	if !reflect.DeepEqual(res.Violations, wantViolations) {
		t.Errorf("violations = %+v, want %+v", res.Violations, wantViolations)
	}
}

func TestLanguageUnknown(t *testing.T) {
	reg := registry(t)

	// configured but not a store column
	if _, err := Language("German", nil, reg, storeColumns); !errors.Is(err, trans.ErrUnknownLanguage) {
		t.Errorf("German: err = %v, want ErrUnknownLanguage", err)
	}
	// store column but not configured
	if _, err := Language("Klingon", nil, reg, append(storeColumns, "Klingon")); !errors.Is(err, trans.ErrUnknownLanguage) {
		t.Errorf("Klingon: err = %v, want ErrUnknownLanguage", err)
	}
}

func TestLanguageEmpty(t *testing.T) {
	res, err := Language("French", nil, registry(t), storeColumns)
	if err != nil {
		t.Fatal(err)
	}
	if res.Segments == nil || len(res.Segments) != 0 || len(res.Violations) != 0 {
		t.Errorf("unexpected result %+v", res)
	}
}
