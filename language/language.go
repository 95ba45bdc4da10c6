/*
Package language maps the human-facing language names used as store columns to the codes written
into XLIFF files.

The store's columns can be edited by hand, so they may lag behind or run ahead of the configured
languages. Only languages present in both are ever offered for export.
*/
package language

import (
	"fmt"
	"github.com/petert82/go-translation-sync/trans"
)

// Registry is an ordered set of configured languages.
type Registry struct {
	languages []trans.Language
	byName    map[string]int
	byCode    map[string]int
}

// New creates a registry from configured languages, keeping their order.
func New(languages []trans.Language) (*Registry, error) {
	r := &Registry{
		languages: make([]trans.Language, 0, len(languages)),
		byName:    make(map[string]int, len(languages)),
		byCode:    make(map[string]int, len(languages)),
	}
	for _, l := range languages {
		if l.Name == "" || l.Code == "" {
			return nil, fmt.Errorf("language: name and code are both required (got name %q, code %q)", l.Name, l.Code)
		}
		if _, ok := r.byName[l.Name]; ok {
			return nil, fmt.Errorf("language: %q configured more than once", l.Name)
		}
		if _, ok := r.byCode[l.Code]; ok {
			return nil, fmt.Errorf("language: code %q configured more than once", l.Code)
		}
		r.byName[l.Name] = len(r.languages)
		r.byCode[l.Code] = len(r.languages)
		r.languages = append(r.languages, l)
	}
	return r, nil
}

// Names returns every configured language name.
func (r *Registry) Names() []string {
	names := make([]string, len(r.languages))
	for i, l := range r.languages {
		names[i] = l.Name
	}
	return names
}

// Available returns the configured language names that are also store columns, in configured order.
func (r *Registry) Available(storeColumns []string) []string {
	present := make(map[string]bool, len(storeColumns))
	for _, c := range storeColumns {
		present[c] = true
	}
	var names []string
	for _, l := range r.languages {
		if present[l.Name] {
			names = append(names, l.Name)
		}
	}
	return names
}

// IsAvailable reports whether name is configured and is a store column.
func (r *Registry) IsAvailable(name string, storeColumns []string) bool {
	for _, n := range r.Available(storeColumns) {
		if n == name {
			return true
		}
	}
	return false
}

// CodeFor returns the XLIFF code of a configured language.
func (r *Registry) CodeFor(name string) (string, error) {
	i, ok := r.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q is not configured", trans.ErrUnknownLanguage, name)
	}
	return r.languages[i].Code, nil
}

// NameFor returns the name of the configured language with the given code.
func (r *Registry) NameFor(code string) (string, error) {
	i, ok := r.byCode[code]
	if !ok {
		return "", fmt.Errorf("%w: no language with code %q is configured", trans.ErrUnknownLanguage, code)
	}
	return r.languages[i].Name, nil
}
