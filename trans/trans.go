/*
Package trans holds the types shared by every part of the translation sync: the segments read from
an incoming document, the records kept in the store, and the results of syncing and exporting.
*/
package trans

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrMalformedDocument is returned when a document has no extractable segments.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrUnsupportedSourceLanguage is returned when a document is not written in the source language.
	ErrUnsupportedSourceLanguage = errors.New("unsupported source language")
	// ErrUnknownLanguage is returned when a language is not both configured and present in the store.
	ErrUnknownLanguage = errors.New("unknown language")
	// ErrStoreUnavailable wraps any failure to read from or write to the store.
	ErrStoreUnavailable = errors.New("store unavailable")
)

const (
	// Values written to the active column.
	Live    = "TRUE"
	NotLive = "FALSE"
)

// Segment is a single unit of source text taken from an incoming document.
type Segment struct {
	ID     string
	Source string
	// Zero means unconstrained.
	MaxWidth float64
	SizeUnit string
}

// Width returns MaxWidth in the form it is stored in.
func (s Segment) Width() string {
	return FormatWidth(s.MaxWidth)
}

// Record is a row of the store.
type Record struct {
	ID       string
	Category string
	Source   string
	// MaxWidth and Active hold raw cell text since the store can be edited by hand.
	MaxWidth string
	SizeUnit string
	Active   string
	// Keyed by language column name.
	Translations map[string]string
}

// NewRecord creates a live record for a segment that is not in the store yet, with every language
// column empty.
func NewRecord(s Segment, languageColumns []string) Record {
	r := Record{
		ID:           s.ID,
		Category:     Category(s.ID),
		Source:       s.Source,
		MaxWidth:     s.Width(),
		SizeUnit:     s.SizeUnit,
		Active:       Live,
		Translations: make(map[string]string, len(languageColumns)),
	}
	for _, c := range languageColumns {
		r.Translations[c] = ""
	}
	return r
}

// Live reports whether the record is live.
func (r Record) Live() bool {
	return IsLive(r.Active)
}

// Translation returns the content of a language column, or "" when the record has no value for it.
func (r Record) Translation(column string) string {
	if r.Translations == nil {
		return ""
	}
	return r.Translations[column]
}

// Clone returns a copy of r that shares no map with it.
func (r Record) Clone() Record {
	c := r
	c.Translations = make(map[string]string, len(r.Translations))
	for k, v := range r.Translations {
		c.Translations[k] = v
	}
	return c
}

// Width parses MaxWidth. ok is false unless it holds a positive number.
func (r Record) Width() (width float64, ok bool) {
	return ParseWidth(r.MaxWidth)
}

// Category returns the first dot-delimited token of id, or the whole id when it has no dot.
func Category(id string) string {
	if i := strings.IndexByte(id, '.'); i >= 0 {
		return id[:i]
	}
	return id
}

// IsLive reports whether the value of an active cell counts as live. Some stores stamp the column
// with a date rather than a boolean, so anything other than an explicit false value is live.
func IsLive(value string) bool {
	switch strings.TrimSpace(value) {
	case "", "false", "FALSE", "0":
		return false
	}
	return true
}

// FormatWidth renders a max width for storage. Zero renders as "".
func FormatWidth(width float64) string {
	if width <= 0 {
		return ""
	}
	return strconv.FormatFloat(width, 'f', -1, 64)
}

// ParseWidth parses a stored max width. Spreadsheets tend to hand back whole numbers as "40.0", so
// any finite positive number is accepted. Widths too large to ever be exceeded count as no limit.
func ParseWidth(value string) (width float64, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 || f > math.MaxInt {
		return 0, false
	}
	return f, true
}

// SameWidth reports whether two stored max widths describe the same constraint.
func SameWidth(a, b string) bool {
	wa, okA := ParseWidth(a)
	wb, okB := ParseWidth(b)
	if okA || okB {
		return okA == okB && wa == wb
	}
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

// Stats counts what a sync did to the store.
type Stats struct {
	Added       int `json:"added"`
	Updated     int `json:"updated"`
	Unchanged   int `json:"unchanged"`
	Deactivated int `json:"deactivated"`
}

// Output is one unit of an exported document.
type Output struct {
	ID       string `json:"id"`
	MaxWidth string `json:"maxwidth,omitempty"`
	SizeUnit string `json:"size_unit,omitempty"`
	Source   string `json:"source"`
	Target   string `json:"target"`
}

// Violation reports a translation that does not fit its max width.
type Violation struct {
	ID       string  `json:"id"`
	Value    string  `json:"value"`
	MaxWidth float64 `json:"maxwidth"`
}

// Language is a configured target language.
type Language struct {
	Name string `toml:"name" yaml:"name" json:"name"`
	Code string `toml:"code" yaml:"code" json:"code"`
}
