/*
Package reconcile works out how the store must change to reflect a newly imported document.

Records are never removed. A record whose id is missing from the document is marked as not live and
keeps its source and translations, so it comes back intact if the id reappears. A record whose source
text changed has every translation cleared, since a translation only holds for the text it was made
from.
*/
package reconcile

import (
	"github.com/petert82/go-translation-sync/trans"
)

// ChangeKind describes what happened to a single row.
type ChangeKind int

const (
	// ChangeRefresh marks a row whose metadata or liveness changed but whose source did not.
	ChangeRefresh ChangeKind = iota + 1
	// ChangeUpdate marks a row whose source changed and whose translations were cleared.
	ChangeUpdate
	// ChangeDeactivate marks a row that is no longer in the document.
	ChangeDeactivate
	// ChangeAdd marks a row that did not exist before.
	ChangeAdd
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeRefresh:
		return "refresh"
	case ChangeUpdate:
		return "update"
	case ChangeDeactivate:
		return "deactivate"
	case ChangeAdd:
		return "add"
	}
	return "unknown"
}

// Change points at a row of Result.Records that differs from the current store.
type Change struct {
	Index int
	Kind  ChangeKind
}

// Result is the next state of the store.
type Result struct {
	// Existing records keep their position, new ones follow in document order.
	Records []trans.Record
	Stats   trans.Stats
	Changes []Change
}

// Changed returns the records that existed before and were modified.
func (r Result) Changed() []trans.Record {
	var out []trans.Record
	for _, c := range r.Changes {
		if c.Kind != ChangeAdd {
			out = append(out, r.Records[c.Index])
		}
	}
	return out
}

// Added returns the records that are new.
func (r Result) Added() []trans.Record {
	var out []trans.Record
	for _, c := range r.Changes {
		if c.Kind == ChangeAdd {
			out = append(out, r.Records[c.Index])
		}
	}
	return out
}

// Reconcile computes the next store state from the current records and the segments of a new
// document. Neither input is modified. Running it again with the same segments against its own
// output counts every record as unchanged.
func Reconcile(segments []trans.Segment, records []trans.Record, languageColumns []string) Result {
	incoming, order := index(segments)

	res := Result{Records: make([]trans.Record, 0, len(records)+len(incoming))}
	for _, current := range records {
		next := current.Clone()
		seg, ok := incoming[current.ID]

		var kind ChangeKind
		switch {
		case !ok:
			if current.Live() {
				next.Active = trans.NotLive
				kind = ChangeDeactivate
				res.Stats.Deactivated++
			} else {
				res.Stats.Unchanged++
			}
		case seg.Source != current.Source:
			next.Source = seg.Source
			next.MaxWidth = seg.Width()
			next.SizeUnit = seg.SizeUnit
			next.Active = trans.Live
			clearTranslations(&next, languageColumns)
			kind = ChangeUpdate
			res.Stats.Updated++
		default:
			if !trans.SameWidth(current.MaxWidth, seg.Width()) || current.SizeUnit != seg.SizeUnit || !current.Live() {
				next.MaxWidth = seg.Width()
				next.SizeUnit = seg.SizeUnit
				next.Active = trans.Live
				kind = ChangeRefresh
			}
			res.Stats.Unchanged++
		}

		if ok {
			delete(incoming, current.ID)
		}
		if kind != 0 {
			res.Changes = append(res.Changes, Change{Index: len(res.Records), Kind: kind})
		}
		res.Records = append(res.Records, next)
	}

	for _, id := range order {
		seg, ok := incoming[id]
		if !ok {
			continue
		}
		res.Changes = append(res.Changes, Change{Index: len(res.Records), Kind: ChangeAdd})
		res.Records = append(res.Records, trans.NewRecord(seg, languageColumns))
		res.Stats.Added++
	}

	return res
}

// index maps segments by id, the last duplicate winning. order lists each id once, by first
// appearance. Segments without an id are skipped.
func index(segments []trans.Segment) (byID map[string]trans.Segment, order []string) {
	byID = make(map[string]trans.Segment, len(segments))
	for _, s := range segments {
		if s.ID == "" {
			continue
		}
		if _, seen := byID[s.ID]; !seen {
			order = append(order, s.ID)
		}
		byID[s.ID] = s
	}
	return byID, order
}

// clearTranslations empties every language column, including ones the record has no value for yet
// and ones it carries that are not in languageColumns.
func clearTranslations(r *trans.Record, languageColumns []string) {
	for k := range r.Translations {
		r.Translations[k] = ""
	}
	for _, c := range languageColumns {
		r.Translations[c] = ""
	}
}
