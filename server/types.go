package server

import (
	"github.com/petert82/go-translation-sync/trans"
)

type Record struct {
	Id           string            `json:"id"`
	Category     string            `json:"category"`
	Source       string            `json:"source"`
	MaxWidth     string            `json:"maxwidth,omitempty"`
	SizeUnit     string            `json:"size_unit,omitempty"`
	Live         bool              `json:"live"`
	Translations map[string]string `json:"translations"`
}

func NewRecord(r trans.Record) Record {
	rec := Record{
		Id:           r.ID,
		Category:     r.Category,
		Source:       r.Source,
		MaxWidth:     r.MaxWidth,
		SizeUnit:     r.SizeUnit,
		Live:         r.Live(),
		Translations: make(map[string]string, len(r.Translations)),
	}
	for l, t := range r.Translations {
		if t != "" {
			rec.Translations[l] = t
		}
	}
	return rec
}
