package exporter

import (
	"context"
	"fmt"
	"github.com/petert82/go-translation-sync/config"
	"github.com/petert82/go-translation-sync/datastore"
	"github.com/petert82/go-translation-sync/language"
	"github.com/petert82/go-translation-sync/trans"
	"github.com/petert82/go-translation-sync/xliff"
	"go.uber.org/zap"
	"os"
	"path/filepath"
)

// Output is a serialized export.
type Output struct {
	Language   string            `json:"language"`
	Code       string            `json:"code"`
	Document   []byte            `json:"-"`
	Segments   int               `json:"segments"`
	Violations []trans.Violation `json:"violations"`
}

type Exporter struct {
	store          datastore.Store
	registry       *language.Registry
	sourceLanguage string
	original       string
	fileName       string
	logger         *zap.Logger
}

func New(store datastore.Store, registry *language.Registry, c config.Config, logger *zap.Logger) *Exporter {
	return &Exporter{
		store:          store,
		registry:       registry,
		sourceLanguage: c.XLIFF.SourceLanguage,
		original:       c.XLIFF.Original,
		fileName:       c.XLIFF.FileName,
		logger:         logger,
	}
}

// Available returns the languages that can be exported.
func (e *Exporter) Available(ctx context.Context) ([]trans.Language, error) {
	columns, err := e.store.Columns(ctx)
	if err != nil {
		return nil, err
	}

	var langs []trans.Language
	for _, name := range e.registry.Available(columns) {
		code, err := e.registry.CodeFor(name)
		if err != nil {
			return nil, err
		}
		langs = append(langs, trans.Language{Name: name, Code: code})
	}
	return langs, nil
}

// Export builds the XLIFF document for one language, named either by its column or by its code.
// Violations are returned with the document, not as an error.
func (e *Exporter) Export(ctx context.Context, name string) (*Output, error) {
	name = e.resolve(name)
	columns, err := e.store.Columns(ctx)
	if err != nil {
		return nil, err
	}
	records, err := e.store.Records(ctx)
	if err != nil {
		return nil, err
	}

	res, err := Language(name, records, e.registry, columns)
	if err != nil {
		return nil, err
	}
	code, err := e.registry.CodeFor(name)
	if err != nil {
		return nil, err
	}

	doc, err := xliff.Serialize(e.original, e.sourceLanguage, code, res.Segments)
	if err != nil {
		return nil, err
	}

	logger := e.logger.With(zap.String("language", name), zap.String("code", code))
	for _, v := range res.Violations {
		logger.Warn("translation exceeds max width",
			zap.String("id", v.ID), zap.Float64("maxwidth", v.MaxWidth), zap.String("value", v.Value))
	}
	logger.Info("export finished", zap.Int("segments", len(res.Segments)), zap.Int("violations", len(res.Violations)))

	return &Output{
		Language:   name,
		Code:       code,
		Document:   doc,
		Segments:   len(res.Segments),
		Violations: res.Violations,
	}, nil
}

// resolve returns the language name for a configured code, and anything else unchanged.
func (e *Exporter) resolve(nameOrCode string) string {
	if _, err := e.registry.CodeFor(nameOrCode); err == nil {
		return nameOrCode
	}
	if name, err := e.registry.NameFor(nameOrCode); err == nil {
		return name
	}
	return nameOrCode
}

// ExportToDir writes the document for one language into dir and returns the path written.
func (e *Exporter) ExportToDir(ctx context.Context, name, dir string) (path string, out *Output, err error) {
	out, err = e.Export(ctx, name)
	if err != nil {
		return "", nil, err
	}

	if err = os.MkdirAll(dir, 0755); err != nil {
		return "", nil, err
	}
	path = filepath.Join(dir, xliff.FileName(e.fileName, out.Code))
	// Written aside and renamed so a reader never sees half a document.
	tmp := path + ".tmp"
	if err = os.WriteFile(tmp, out.Document, 0644); err != nil {
		os.Remove(tmp)
		return "", nil, fmt.Errorf("exporter: writing %v: %w", path, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", nil, fmt.Errorf("exporter: writing %v: %w", path, err)
	}
	return path, out, nil
}

// ExportAll writes a document for every available language into dir.
func (e *Exporter) ExportAll(ctx context.Context, dir string) ([]*Output, error) {
	langs, err := e.Available(ctx)
	if err != nil {
		return nil, err
	}

	outs := make([]*Output, 0, len(langs))
	for _, l := range langs {
		_, out, err := e.ExportToDir(ctx, l.Name, dir)
		if err != nil {
			return outs, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}
