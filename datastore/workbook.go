package datastore

import (
	"context"
	"errors"
	"fmt"
	"github.com/petert82/go-translation-sync/trans"
	"github.com/xuri/excelize/v2"
	"os"
	"path/filepath"
	"sync"
)

const defaultSheet = "Sheet1"

// Workbook keeps the table in one sheet of an .xlsx file: the first row holds the column names and
// each following row is a record. Other sheets in the file are left alone. The file is created on
// first write.
type Workbook struct {
	path    string
	sheet   string
	columns trans.Columns
	mu      sync.Mutex
}

func NewWorkbook(path, sheet string, columns trans.Columns) *Workbook {
	return &Workbook{path: path, sheet: sheet, columns: columns}
}

func (w *Workbook) Close() error {
	return nil
}

// Columns returns the header row.
func (w *Workbook) Columns(ctx context.Context) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	header, _, err := w.read(ctx)
	return header, err
}

// Records returns every row below the header that has an id.
func (w *Workbook) Records(ctx context.Context) ([]trans.Record, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	header, rows, err := w.read(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]trans.Record, 0, len(rows))
	seen := make(map[string]int, len(rows))
	for i, row := range rows {
		r := w.columns.Record(header, row)
		if r.ID == "" {
			continue
		}
		if first, ok := seen[r.ID]; ok {
			return nil, duplicate(r.ID, first, i+2)
		}
		seen[r.ID] = i + 2
		records = append(records, r)
	}
	return records, nil
}

// ReplaceAll rewrites the sheet. Columns already in the sheet stay in place ahead of new ones.
func (w *Workbook) ReplaceAll(ctx context.Context, columns []string, records []trans.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.update(ctx, func(f *excelize.File, header []string, _ [][]string) error {
		all := mergeColumns(header, columns)
		if err := w.clearSheet(f); err != nil {
			return err
		}
		if err := w.writeRow(f, 1, all); err != nil {
			return err
		}
		for i, r := range records {
			if err := w.writeRow(f, i+2, w.columns.Row(r, all)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApplyUpdates rewrites the rows holding the given ids.
func (w *Workbook) ApplyUpdates(ctx context.Context, columns []string, records []trans.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.update(ctx, func(f *excelize.File, header []string, rows [][]string) error {
		all := mergeColumns(header, columns)
		if len(all) != len(header) {
			if err := w.writeRow(f, 1, all); err != nil {
				return err
			}
		}

		rowOf := make(map[string]int, len(rows))
		for i, row := range rows {
			id := w.columns.Record(header, row).ID
			if id == "" {
				continue
			}
			if first, ok := rowOf[id]; ok {
				return duplicate(id, first, i+2)
			}
			rowOf[id] = i + 2
		}
		for _, r := range records {
			n, ok := rowOf[r.ID]
			if !ok {
				return fmt.Errorf("%w: '%v'", ErrRecordNotFound, r.ID)
			}
			if err := w.writeRow(f, n, w.columns.Row(r, all)); err != nil {
				return err
			}
		}
		return nil
	})
}

// AppendRecords writes records below the last row.
func (w *Workbook) AppendRecords(ctx context.Context, columns []string, records []trans.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.update(ctx, func(f *excelize.File, header []string, rows [][]string) error {
		all := mergeColumns(header, columns)
		if len(all) != len(header) {
			if err := w.writeRow(f, 1, all); err != nil {
				return err
			}
		}
		next := len(rows) + 2
		for i, r := range records {
			if err := w.writeRow(f, next+i, w.columns.Row(r, all)); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddColumn appends name to the header row.
func (w *Workbook) AddColumn(ctx context.Context, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.update(ctx, func(f *excelize.File, header []string, _ [][]string) error {
		all := mergeColumns(header, []string{name})
		if len(all) == len(header) {
			return nil
		}
		return w.writeRow(f, 1, all)
	})
}

// read returns the header and the rows below it. A missing file or sheet reads as empty.
func (w *Workbook) read(ctx context.Context) (header []string, rows [][]string, err error) {
	if err = ctx.Err(); err != nil {
		return nil, nil, err
	}

	f, err := excelize.OpenFile(w.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, unavailable(err)
	}
	defer f.Close()

	return w.rows(f)
}

func (w *Workbook) rows(f *excelize.File) (header []string, rows [][]string, err error) {
	if idx, _ := f.GetSheetIndex(w.sheet); idx < 0 {
		return nil, nil, nil
	}
	all, err := f.GetRows(w.sheet)
	if err != nil {
		return nil, nil, unavailable(err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}

// update opens or creates the workbook, applies f and saves the result over the original file.
func (w *Workbook) update(ctx context.Context, apply func(f *excelize.File, header []string, rows [][]string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := w.open()
	if err != nil {
		return unavailable(err)
	}
	defer f.Close()

	header, rows, err := w.rows(f)
	if err != nil {
		return err
	}

	if err = apply(f, header, rows); err != nil {
		if errors.Is(err, ErrRecordNotFound) || errors.Is(err, ErrDuplicateRecord) {
			return err
		}
		return unavailable(err)
	}

	if err = ctx.Err(); err != nil {
		return err
	}
	return w.save(f)
}

func duplicate(id string, first, second int) error {
	return fmt.Errorf("%w: '%v' is on rows %v and %v", ErrDuplicateRecord, id, first, second)
}

func (w *Workbook) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(w.path)
	if errors.Is(err, os.ErrNotExist) {
		f = excelize.NewFile()
		if w.sheet != defaultSheet {
			if err := f.SetSheetName(defaultSheet, w.sheet); err != nil {
				return nil, err
			}
		}
		return f, nil
	}
	if err != nil {
		return nil, err
	}
	if idx, _ := f.GetSheetIndex(w.sheet); idx < 0 {
		if _, err := f.NewSheet(w.sheet); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// clearSheet swaps the sheet for an empty one of the same name.
func (w *Workbook) clearSheet(f *excelize.File) error {
	tmp := w.sheet + "~"
	if _, err := f.NewSheet(tmp); err != nil {
		return err
	}
	if err := f.DeleteSheet(w.sheet); err != nil {
		return err
	}
	if err := f.SetSheetName(tmp, w.sheet); err != nil {
		return err
	}
	idx, err := f.GetSheetIndex(w.sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	return nil
}

func (w *Workbook) writeRow(f *excelize.File, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	return f.SetSheetRow(w.sheet, cell, &values)
}

// save writes to a temporary file next to the workbook and renames it into place.
func (w *Workbook) save(f *excelize.File) error {
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return unavailable(err)
		}
	}
	tmp := filepath.Join(filepath.Dir(w.path), "."+filepath.Base(w.path)+".tmp.xlsx")
	if err := f.SaveAs(tmp); err != nil {
		os.Remove(tmp)
		return unavailable(err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		os.Remove(tmp)
		return unavailable(err)
	}
	return nil
}
