package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
)

// XLSXStore keeps each table as a worksheet of a local workbook. The first
// row of a sheet is its header; the workbook is saved after every append.
type XLSXStore struct {
	mu   sync.Mutex
	path string
	file *excelize.File
}

// OpenXLSX opens the workbook at path, creating an empty one if it does not
// exist yet.
func OpenXLSX(path string) (*XLSXStore, error) {
	var f *excelize.File
	if _, err := os.Stat(path); err == nil {
		f, err = excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open workbook %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := EnsureDir(path); err != nil {
			return nil, fmt.Errorf("create workbook dir: %w", err)
		}
		f = excelize.NewFile()
	} else {
		return nil, fmt.Errorf("stat workbook %s: %w", path, err)
	}

	return &XLSXStore{path: path, file: f}, nil
}

// Append writes rows below the last used row of the table's sheet. New
// columns are added to the right of the existing header. If the rows cannot
// be written or the workbook cannot be saved, the workbook is restored to
// its state before the call.
func (s *XLSXStore) Append(_ context.Context, table string, rows ...Row) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.file.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("snapshot workbook: %w", err)
	}

	err = s.writeRows(table, rows)
	if err == nil {
		if err = s.file.SaveAs(s.path); err != nil {
			err = fmt.Errorf("save workbook: %w", err)
		}
	}
	if err != nil {
		if rerr := s.restore(snapshot.Bytes()); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	return nil
}

func (s *XLSXStore) writeRows(table string, rows []Row) error {
	if err := s.ensureSheet(table); err != nil {
		return err
	}

	existing, err := s.file.GetRows(table)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", table, err)
	}

	var header []string
	if len(existing) > 0 {
		header = existing[0]
	}
	header, changed := mergeHeader(header, rows)
	if changed {
		if err := s.setRow(table, 1, header); err != nil {
			return err
		}
	}

	next := len(existing) + 1
	if len(existing) == 0 {
		next = 2
	}
	for i, row := range rows {
		if err := s.setRow(table, next+i, rowValues(header, row)); err != nil {
			return err
		}
	}
	return nil
}

// restore replaces the in-memory workbook with the bytes taken before a
// failed append.
func (s *XLSXStore) restore(snapshot []byte) error {
	f, err := excelize.OpenReader(bytes.NewReader(snapshot))
	if err != nil {
		return fmt.Errorf("restore workbook: %w", err)
	}
	s.file.Close()
	s.file = f
	return nil
}

// ReadAll maps every row below the header onto the header's column names.
func (s *XLSXStore) ReadAll(_ context.Context, table string) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.file.GetSheetIndex(table)
	if err != nil {
		return nil, fmt.Errorf("lookup sheet %s: %w", table, err)
	}
	if idx == -1 {
		return nil, nil
	}

	raw, err := s.file.GetRows(table)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", table, err)
	}
	if len(raw) < 2 {
		return nil, nil
	}

	header := raw[0]
	out := make([]Row, 0, len(raw)-1)
	for _, vals := range raw[1:] {
		if isBlank(vals) {
			continue
		}
		out = append(out, rowFromValues(header, vals))
	}
	return out, nil
}

// Close closes the workbook. Data has already been saved by Append.
func (s *XLSXStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

func (s *XLSXStore) ensureSheet(table string) error {
	idx, err := s.file.GetSheetIndex(table)
	if err != nil {
		return fmt.Errorf("lookup sheet %s: %w", table, err)
	}
	if idx != -1 {
		return nil
	}
	if _, err := s.file.NewSheet(table); err != nil {
		return fmt.Errorf("create sheet %s: %w", table, err)
	}
	return nil
}

func (s *XLSXStore) setRow(table string, rowNum int, vals []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("cell for row %d: %w", rowNum, err)
	}
	cells := make([]any, len(vals))
	for i, v := range vals {
		cells[i] = v
	}
	if err := s.file.SetSheetRow(table, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", table, rowNum, err)
	}
	return nil
}

func isBlank(vals []string) bool {
	for _, v := range vals {
		if v != "" {
			return false
		}
	}
	return true
}
